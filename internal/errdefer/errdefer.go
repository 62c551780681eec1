// Package errdefer runs cleanup that must be deferred until a function
// returns but can itself fail.
//
// Failures are joined into the function's named error return
// so that neither the original error nor the cleanup error is lost.
package errdefer

import (
	"errors"
	"io"
)

// Close closes closer and joins its error into *err.
//
//	f, err := os.Open(path)
//	if err != nil {
//		return err
//	}
//	defer errdefer.Close(&err, f)
func Close(err *error, closer io.Closer) {
	Do(err, closer.Close)
}

// Do calls fn and joins its error into *err.
func Do(err *error, fn func() error) {
	*err = errors.Join(*err, fn())
}

// OnError calls fn only if *err is non-nil by the time it runs,
// joining its error into *err.
// Use it to undo partial work on failure.
func OnError(err *error, fn func() error) {
	if *err != nil {
		Do(err, fn)
	}
}
