package flagvalue

import (
	"flag"
	"io"
	"log"
	"os"
	"strconv"

	"braces.dev/errtrace"
)

// FileSwitch is a flag that accepts both "-x" and "-x=path".
// Without a value it selects a fallback writer;
// with one it selects the file at that path.
type FileSwitch string

var _ flag.Getter = (*FileSwitch)(nil)

// Get returns the path passed to the flag,
// "-" if the flag was passed without a value,
// or "" if it wasn't passed at all.
func (fs *FileSwitch) Get() any { return string(*fs) }

func (fs *FileSwitch) String() string {
	return string(*fs)
}

// IsBoolFlag marks this as a flag that doesn't require a value.
func (*FileSwitch) IsBoolFlag() bool {
	return true
}

// Set receives the value for this flag.
// Boolean true values and "-" select the fallback writer.
// Boolean false values and "" disable the switch.
func (fs *FileSwitch) Set(v string) error {
	if b, err := strconv.ParseBool(v); err == nil {
		v = ""
		if b {
			v = "-"
		}
	}
	*fs = FileSwitch(v)
	return nil
}

// Bool reports whether this flag is enabled.
func (fs *FileSwitch) Bool() bool {
	return len(*fs) > 0
}

// Open returns the writer selected by this flag
// and a function to release it.
//
//   - the flag wasn't passed: io.Discard
//   - the flag was passed without a value: fallback
//   - the flag was passed with a path: that file, opened for appending
func (fs *FileSwitch) Open(fallback io.Writer) (w io.Writer, closeFn func() error, err error) {
	switch *fs {
	case "":
		return io.Discard, nopClose, nil
	case "-":
		return fallback, nopClose, nil
	default:
		f, err := os.OpenFile(string(*fs), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, errtrace.Wrap(err)
		}
		return f, f.Close, nil
	}
}

// Logger is like Open, but wraps the writer in a log.Logger
// that prefixes each message with prefix.
func (fs *FileSwitch) Logger(fallback io.Writer, prefix string) (*log.Logger, func() error, error) {
	w, closeFn, err := fs.Open(fallback)
	if err != nil {
		return nil, nil, errtrace.Wrap(err)
	}

	flags := 0
	if *fs != "" && *fs != "-" {
		flags = log.LstdFlags | log.Lmicroseconds
	}
	return log.New(w, prefix, flags), closeFn, nil
}

func nopClose() error { return nil }
