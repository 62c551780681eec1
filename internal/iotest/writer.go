// Package iotest provides IO helpers for tests.
package iotest

import (
	"bytes"
	"io"
	"testing"

	"github.com/kotpad/kotpad/internal/linebuf"
)

// Writer builds an io.Writer that logs each line written to it with t.Logf.
// A trailing partial line is logged when the test finishes.
func Writer(t testing.TB) io.Writer {
	w := linebuf.NewWriter(func(line []byte) {
		t.Logf("%s", bytes.TrimSuffix(line, []byte("\n")))
	})
	t.Cleanup(w.Flush)
	return w
}
