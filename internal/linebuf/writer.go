// Package linebuf splits written bytes into lines.
package linebuf

import (
	"bytes"
	"sync"
)

// Writer is an io.Writer that calls a function once per line written to it.
// Lines passed to the function include their trailing newline.
// Partial lines are held until the rest of the line arrives
// or Flush is called.
//
// Writer is safe for concurrent use.
type Writer struct {
	fn func([]byte)

	mu      sync.Mutex
	partial bytes.Buffer // text after the last newline
}

// NewWriter builds a Writer that calls fn with each line.
// fn must not retain the slice.
func NewWriter(fn func(line []byte)) *Writer {
	return &Writer{fn: fn}
}

// Write splits bs into lines. It never fails.
func (w *Writer) Write(bs []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(bs)
	for len(bs) > 0 {
		idx := bytes.IndexByte(bs, '\n')
		if idx < 0 {
			w.partial.Write(bs)
			break
		}

		var line []byte
		line, bs = bs[:idx+1], bs[idx+1:]
		if w.partial.Len() == 0 {
			w.fn(line)
			continue
		}

		w.partial.Write(line)
		w.fn(w.partial.Bytes())
		w.partial.Reset()
	}
	return total, nil
}

// Flush passes any held partial line to the function.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.partial.Len() > 0 {
		w.fn(w.partial.Bytes())
		w.partial.Reset()
	}
}
