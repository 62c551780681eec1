package iotest

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeT struct {
	testing.TB

	Buffer   bytes.Buffer
	cleanups []func()
}

func (t *fakeT) Logf(msg string, args ...any) {
	fmt.Fprintln(&t.Buffer, fmt.Sprintf(msg, args...))
}

func (t *fakeT) Cleanup(f func()) {
	t.cleanups = append(t.cleanups, f)
}

func (t *fakeT) runCleanups() {
	for i := len(t.cleanups) - 1; i >= 0; i-- {
		t.cleanups[i]()
	}
}

func TestWriter(t *testing.T) {
	t.Parallel()

	fake := fakeT{TB: t}
	w := Writer(&fake)

	io.WriteString(w, "compile[1]: POST ")
	assert.Empty(t, fake.Buffer.String(), "partial line should be held")

	io.WriteString(w, "http://127.0.0.1:5000/compile\nsecond\nthird")
	assert.Equal(t,
		"compile[1]: POST http://127.0.0.1:5000/compile\nsecond\n",
		fake.Buffer.String())

	fake.runCleanups()
	assert.Equal(t,
		"compile[1]: POST http://127.0.0.1:5000/compile\nsecond\nthird\n",
		fake.Buffer.String())
}
