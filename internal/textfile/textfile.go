// Package textfile reads and writes source files as text.
//
// Files are treated as opaque byte streams on disk.
// Reading honors UTF-8 and UTF-16 byte order marks
// and replaces invalid UTF-8 with U+FFFD.
// Writing always produces UTF-8 without a byte order mark.
package textfile

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"braces.dev/errtrace"
	"github.com/kotpad/kotpad/internal/errdefer"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultMode is the permission used for files that don't exist yet.
const DefaultMode fs.FileMode = 0o644

// Read reads the file at path as text.
func Read(path string) (_ string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	defer errdefer.Close(&err, f)

	text, err := Decode(f)
	if err != nil {
		return "", errtrace.Errorf("%v: %w", path, err)
	}
	return text, nil
}

// Decode reads all of r as text.
// A leading byte order mark selects the encoding and is dropped.
// Input without one is decoded as UTF-8.
func Decode(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	b, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	return string(b), nil
}

// Write replaces the contents of the file at path with text.
//
// The text is written to a temporary file in the same directory
// and renamed over path, so readers never observe a partial write.
// An existing file keeps its permissions.
func Write(path, text string) (err error) {
	mode := DefaultMode
	if info, err := os.Stat(path); err == nil {
		if !info.Mode().IsRegular() {
			return errtrace.Errorf("%v: not a regular file", path)
		}
		mode = info.Mode().Perm()
	}

	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return errtrace.Wrap(err)
	}
	tmp := f.Name()
	defer errdefer.OnError(&err, func() error {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errtrace.Wrap(err)
		}
		return nil
	})

	if _, err := io.WriteString(f, text); err != nil {
		return errors.Join(errtrace.Wrap(err), f.Close())
	}
	if err := f.Chmod(mode); err != nil {
		return errors.Join(errtrace.Wrap(err), f.Close())
	}
	if err := f.Close(); err != nil {
		return errtrace.Wrap(err)
	}

	return errtrace.Wrap(os.Rename(tmp, path))
}
