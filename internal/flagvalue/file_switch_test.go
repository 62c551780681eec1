package flagvalue

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFileSwitch(t *testing.T, args ...string) *FileSwitch {
	t.Helper()

	fset := flag.NewFlagSet(t.Name(), flag.ContinueOnError)
	var fs FileSwitch
	fset.Var(&fs, "debug", "")
	require.NoError(t, fset.Parse(args))
	return &fs
}

func TestFileSwitch_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc     string
		give     []string
		want     string
		wantBool bool
	}{
		{desc: "absent"},
		{
			desc:     "bare",
			give:     []string{"-debug"},
			want:     "-",
			wantBool: true,
		},
		{
			desc:     "explicit true",
			give:     []string{"-debug=true"},
			want:     "-",
			wantBool: true,
		},
		{
			desc:     "numeric true",
			give:     []string{"-debug=1"},
			want:     "-",
			wantBool: true,
		},
		{
			desc: "explicit false",
			give: []string{"-debug=false"},
		},
		{
			desc:     "path",
			give:     []string{"-debug=kotpad.log"},
			want:     "kotpad.log",
			wantBool: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			fs := parseFileSwitch(t, tt.give...)
			assert.Equal(t, tt.want, fs.Get())
			assert.Equal(t, tt.want, fs.String())
			assert.Equal(t, tt.wantBool, fs.Bool())
		})
	}
}

func TestFileSwitch_Open(t *testing.T) {
	t.Parallel()

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		got, done, err := parseFileSwitch(t).Open(new(bytes.Buffer))
		require.NoError(t, err)
		assert.True(t, got == io.Discard, "expected io.Discard, got %v", got)
		require.NoError(t, done())
	})

	t.Run("fallback", func(t *testing.T) {
		t.Parallel()

		buf := new(bytes.Buffer)
		got, done, err := parseFileSwitch(t, "-debug").Open(buf)
		require.NoError(t, err)
		assert.True(t, got == buf, "expected fallback, got %v", got)
		require.NoError(t, done())
	})

	t.Run("file appends", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "debug.log")
		require.NoError(t, os.WriteFile(path, []byte("earlier\n"), 0o644))

		got, done, err := parseFileSwitch(t, "-debug="+path).Open(new(bytes.Buffer))
		require.NoError(t, err)
		_, err = io.WriteString(got, "later\n")
		require.NoError(t, err)
		require.NoError(t, done())

		body, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "earlier\nlater\n", string(body))
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "does_not_exist", "debug.log")
		_, _, err := parseFileSwitch(t, "-debug="+path).Open(new(bytes.Buffer))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestFileSwitch_Logger(t *testing.T) {
	t.Parallel()

	t.Run("fallback", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger, done, err := parseFileSwitch(t, "-debug").Logger(&buf, "[kotpad] ")
		require.NoError(t, err)
		logger.Printf("loaded %v", "highlight.json")
		require.NoError(t, done())

		assert.Equal(t, "[kotpad] loaded highlight.json\n", buf.String())
	})

	t.Run("file has timestamps", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "debug.log")
		logger, done, err := parseFileSwitch(t, "-debug="+path).Logger(nil, "")
		require.NoError(t, err)
		logger.Print("hello")
		require.NoError(t, done())

		body, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Regexp(t, `^\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}\.\d{6} hello\n$`, string(body))
	})
}
