package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/kotpad/kotpad/internal/iotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runResult is the outcome of running kotpad in a test.
type runResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// runMain runs kotpad with the given stdin and arguments.
func runMain(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()

	return runMainContext(context.Background(), t, stdin, args...)
}

func runMainContext(ctx context.Context, t *testing.T, stdin string, args ...string) runResult {
	t.Helper()

	var stdout, stderr lockedBuffer
	exitCode := (&mainCmd{
		Stdin:  strings.NewReader(stdin),
		Stdout: io.MultiWriter(&stdout, iotest.Writer(t)),
		Stderr: io.MultiWriter(&stderr, iotest.Writer(t)),
	}).Run(ctx, args)

	return runResult{
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
}

// lockedBuffer is a bytes.Buffer that's safe for concurrent use.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// writeFile writes a file into a new temporary directory
// and returns its path.
func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestMainCmd_help(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		args []string
		want string
	}{
		{
			desc: "short",
			args: []string{"-h"},
			want: "USAGE: kotpad [OPTIONS] COMMAND [ARGS]",
		},
		{
			desc: "long",
			args: []string{"-help"},
			want: "HELP TOPICS",
		},
		{
			desc: "topic",
			args: []string{"-help=config"},
			want: "HIGHLIGHTING CONFIGURATION",
		},
		{
			desc: "topic as argument",
			args: []string{"-h", "compile"},
			want: "adb reverse tcp:5000 tcp:5000",
		},
		{
			desc: "usage",
			args: []string{"-h=usage"},
			want: "USAGE: kotpad [OPTIONS] COMMAND [ARGS]\n",
		},
		{
			desc: "command as topic",
			args: []string{"-h", "highlight"},
			want: "kotpad highlight [FLAGS] [FILE]",
		},
		{
			desc: "command flag",
			args: []string{"inspect", "-h"},
			want: "kotpad inspect [FLAGS] FILE OFFSET[:END]",
		},
		{
			desc: "command flag long",
			args: []string{"watch", "-help"},
			want: "-debounce",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			got := runMain(t, "", tt.args...)
			assert.Zero(t, got.ExitCode, "help should have zero status code")
			assert.Contains(t, got.Stderr, tt.want)
		})
	}
}

func TestMainCmd_help_unknownTopic(t *testing.T) {
	t.Parallel()

	got := runMain(t, "", "-help=frobnicate")
	assert.Equal(t, 1, got.ExitCode)
	assert.Contains(t, got.Stderr, `unknown help topic "frobnicate"`)
}

func TestMainCmd_version(t *testing.T) {
	t.Parallel()

	got := runMain(t, "", "-version")
	assert.Zero(t, got.ExitCode, "-version should have zero status code")
	assert.Equal(t, "kotpad "+_version+"\n", got.Stdout)
}

func TestMainCmd_usageErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		args []string
		want string
	}{
		{
			desc: "unknown flag",
			args: []string{"--this-flag-does-not-exist"},
			want: "flag provided but not defined: -this-flag-does-not-exist",
		},
		{
			desc: "no command",
			want: "please provide a command",
		},
		{
			desc: "unknown command",
			args: []string{"frobnicate"},
			want: `unknown command "frobnicate"`,
		},
		{
			desc: "unknown command flag",
			args: []string{"config", "-nope"},
			want: "flag provided but not defined: -nope",
		},
		{
			desc: "too many files",
			args: []string{"highlight", "a.kt", "b.kt"},
			want: `too many arguments: ["b.kt"]`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			got := runMain(t, "", tt.args...)
			assert.Equal(t, 1, got.ExitCode)
			assert.Contains(t, got.Stderr, tt.want)
		})
	}
}

func TestMainCmd_debug(t *testing.T) {
	t.Parallel()

	src := writeFile(t, "Main.kt", "val x = 1\n")

	t.Run("stderr", func(t *testing.T) {
		t.Parallel()

		got := runMain(t, "", "-debug", "highlight", "-format=plain", src)
		require.Zero(t, got.ExitCode)
		assert.Contains(t, got.Stderr, "[kotpad] read "+src)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		logPath := filepath.Join(t.TempDir(), "debug.log")
		got := runMain(t, "", "-debug="+logPath, "highlight", "-format=plain", src)
		require.Zero(t, got.ExitCode)
		assert.NotContains(t, got.Stderr, "[kotpad]")

		log, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(log), "[kotpad] ")
		assert.Contains(t, string(log), "read "+src)
	})

	t.Run("off", func(t *testing.T) {
		t.Parallel()

		got := runMain(t, "", "highlight", "-format=plain", src)
		require.Zero(t, got.ExitCode)
		assert.Empty(t, got.Stderr)
	})

	t.Run("bad file", func(t *testing.T) {
		t.Parallel()

		logPath := filepath.Join(t.TempDir(), "missing", "debug.log")
		got := runMain(t, "", "-debug="+logPath, "config")
		assert.Equal(t, 1, got.ExitCode)
		assert.Contains(t, got.Stderr, "open debug log")
	})
}

func TestMainCmd_flagsFile(t *testing.T) {
	t.Parallel()

	flags := writeFile(t, "kotpad.conf",
		"# shared options\n"+
			"color keyword=#111111\n"+
			"keyword main\n"+
			"url http://192.168.1.20:5000/compile\n")

	got := runMain(t, "", "-flags", flags, "config")
	require.Zero(t, got.ExitCode, "stderr:\n%v", got.Stderr)
	assert.Contains(t, got.Stdout, `"keyword": "#111111"`)
	assert.Contains(t, got.Stdout, `"main"`)

	t.Run("command line wins", func(t *testing.T) {
		t.Parallel()

		got := runMain(t, "", "-flags", flags, "config", "-color", "keyword=#222222")
		require.Zero(t, got.ExitCode, "stderr:\n%v", got.Stderr)
		assert.Contains(t, got.Stdout, `"keyword": "#222222"`)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		got := runMain(t, "", "-flags", filepath.Join(t.TempDir(), "nope.conf"), "config")
		assert.Equal(t, 1, got.ExitCode)
		assert.Contains(t, got.Stderr, "nope.conf")
	})
}

// Environment variables are process-wide,
// so this test can't run in parallel with others.
func TestMainCmd_envVars(t *testing.T) {
	t.Setenv("KOTPAD_COLOR", "keyword=#333333,comment=#444444")
	t.Setenv("KOTPAD_KEYWORD", "println")

	got := runMain(t, "", "config")
	require.Zero(t, got.ExitCode, "stderr:\n%v", got.Stderr)
	assert.Contains(t, got.Stdout, `"keyword": "#333333"`)
	assert.Contains(t, got.Stdout, `"comment": "#444444"`)
	assert.Contains(t, got.Stdout, `"println"`)

	got = runMain(t, "", "config", "-color=keyword=#555555")
	require.Zero(t, got.ExitCode, "stderr:\n%v", got.Stderr)
	assert.Contains(t, got.Stdout, `"keyword": "#555555"`, "flag should win over environment")
}
