// kotpad highlights Kotlin-like source code
// and runs it on a remote compile service.
//
// See 'kotpad -help' for usage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"braces.dev/errtrace"
	"github.com/kotpad/kotpad/internal/textfile"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := mainCmd{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	exitCode := cmd.Run(ctx, os.Args[1:])
	stop()
	os.Exit(exitCode)
}

// mainCmd is the actual entry point to the program.
type mainCmd struct {
	Stdin  io.Reader // == os.Stdin
	Stdout io.Writer // == os.Stdout
	Stderr io.Writer // == os.Stderr

	log   *log.Logger // user-facing messages
	debug *log.Logger // -debug output
}

// exitCodeError reports a failure that was already explained to the user.
type exitCodeError int

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

func (cmd *mainCmd) Run(ctx context.Context, args []string) (exitCode int) {
	cmd.log = log.New(cmd.Stderr, "", 0)
	cmd.debug = log.New(io.Discard, "", 0)

	var p params
	root := cmd.newRootCommand(&p)
	parseErr := root.Parse(args)

	if p.version {
		fmt.Fprintln(cmd.Stdout, "kotpad", _version)
		return 0
	}

	if p.help != NoHelp {
		if err := cmd.writeHelp(root, p.help); err != nil {
			cmd.log.Print(err)
			return 1
		}
		return 0
	}

	if parseErr != nil {
		// '$cmd -h' should exit with zero.
		if errors.Is(parseErr, flag.ErrHelp) {
			return 0
		}
		cmd.log.Printf("kotpad: %v", parseErr)
		return 1
	}

	debug, closeDebug, err := p.Debug.Logger(cmd.Stderr, "[kotpad] ")
	if err != nil {
		cmd.log.Printf("kotpad: open debug log: %v", err)
		return 1
	}
	defer func() {
		if err := closeDebug(); err != nil {
			cmd.log.Printf("kotpad: close debug log: %v", err)
			exitCode = 1
		}
	}()
	cmd.debug = debug

	if err := root.Run(ctx); err != nil {
		var exitErr exitCodeError
		switch {
		case errors.As(err, &exitErr):
			return int(exitErr)
		case errors.Is(err, flag.ErrHelp):
			// Usage was already printed.
		case errors.Is(err, errInvalidArguments):
			UsageHelp.Write(cmd.Stderr)
		default:
			cmd.log.Printf("kotpad: %v", err)
		}
		return 1
	}
	return 0
}

// writeHelp prints help on topic.
// Names of commands are accepted as topics.
func (cmd *mainCmd) writeHelp(root *ffcli.Command, topic Help) error {
	if topic == DefaultHelp {
		// The user might have done "-h foo" instead of "-h=foo".
		if args := root.FlagSet.Args(); len(args) > 0 {
			topic = Help(strings.ToLower(args[0]))
		}
	}

	if !topic.Known() {
		for _, sub := range root.Subcommands {
			if strings.EqualFold(sub.Name, string(topic)) {
				_, err := io.WriteString(cmd.Stderr, sub.UsageFunc(sub))
				return errtrace.Wrap(err)
			}
		}
	}
	return errtrace.Wrap(topic.Write(cmd.Stderr))
}

func (cmd *mainCmd) newRootCommand(p *params) *ffcli.Command {
	fset := newFlagSet("kotpad", cmd.Stderr)
	p.register(fset)

	opts := ffOptions(&p.FlagsFile)
	return &ffcli.Command{
		ShortUsage: strings.TrimSpace(_usageHelp),
		FlagSet:    fset,
		Options:    opts,
		UsageFunc: func(*ffcli.Command) string {
			return _defaultHelp
		},
		Subcommands: []*ffcli.Command{
			(&highlightCmd{main: cmd}).Command(opts),
			(&inspectCmd{main: cmd}).Command(opts),
			(&compileCmd{main: cmd}).Command(opts),
			(&watchCmd{main: cmd}).Command(opts),
			(&configCmd{main: cmd}).Command(opts),
		},
		Exec: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				cmd.log.Printf("kotpad: unknown command %q", args[0])
			} else {
				cmd.log.Print("kotpad: please provide a command")
			}
			return errInvalidArguments
		},
	}
}

// readSource reads the source file named by args.
// A missing argument or "-" reads from stdin.
func (cmd *mainCmd) readSource(args []string) (name, src string, err error) {
	switch len(args) {
	case 0:
		args = []string{"-"}
	case 1:
	default:
		cmd.log.Printf("kotpad: too many arguments: %q", args[1:])
		return "", "", errInvalidArguments
	}

	if args[0] == "-" {
		src, err := textfile.Decode(cmd.Stdin)
		if err != nil {
			return "", "", errtrace.Errorf("read stdin: %w", err)
		}
		return "<stdin>", src, nil
	}

	name = args[0]
	src, err = textfile.Read(name)
	if err != nil {
		return "", "", errtrace.Wrap(err)
	}
	cmd.debug.Printf("read %v (%d bytes)", name, len(src))
	return filepath.Base(name), src, nil
}

// writeOutput runs write against the file at path,
// or stdout if path is empty or "-".
// Files are replaced only if write succeeds.
func (cmd *mainCmd) writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return errtrace.Wrap(write(cmd.Stdout))
	}

	var buf strings.Builder
	if err := write(&buf); err != nil {
		return errtrace.Wrap(err)
	}
	if err := textfile.Write(path, buf.String()); err != nil {
		return errtrace.Wrap(err)
	}
	cmd.debug.Printf("wrote %v (%d bytes)", path, buf.Len())
	return nil
}
