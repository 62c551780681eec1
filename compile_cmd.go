package main

import (
	"context"
	"encoding/json"
	"io"

	"braces.dev/errtrace"
	"github.com/kotpad/kotpad/internal/compile"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

// compileCmd sends a source file to the compile service.
type compileCmd struct {
	main *mainCmd

	flags compileFlags
}

func (c *compileCmd) Command(opts []ff.Option) *ffcli.Command {
	fset := newFlagSet("kotpad compile", c.main.Stderr)
	c.flags.register(fset)

	return &ffcli.Command{
		Name:       "compile",
		ShortUsage: "kotpad compile [FLAGS] [FILE]",
		ShortHelp:  "send a file to the compile service and print the result",
		LongHelp: "Prints the program's stdout and stderr.\n" +
			"Exits with status 1 if compilation or the program failed.\n" +
			"See 'kotpad -help=compile' for details.",
		FlagSet:   fset,
		Options:   opts,
		UsageFunc: ffcli.DefaultUsageFunc,
		Exec:      c.exec,
	}
}

func (c *compileCmd) exec(ctx context.Context, args []string) error {
	_, src, err := c.main.readSource(args)
	if err != nil {
		return errtrace.Wrap(err)
	}

	client := compile.Client{
		URL:            c.flags.URL,
		ConnectTimeout: c.flags.ConnectTimeout,
		ReadTimeout:    c.flags.ReadTimeout,
		Advice:         c.flags.Advice,
		Log:            c.main.debug,
	}
	res := client.Compile(ctx, src)

	if c.flags.JSON {
		enc := json.NewEncoder(c.main.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return errtrace.Wrap(err)
		}
	} else {
		if _, err := io.WriteString(c.main.Stdout, res.Stdout); err != nil {
			return errtrace.Wrap(err)
		}
		if _, err := io.WriteString(c.main.Stderr, res.Stderr); err != nil {
			return errtrace.Wrap(err)
		}
		if !res.OK {
			c.main.log.Printf("kotpad: failed in %v phase (exit code %d)", res.Phase, res.ExitCode)
		}
	}

	if !res.OK {
		return exitCodeError(1)
	}
	return nil
}
