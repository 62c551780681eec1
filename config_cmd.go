package main

import (
	"context"
	"io"

	"braces.dev/errtrace"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

// configCmd prints the effective highlighting configuration.
type configCmd struct {
	main *mainCmd

	config configFlags
	output string
}

func (c *configCmd) Command(opts []ff.Option) *ffcli.Command {
	fset := newFlagSet("kotpad config", c.main.Stderr)
	c.config.register(fset)
	fset.StringVar(&c.output, "o", "", "write the configuration to `file` instead of stdout")

	return &ffcli.Command{
		Name:       "config",
		ShortUsage: "kotpad config [FLAGS]",
		ShortHelp:  "print the effective highlighting configuration",
		LongHelp: "Validates the -config file, applies -color and -keyword,\n" +
			"and prints the result as JSON.\n" +
			"Without -config, prints the built-in configuration.",
		FlagSet:   fset,
		Options:   opts,
		UsageFunc: ffcli.DefaultUsageFunc,
		Exec:      c.exec,
	}
}

func (c *configCmd) exec(_ context.Context, args []string) error {
	if len(args) > 0 {
		c.main.log.Printf("kotpad config: unexpected arguments: %q", args)
		return errInvalidArguments
	}

	cfg, err := c.config.Load()
	if err != nil {
		return errtrace.Wrap(err)
	}

	return c.main.writeOutput(c.output, func(w io.Writer) error {
		_, err := cfg.WriteTo(w)
		return errtrace.Wrap(err)
	})
}
