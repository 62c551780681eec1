package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"braces.dev/errtrace"
	"github.com/kotpad/kotpad/internal/highlight"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

// inspectCmd reports the token classes in a source file.
type inspectCmd struct {
	main *mainCmd

	config configFlags
	all    bool
}

func (c *inspectCmd) Command(opts []ff.Option) *ffcli.Command {
	fset := newFlagSet("kotpad inspect", c.main.Stderr)
	c.config.register(fset)
	fset.BoolVar(&c.all, "all", false, "print every run in the file instead of a position")

	return &ffcli.Command{
		Name:       "inspect",
		ShortUsage: "kotpad inspect [FLAGS] FILE OFFSET[:END]",
		ShortHelp:  "print the token class at a byte offset",
		LongHelp: "With OFFSET, prints the class of the token at that byte offset.\n" +
			"With OFFSET:END, prints each run overlapping that range\n" +
			"as 'START-END CLASS TEXT'.\n" +
			"With -all, prints every run in FILE.",
		FlagSet:   fset,
		Options:   opts,
		UsageFunc: ffcli.DefaultUsageFunc,
		Exec:      c.exec,
	}
}

func (c *inspectCmd) exec(_ context.Context, args []string) error {
	wantArgs := 2
	if c.all {
		wantArgs = 1
	}
	if len(args) != wantArgs {
		c.main.log.Printf("kotpad inspect: expected %d arguments, got %d", wantArgs, len(args))
		return errInvalidArguments
	}

	cfg, err := c.config.Load()
	if err != nil {
		return errtrace.Wrap(err)
	}

	_, src, err := c.main.readSource(args[:1])
	if err != nil {
		return errtrace.Wrap(err)
	}

	runs := highlight.Composite(src, highlight.Highlight(src, cfg))
	if c.all {
		c.printRuns(src, runs)
		return nil
	}

	start, end, isRange, err := parsePosition(args[1], len(src))
	if err != nil {
		return errtrace.Wrap(err)
	}

	idx := highlight.NewRunIndex(runs)
	if !isRange {
		fmt.Fprintln(c.main.Stdout, idx.ClassAt(start))
		return nil
	}
	c.printRuns(src, idx.Interval(start, end))
	return nil
}

func (c *inspectCmd) printRuns(src string, runs []highlight.Run) {
	for _, run := range runs {
		fmt.Fprintf(c.main.Stdout, "%d-%d\t%v\t%q\n", run.Start, run.End, run.Class, run.Text(src))
	}
}

// parsePosition parses "OFFSET" or "START:END" for a source of size n.
func parsePosition(s string, n int) (start, end int, isRange bool, err error) {
	startStr, endStr, isRange := strings.Cut(s, ":")

	start, err = parseOffset(startStr, n)
	if err != nil {
		return 0, 0, false, errtrace.Wrap(err)
	}
	if !isRange {
		if start >= n {
			return 0, 0, false, errtrace.Errorf("offset %d out of range [0, %d)", start, n)
		}
		return start, start + 1, false, nil
	}

	end, err = parseOffset(endStr, n)
	if err != nil {
		return 0, 0, false, errtrace.Wrap(err)
	}
	if end < start {
		return 0, 0, false, errtrace.Errorf("bad range %q: end is before start", s)
	}
	return start, end, true, nil
}

func parseOffset(s string, n int) (int, error) {
	off, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errtrace.Errorf("bad offset %q: %w", s, err)
	}
	if off < 0 || off > n {
		return 0, errtrace.Errorf("offset %d out of range [0, %d]", off, n)
	}
	return off, nil
}
