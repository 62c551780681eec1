package main

import (
	"context"
	"io"
	"path/filepath"

	"braces.dev/errtrace"
	"github.com/kotpad/kotpad/internal/errdefer"
	"github.com/kotpad/kotpad/internal/highlight"
	"github.com/kotpad/kotpad/internal/html"
	"github.com/kotpad/kotpad/internal/watch"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

// watchCmd renders a file again every time it changes.
type watchCmd struct {
	main *mainCmd

	config configFlags
	output outputFlags
	watch  watchFlags
}

func (c *watchCmd) Command(opts []ff.Option) *ffcli.Command {
	fset := newFlagSet("kotpad watch", c.main.Stderr)
	c.config.register(fset)
	c.output.register(fset)
	c.watch.register(fset)

	return &ffcli.Command{
		Name:       "watch",
		ShortUsage: "kotpad watch [FLAGS] FILE",
		ShortHelp:  "render a file again whenever it or its configuration changes",
		LongHelp: "Renders FILE like 'kotpad highlight' and keeps running,\n" +
			"rendering it again whenever FILE or the -config file changes.\n" +
			"If the new configuration can't be read, the previous one is kept.\n" +
			"Stop with Ctrl-C.",
		FlagSet:   fset,
		Options:   opts,
		UsageFunc: ffcli.DefaultUsageFunc,
		Exec:      c.exec,
	}
}

func (c *watchCmd) exec(ctx context.Context, args []string) (err error) {
	if len(args) != 1 || args[0] == "-" {
		c.main.log.Print("kotpad watch: expected a single FILE")
		return errInvalidArguments
	}
	srcPath, err := filepath.Abs(args[0])
	if err != nil {
		return errtrace.Wrap(err)
	}

	// A bad configuration is fatal only at startup.
	cfg, err := c.config.Load()
	if err != nil {
		return errtrace.Wrap(err)
	}
	if _, err := newHighlighter(cfg, &c.output, nil); err != nil {
		return errtrace.Wrap(err)
	}

	paths := []string{srcPath}
	var cfgPath string
	if c.config.Path != "" {
		cfgPath, err = filepath.Abs(c.config.Path)
		if err != nil {
			return errtrace.Wrap(err)
		}
		paths = append(paths, cfgPath)
	}

	w, err := watch.New(watch.Config{
		Paths:    paths,
		Debounce: c.watch.Debounce,
		Log:      c.main.debug,
	})
	if err != nil {
		return errtrace.Wrap(err)
	}
	defer errdefer.Close(&err, w)

	changes, err := w.Start(ctx)
	if err != nil {
		return errtrace.Wrap(err)
	}

	r := watchRenderer{
		main:   c.main,
		output: &c.output,
		path:   srcPath,
		cache:  highlight.NewCache(highlight.DefaultCacheExpiration, highlight.DefaultCacheCleanupInterval),
	}
	r.render(cfg)

	for path := range changes {
		if path == cfgPath {
			newCfg, err := c.config.Load()
			if err != nil {
				c.main.log.Printf("kotpad: keeping previous configuration: %v", err)
				continue
			}
			cfg = newCfg
			r.cache.Flush()
			c.main.debug.Printf("reloaded %v", cfgPath)
		}
		r.render(cfg)
	}

	c.main.debug.Printf("stopped watching %v", srcPath)
	return nil
}

// watchRenderer renders the watched file.
// Failures are reported but don't stop the watch.
type watchRenderer struct {
	main   *mainCmd
	output *outputFlags
	path   string
	cache  *highlight.Cache
}

func (r *watchRenderer) render(cfg *highlight.Config) {
	if err := r.tryRender(cfg); err != nil {
		r.main.log.Printf("kotpad: %v", err)
	}
}

func (r *watchRenderer) tryRender(cfg *highlight.Config) error {
	h, err := newHighlighter(cfg, r.output, r.cache)
	if err != nil {
		return errtrace.Wrap(err)
	}

	name, src, err := r.main.readSource([]string{r.path})
	if err != nil {
		return errtrace.Wrap(err)
	}

	err = r.main.writeOutput(r.output.Output, func(w io.Writer) error {
		return renderFile(w, h, r.output, nil, &html.FileInfo{
			Name:     name,
			Language: cfg.Language,
			Source:   src,
		})
	})
	if err != nil {
		return errtrace.Wrap(err)
	}
	r.main.debug.Printf("rendered %v", r.path)
	return nil
}
