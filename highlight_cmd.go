package main

import (
	"context"
	"io"
	"text/template"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/kotpad/kotpad/internal/highlight"
	"github.com/kotpad/kotpad/internal/html"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

// highlightCmd renders a source file.
type highlightCmd struct {
	main *mainCmd

	config      configFlags
	output      outputFlags
	frontmatter string
}

func (c *highlightCmd) Command(opts []ff.Option) *ffcli.Command {
	fset := newFlagSet("kotpad highlight", c.main.Stderr)
	c.config.register(fset)
	c.output.register(fset)
	fset.StringVar(&c.frontmatter, "frontmatter", "", "text/template rendered above HTML output")

	return &ffcli.Command{
		Name:       "highlight",
		ShortUsage: "kotpad highlight [FLAGS] [FILE]",
		ShortHelp:  "render a file as HTML or colored terminal output",
		LongHelp: "Renders FILE, or standard input if FILE is '-' or missing.\n" +
			"HTML output is a complete page unless -embed is given.",
		FlagSet:   fset,
		Options:   opts,
		UsageFunc: ffcli.DefaultUsageFunc,
		Exec:      c.exec,
	}
}

func (c *highlightCmd) exec(_ context.Context, args []string) error {
	cfg, err := c.config.Load()
	if err != nil {
		return errtrace.Wrap(err)
	}

	h, err := newHighlighter(cfg, &c.output, nil)
	if err != nil {
		return errtrace.Wrap(err)
	}

	var frontmatter *template.Template
	if c.frontmatter != "" {
		frontmatter, err = template.New("frontmatter").Parse(c.frontmatter)
		if err != nil {
			return errtrace.Errorf("bad frontmatter template: %w", err)
		}
	}

	name, src, err := c.main.readSource(args)
	if err != nil {
		return errtrace.Wrap(err)
	}

	return c.main.writeOutput(c.output.Output, func(w io.Writer) error {
		return renderFile(w, h, &c.output, frontmatter, &html.FileInfo{
			Name:     name,
			Language: cfg.Language,
			Source:   src,
		})
	})
}

// newHighlighter builds a Highlighter for the given output flags.
func newHighlighter(cfg *highlight.Config, f *outputFlags, cache *highlight.Cache) (*highlight.Highlighter, error) {
	format, err := highlight.ParseFormat(f.Format)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	var style *chroma.Style
	if f.Style != "" {
		var ok bool
		style, ok = styles.Registry[f.Style]
		if !ok {
			return nil, errtrace.Errorf("unknown style %q: valid values are %q", f.Style, styles.Names())
		}
	}

	return &highlight.Highlighter{
		Config:     cfg,
		Style:      style,
		Format:     format,
		UseClasses: f.Classes,
		Cache:      cache,
	}, nil
}

// renderFile renders a file in the format of h.
// HTML output goes through the page renderer.
func renderFile(
	w io.Writer,
	h *highlight.Highlighter,
	f *outputFlags,
	frontmatter *template.Template,
	info *html.FileInfo,
) error {
	if h.Format != highlight.FormatHTML {
		return errtrace.Wrap(h.Render(w, info.Source))
	}

	r := html.Renderer{
		Highlighter: h,
		Embedded:    f.Embed,
		FrontMatter: frontmatter,
	}
	return errtrace.Wrap(r.RenderFile(w, info))
}
