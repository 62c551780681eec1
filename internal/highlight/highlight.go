package highlight

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sync"

	"braces.dev/errtrace"
	chroma "github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
)

// Format is an output format for a [Highlighter].
type Format string

// Supported output formats.
const (
	FormatHTML        Format = "html"
	FormatTerminal256 Format = "terminal256"
	FormatTerminal16m Format = "terminal16m"
	FormatPlain       Format = "plain"
)

// Formats lists all supported output formats.
var Formats = []Format{FormatHTML, FormatTerminal256, FormatTerminal16m, FormatPlain}

// ParseFormat validates the name of an output format.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !slices.Contains(Formats, f) {
		return "", errtrace.Errorf("unknown format %q: valid values are %q", s, Formats)
	}
	return f, nil
}

// Highlighter renders source text in a [Format].
// It's safe for concurrent use once configured.
type Highlighter struct {
	// Config used to find tokens.
	// Defaults to [DefaultConfig].
	Config *Config

	// Style overrides the colors in Config if set.
	Style *chroma.Style

	// Format of the output. Defaults to FormatHTML.
	Format Format

	// UseClasses specifies whether HTML output
	// uses inline 'style' attributes for highlighting,
	// or classes, assuming use of the style sheet from WriteCSS.
	UseClasses bool

	// Cache, if set, memoizes spans across calls.
	Cache *Cache

	once      sync.Once
	lexer     *Lexer
	style     *chroma.Style
	formatter chroma.Formatter
	html      *chromahtml.Formatter // nil unless FormatHTML
	err       error
}

func (h *Highlighter) init() error {
	h.once.Do(func() {
		if h.Config == nil {
			h.Config = DefaultConfig()
		}
		if h.Format == "" {
			h.Format = FormatHTML
		}
		h.lexer = NewLexer(h.Config)

		h.style = h.Style
		if h.style == nil {
			h.style, h.err = NewStyle(h.Config)
			if h.err != nil {
				return
			}
		}

		switch h.Format {
		case FormatHTML:
			h.html = chromahtml.New(
				chromahtml.PreventSurroundingPre(true),
				chromahtml.WithClasses(h.UseClasses),
			)
			h.formatter = h.html
		case FormatPlain:
			h.formatter = formatters.NoOp
		default:
			f, ok := formatters.Registry[string(h.Format)]
			if !ok {
				h.err = errtrace.Errorf("unknown format %q", h.Format)
				return
			}
			h.formatter = f
		}
	})
	return h.err
}

// WriteCSS writes the style classes for this highlighter to writer.
// It's a no-op unless this highlighter renders HTML with classes.
func (h *Highlighter) WriteCSS(w io.Writer) error {
	if err := h.init(); err != nil {
		return err
	}

	if h.html == nil || !h.UseClasses {
		return nil
	}
	return errtrace.Wrap(h.html.WriteCSS(w, h.style))
}

// Highlight renders src and returns the result.
func (h *Highlighter) Highlight(src string) (string, error) {
	var buf bytes.Buffer
	if err := h.Render(&buf, src); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render renders src to w.
func (h *Highlighter) Render(w io.Writer, src string) error {
	runs, err := h.Runs(src)
	if err != nil {
		return err
	}
	return h.RenderRuns(w, src, runs)
}

// Runs tokenizes src and composites the result.
func (h *Highlighter) Runs(src string) ([]Run, error) {
	if err := h.init(); err != nil {
		return nil, err
	}
	return Composite(src, h.spans(src)), nil
}

// RenderRuns renders previously composited runs over src to w.
func (h *Highlighter) RenderRuns(w io.Writer, src string, runs []Run) error {
	if err := h.init(); err != nil {
		return err
	}

	it := chroma.Literator(Tokens(src, runs)...)
	if h.html == nil {
		return errtrace.Wrap(h.formatter.Format(w, h.style, it))
	}

	r := codeRenderer{fmt: h.html, sty: h.style}
	if h.UseClasses {
		fmt.Fprintf(&r, "<pre class=%q>", chroma.StandardTypes[chroma.PreWrapper])
	} else {
		style := chromahtml.StyleEntryToCSS(h.style.Get(chroma.PreWrapper))
		fmt.Fprintf(&r, "<pre style=%q>", style)
	}
	if err := r.fmt.Format(&r, r.sty, it); err != nil {
		return errtrace.Wrap(err)
	}
	r.WriteString("</pre>")

	_, err := r.WriteTo(w)
	return errtrace.Wrap(err)
}

func (h *Highlighter) spans(src string) []Span {
	if h.Cache != nil {
		return h.Cache.Highlight(src, h.Config)
	}
	return h.lexer.Lex(src)
}

type codeRenderer struct {
	bytes.Buffer

	fmt chroma.Formatter
	sty *chroma.Style
}
