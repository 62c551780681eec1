// Package html renders highlighted source files as HTML.
package html

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"
	"strings"
	ttemplate "text/template"

	"braces.dev/errtrace"
	"github.com/kotpad/kotpad/internal/highlight"
)

var (
	//go:embed tmpl/page.html
	_pageHTML string

	//go:embed static/main.css
	_mainCSS string

	_pageTmpl = template.Must(template.New("page.html").Parse(_pageHTML))
)

// Highlighter renders source text into HTML.
type Highlighter interface {
	Runs(src string) ([]highlight.Run, error)
	RenderRuns(w io.Writer, src string, runs []highlight.Run) error
	WriteCSS(io.Writer) error
}

var _ Highlighter = (*highlight.Highlighter)(nil)

// Renderer renders source files into HTML.
type Renderer struct {
	// Highlighter renders the code block.
	// It must produce HTML.
	Highlighter Highlighter

	// Whether we're in embedded mode.
	// In this mode, output contains only the highlighted file
	// without a surrounding page or style sheet.
	Embedded bool

	// FrontMatter to include at the top of each file, if any.
	FrontMatter *ttemplate.Template
}

func (r *Renderer) templateName() string {
	if r.Embedded {
		return "Body"
	}
	return "Page"
}

// FileInfo specifies the file that should be rendered.
type FileInfo struct {
	// Name shown as the title of the page.
	Name string

	// Language of the file, if known.
	Language string

	Source string
}

// ClassCount is the number of tokens of a class in a file.
type ClassCount struct {
	Class highlight.Class
	Count int
}

type frontmatterData struct {
	Name     string
	Language string
	Lines    int
}

type pageData struct {
	*FileInfo

	Code    template.HTML
	CSS     template.CSS
	Lines   int
	Classes []ClassCount
}

// RenderFile renders a single source file.
func (r *Renderer) RenderFile(w io.Writer, info *FileInfo) error {
	runs, err := r.Highlighter.Runs(info.Source)
	if err != nil {
		return errtrace.Wrap(err)
	}

	data := pageData{
		FileInfo: info,
		Lines:    CountLines(info.Source),
		Classes:  CountClasses(runs),
	}

	var code bytes.Buffer
	if err := r.Highlighter.RenderRuns(&code, info.Source, runs); err != nil {
		return errtrace.Wrap(err)
	}
	data.Code = template.HTML(code.String())

	if !r.Embedded {
		css := bytes.NewBufferString(_mainCSS)
		css.WriteString("\n")
		if err := r.Highlighter.WriteCSS(css); err != nil {
			return errtrace.Wrap(err)
		}
		data.CSS = template.CSS(css.String())
	}

	err = r.renderFrontmatter(w, frontmatterData{
		Name:     info.Name,
		Language: info.Language,
		Lines:    data.Lines,
	})
	if err != nil {
		return errtrace.Wrap(err)
	}

	return errtrace.Wrap(_pageTmpl.ExecuteTemplate(w, r.templateName(), data))
}

func (r *Renderer) renderFrontmatter(w io.Writer, d frontmatterData) error {
	if r.FrontMatter == nil {
		return nil
	}

	var buff bytes.Buffer
	if err := r.FrontMatter.Execute(&buff, d); err != nil {
		return errtrace.Wrap(err)
	}

	bs := bytes.TrimSpace(buff.Bytes())
	if len(bs) == 0 {
		return nil
	}
	bs = append(bs, '\n', '\n')

	_, err := w.Write(bs)
	return errtrace.Wrap(err)
}

// CountLines reports the number of lines in src.
// A trailing newline does not start a new line.
func CountLines(src string) int {
	if src == "" {
		return 0
	}
	n := strings.Count(src, "\n")
	if !strings.HasSuffix(src, "\n") {
		n++
	}
	return n
}

// CountClasses reports how many runs of each non-base class are in runs,
// in layer order.
// Classes with no runs are omitted.
func CountClasses(runs []highlight.Run) []ClassCount {
	counts := make(map[highlight.Class]int)
	for _, run := range runs {
		counts[run.Class]++
	}

	var out []ClassCount
	for _, c := range highlight.Classes {
		if c == highlight.Base || counts[c] == 0 {
			continue
		}
		out = append(out, ClassCount{Class: c, Count: counts[c]})
	}
	return out
}
