package html

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	ttemplate "text/template"

	"github.com/andybalholm/cascadia"
	"github.com/kotpad/kotpad/internal/highlight"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const _source = "fun main() {\n\tval x = 42 // answer\n\tprintln(\"x\")\n}\n"

func render(t *testing.T, r *Renderer, info *FileInfo) (string, *html.Node) {
	t.Helper()

	var buff bytes.Buffer
	require.NoError(t, r.RenderFile(&buff, info))

	doc, err := html.Parse(bytes.NewReader(buff.Bytes()))
	require.NoError(t, err, "invalid HTML:\n%v", buff.String())
	return buff.String(), doc
}

func TestRenderer_RenderFile(t *testing.T) {
	t.Parallel()

	r := Renderer{
		Highlighter: &highlight.Highlighter{UseClasses: true},
	}
	out, doc := render(t, &r, &FileInfo{
		Name:     "Main.kt",
		Language: "kotlin",
		Source:   _source,
	})

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"), "got:\n%v", out)

	title := cascadia.MustCompile("title").MatchFirst(doc)
	require.NotNil(t, title)
	assert.Equal(t, "Main.kt", allText(title))

	h1 := cascadia.MustCompile("#file-name").MatchFirst(doc)
	require.NotNil(t, h1)
	assert.Equal(t, "Main.kt", allText(h1))

	style := cascadia.MustCompile("head > style").MatchFirst(doc)
	require.NotNil(t, style)
	css := allText(style)
	assert.Contains(t, css, ".kotpad-file pre {", "page CSS")
	assert.Contains(t, css, ".chroma .k {", "code CSS")

	file := cascadia.MustCompile("div.kotpad-file").MatchFirst(doc)
	require.NotNil(t, file)
	assert.Equal(t, "kotlin", attr(file, "data-language"))

	pre := cascadia.MustCompile("div.kotpad-file > pre.chroma").MatchFirst(doc)
	require.NotNil(t, pre)
	assert.Equal(t, _source, allText(pre))

	var keywords []string
	for _, n := range cascadia.QueryAll(pre, cascadia.MustCompile("span.k")) {
		n := n
		keywords = append(keywords, allText(n))
	}
	assert.Equal(t, []string{"fun", "val"}, keywords)

	assert.Equal(t, map[string]string{
		"stat-lines":   "4",
		"stat-keyword": "2",
		"stat-comment": "1",
		"stat-string":  "1",
		"stat-number":  "1",
	}, stats(doc))
}

func TestRenderer_RenderFile_escapesName(t *testing.T) {
	t.Parallel()

	r := Renderer{Highlighter: new(highlight.Highlighter)}
	out, doc := render(t, &r, &FileInfo{
		Name:   "<script>.kt",
		Source: "val",
	})
	assert.NotContains(t, out, "<script>")

	title := cascadia.MustCompile("title").MatchFirst(doc)
	require.NotNil(t, title)
	assert.Equal(t, "<script>.kt", allText(title))
}

func TestRenderer_RenderFile_inlineStyles(t *testing.T) {
	t.Parallel()

	r := Renderer{Highlighter: new(highlight.Highlighter)}
	_, doc := render(t, &r, &FileInfo{Name: "a.kt", Source: "val x = 1"})

	style := cascadia.MustCompile("head > style").MatchFirst(doc)
	require.NotNil(t, style)
	assert.NotContains(t, allText(style), ".chroma")

	pre := cascadia.MustCompile("div.kotpad-file > pre").MatchFirst(doc)
	require.NotNil(t, pre)
	assert.NotEmpty(t, attr(pre, "style"))

	// Without a language there's no subtitle or data attribute.
	assert.Nil(t, cascadia.MustCompile("header .language").MatchFirst(doc))
	file := cascadia.MustCompile("div.kotpad-file").MatchFirst(doc)
	require.NotNil(t, file)
	assert.Empty(t, attr(file, "data-language"))
}

func TestRenderer_RenderFile_embedded(t *testing.T) {
	t.Parallel()

	r := Renderer{
		Highlighter: &highlight.Highlighter{UseClasses: true},
		Embedded:    true,
	}
	out, doc := render(t, &r, &FileInfo{Name: "Main.kt", Source: _source})

	assert.True(t, strings.HasPrefix(out, `<div class="kotpad-file">`), "got:\n%v", out)
	assert.NotContains(t, out, "<html")
	assert.NotContains(t, out, "<style>")
	assert.Nil(t, cascadia.MustCompile("title").MatchFirst(doc))
	assert.NotNil(t, cascadia.MustCompile("pre.chroma").MatchFirst(doc))
}

func TestRenderer_RenderFile_frontmatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc string
		tmpl string
		want string
	}{
		{
			desc: "empty",
			tmpl: "{{/* nothing */}}",
			want: "",
		},
		{
			desc: "fields",
			tmpl: "---\ntitle: {{ .Name }}\nlanguage: {{ .Language }}\nlines: {{ .Lines }}\n---",
			want: "---\ntitle: Main.kt\nlanguage: kotlin\nlines: 4\n---\n\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			r := Renderer{
				Highlighter: new(highlight.Highlighter),
				Embedded:    true,
				FrontMatter: ttemplate.Must(ttemplate.New("").Parse(tt.tmpl)),
			}
			out, _ := render(t, &r, &FileInfo{
				Name:     "Main.kt",
				Language: "kotlin",
				Source:   _source,
			})

			assert.True(t, strings.HasPrefix(out, tt.want+`<div class="kotpad-file"`),
				"got:\n%v", out)
		})
	}
}

func TestRenderer_RenderFile_errors(t *testing.T) {
	t.Parallel()

	giveErr := errors.New("great sadness")

	tests := []struct {
		desc string
		give failingHighlighter
	}{
		{desc: "runs", give: failingHighlighter{runs: giveErr}},
		{desc: "render", give: failingHighlighter{render: giveErr}},
		{desc: "css", give: failingHighlighter{css: giveErr}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.desc, func(t *testing.T) {
			t.Parallel()

			r := Renderer{Highlighter: &tt.give}
			err := r.RenderFile(io.Discard, &FileInfo{Source: "val"})
			assert.ErrorIs(t, err, giveErr)
		})
	}
}

func TestCountLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"\n\n", 2},
	}

	for _, tt := range tests {
		tt := tt
		assert.Equal(t, tt.want, CountLines(tt.give), "CountLines(%q)", tt.give)
	}
}

func TestCountClasses(t *testing.T) {
	t.Parallel()

	src := "val s = \"a\" + 1 + 2"
	runs := highlight.Composite(src, highlight.Highlight(src, nil))

	assert.Equal(t, []ClassCount{
		{Class: highlight.Keyword, Count: 1},
		{Class: highlight.String, Count: 1},
		{Class: highlight.Number, Count: 2},
	}, CountClasses(runs))
	assert.Empty(t, CountClasses(nil))
}

type failingHighlighter struct {
	runs, render, css error
}

func (h *failingHighlighter) Runs(src string) ([]highlight.Run, error) {
	if h.runs != nil {
		return nil, h.runs
	}
	return []highlight.Run{{Start: 0, End: len(src), Class: highlight.Base}}, nil
}

func (h *failingHighlighter) RenderRuns(w io.Writer, src string, _ []highlight.Run) error {
	if h.render != nil {
		return h.render
	}
	_, err := io.WriteString(w, "<pre>"+src+"</pre>")
	return err
}

func (h *failingHighlighter) WriteCSS(io.Writer) error {
	return h.css
}

func stats(doc *html.Node) map[string]string {
	got := make(map[string]string)
	for _, dd := range cascadia.QueryAll(doc, cascadia.MustCompile("dl.stats > dd")) {
		dd := dd
		got[attr(dd, "id")] = allText(dd)
	}
	return got
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		a := a
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func allText(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}
