package highlight

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds each search for the next match of a pattern.
// A pattern that times out on any match contributes no spans.
//
// Lexers read MatchTimeout when they're built by [NewLexer].
var MatchTimeout = 2 * time.Second

const _numberExpr = `\b[0-9]+(?:\.[0-9]+)?\b`

// layer is one highlighting pass: a pattern and the class it paints.
type layer struct {
	class Class
	re    *regexp2.Regexp
}

// Lexer is a compiled [Config].
// It's safe for concurrent use.
type Lexer struct {
	layers []layer
}

// NewLexer compiles the patterns for the given configuration.
// A nil configuration uses [DefaultConfig].
func NewLexer(cfg *Config) *Lexer {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var layers []layer
	if re := keywordPattern(cfg.Keywords); re != nil {
		layers = append(layers, layer{Keyword, re})
	}
	if cfg.Comment != "" {
		re := newPattern(regexp2.Escape(cfg.Comment)+`.*$`, regexp2.Multiline)
		layers = append(layers, layer{Comment, re})
	}
	for _, delim := range cfg.StringDelimiters {
		if re := stringPattern(delim); re != nil {
			layers = append(layers, layer{String, re})
		}
	}
	layers = append(layers, layer{Number, newPattern(_numberExpr, regexp2.None)})

	return &Lexer{layers: layers}
}

// Highlight returns the layered spans for src under the given configuration.
// It's shorthand for NewLexer(cfg).Lex(src).
func Highlight(src string, cfg *Config) []Span {
	return NewLexer(cfg).Lex(src)
}

// Lex returns the layered spans for src.
//
// The first span is a base span covering all of src.
// It's followed by keyword, comment, string, and number spans,
// in that order, each group sorted by offset.
// Spans from different groups may overlap;
// use [Composite] to resolve them.
func (l *Lexer) Lex(src string) []Span {
	if len(src) == 0 {
		return nil
	}

	spans := []Span{{Start: 0, End: len(src), Class: Base}}
	offsets := newByteOffsets(src)
	for _, ly := range l.layers {
		spans = ly.appendMatches(spans, src, offsets)
	}
	return spans
}

func (ly *layer) appendMatches(spans []Span, src string, offsets byteOffsets) []Span {
	start := len(spans)
	m, err := ly.re.FindStringMatch(src)
	for m != nil && err == nil {
		if m.Length > 0 {
			spans = append(spans, Span{
				Start: offsets.at(m.Index),
				End:   offsets.at(m.Index + m.Length),
				Class: ly.class,
			})
		}
		m, err = ly.re.FindNextMatch(m)
	}
	if err != nil {
		// Timed out. Drop partial results for this layer.
		return spans[:start]
	}
	return spans
}

// keywordPattern builds a whole-word alternation of keywords.
// It returns nil if there are no keywords.
func keywordPattern(keywords []string) *regexp2.Regexp {
	words := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			words = append(words, regexp2.Escape(kw))
		}
	}
	if len(words) == 0 {
		return nil
	}
	slices.Sort(words)
	words = slices.Compact(words)

	return newPattern(`\b(?:`+strings.Join(words, "|")+`)\b`, regexp2.None)
}

// stringPattern matches a delimiter, then any run of characters
// that are not the delimiter or a backslash escape,
// and then the same delimiter again.
//
// The negated character class is built from the individual characters
// of the delimiter, so a multi-character delimiter like `"""`
// only matches correctly if it doesn't contain its own characters.
func stringPattern(delim string) *regexp2.Regexp {
	if delim == "" {
		return nil
	}

	lit := regexp2.Escape(delim)
	var class strings.Builder
	for _, r := range delim {
		if r == '-' {
			class.WriteString(`\-`)
		} else {
			class.WriteString(regexp2.Escape(string(r)))
		}
	}
	return newPattern(lit+`(?:[^`+class.String()+`\\]|\\.)*`+lit, regexp2.None)
}

func newPattern(expr string, opts regexp2.RegexOptions) *regexp2.Regexp {
	re := regexp2.MustCompile(expr, opts)
	re.MatchTimeout = MatchTimeout
	return re
}

// byteOffsets converts rune indexes reported by regexp2
// into byte offsets in the source string.
type byteOffsets []int // nil if the source is ASCII

func newByteOffsets(src string) byteOffsets {
	n := utf8.RuneCountInString(src)
	if n == len(src) {
		return nil
	}

	offsets := make(byteOffsets, 0, n+1)
	for i := range src {
		offsets = append(offsets, i)
	}
	return append(offsets, len(src))
}

func (o byteOffsets) at(runeIdx int) int {
	if o == nil {
		return runeIdx
	}
	return o[runeIdx]
}
