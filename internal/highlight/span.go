package highlight

import (
	"fmt"

	chroma "github.com/alecthomas/chroma/v2"
)

// Class is the token class assigned to a region of source text.
type Class string

// Token classes in layering order.
const (
	Base    Class = "base"
	Keyword Class = "keyword"
	Comment Class = "comment"
	String  Class = "string"
	Number  Class = "number"
)

// Classes lists all token classes in the order they're layered.
// Later classes paint over earlier ones.
var Classes = []Class{Base, Keyword, Comment, String, Number}

// Valid reports whether c is a known token class.
func (c Class) Valid() bool {
	_, ok := _classTokenTypes[c]
	return ok
}

// TokenType returns the Chroma token type that c renders as.
func (c Class) TokenType() chroma.TokenType {
	if tt, ok := _classTokenTypes[c]; ok {
		return tt
	}
	return chroma.Text
}

var _classTokenTypes = map[Class]chroma.TokenType{
	Base:    chroma.Text,
	Keyword: chroma.Keyword,
	Comment: chroma.Comment,
	String:  chroma.LiteralString,
	Number:  chroma.LiteralNumber,
}

// Span is a half-open byte range [Start, End) of source text
// tagged with a token class.
//
// Spans produced by [Highlight] may overlap.
type Span struct {
	Start, End int
	Class      Class
}

// Len reports the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

func (s Span) String() string {
	return fmt.Sprintf("%v[%d:%d]", s.Class, s.Start, s.End)
}

// Run is a span produced by [Composite].
// Runs of the same composite never overlap
// and are sorted by offset.
type Run Span

// Len reports the number of bytes covered by the run.
func (r Run) Len() int { return r.End - r.Start }

// Text returns the portion of src covered by the run.
func (r Run) Text(src string) string { return src[r.Start:r.End] }

func (r Run) String() string { return Span(r).String() }
