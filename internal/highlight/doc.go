// Package highlight colorizes source text
// with a small set of regular expressions.
//
// A [Config] describes one language:
// its keywords, its line comment marker, its string delimiters,
// and the color of each token [Class].
// [Highlight] turns source text into layered [Span]s,
// one layer per class, which may overlap.
// [Composite] flattens those layers into non-overlapping [Run]s,
// with later layers painted over earlier ones,
// and a [Highlighter] renders runs with Chroma formatters.
package highlight
