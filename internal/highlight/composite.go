package highlight

import chroma "github.com/alecthomas/chroma/v2"

// Composite flattens layered spans over src into non-overlapping runs.
//
// Spans are painted in order, so a later span wins
// wherever it overlaps an earlier one.
// Offsets not covered by any span are [Base].
// Adjacent runs with the same class are merged.
// Spans extending past either end of src are clipped.
func Composite(src string, spans []Span) []Run {
	if len(src) == 0 {
		return nil
	}

	// One entry per byte, indexing into Classes.
	paint := make([]uint8, len(src))
	for _, s := range spans {
		idx := classIndex(s.Class)
		start, end := max(s.Start, 0), min(s.End, len(src))
		for i := start; i < end; i++ {
			paint[i] = idx
		}
	}

	var runs []Run
	start := 0
	for i := 1; i <= len(paint); i++ {
		if i < len(paint) && paint[i] == paint[start] {
			continue
		}
		runs = append(runs, Run{
			Start: start,
			End:   i,
			Class: Classes[paint[start]],
		})
		start = i
	}
	return runs
}

func classIndex(c Class) uint8 {
	for i, cls := range Classes {
		if cls == c {
			return uint8(i)
		}
	}
	return 0
}

// Tokens converts runs over src into Chroma tokens.
func Tokens(src string, runs []Run) []chroma.Token {
	tokens := make([]chroma.Token, len(runs))
	for i, r := range runs {
		tokens[i] = chroma.Token{
			Type:  r.Class.TokenType(),
			Value: r.Text(src),
		}
	}
	return tokens
}
