package highlight

import "sort"

// RunIndex is a searchable collection of composited runs.
type RunIndex struct {
	runs   []Run
	starts []int // runs[i].Start
}

// NewRunIndex builds an index over runs produced by [Composite].
func NewRunIndex(runs []Run) *RunIndex {
	starts := make([]int, len(runs))
	for i, r := range runs {
		starts[i] = r.Start
	}
	return &RunIndex{runs: runs, starts: starts}
}

// At returns the run containing the byte offset off.
// It reports false if off is outside all runs.
func (idx *RunIndex) At(off int) (Run, bool) {
	i := idx.find(off)
	if i < 0 {
		return Run{}, false
	}
	return idx.runs[i], true
}

// ClassAt returns the class painted at byte offset off,
// or [Base] if off is outside all runs.
func (idx *RunIndex) ClassAt(off int) Class {
	r, ok := idx.At(off)
	if !ok {
		return Base
	}
	return r.Class
}

// Interval returns the runs overlapping the range [start, end),
// with the first and last runs clipped to that range.
func (idx *RunIndex) Interval(start, end int) []Run {
	if start >= end {
		return nil
	}

	first := idx.find(start)
	if first < 0 {
		// start is before the first run or past the last one.
		first = sort.SearchInts(idx.starts, start)
		if first >= len(idx.runs) {
			return nil
		}
	}

	var runs []Run
	for _, r := range idx.runs[first:] {
		if r.Start >= end {
			break
		}
		r.Start = max(r.Start, start)
		r.End = min(r.End, end)
		runs = append(runs, r)
	}
	return runs
}

// find returns the index of the run containing off, or -1.
func (idx *RunIndex) find(off int) int {
	// First run starting after off, minus one.
	i := sort.SearchInts(idx.starts, off+1) - 1
	if i < 0 || off >= idx.runs[i].End {
		return -1
	}
	return i
}
