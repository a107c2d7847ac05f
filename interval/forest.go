package interval

import (
	biogo "github.com/biogo/store/interval"
)

// span is the IntInterface implementation stored in the per-chromosome
// trees.  IDs are assigned densely at insertion time; the tree only needs
// them to disambiguate identical ranges.
type span struct {
	start, end int
	id         uintptr
}

func (s span) Overlap(b biogo.IntRange) bool { return s.end > b.Start && s.start < b.End }
func (s span) Range() biogo.IntRange         { return biogo.IntRange{Start: s.start, End: s.end} }
func (s span) ID() uintptr                   { return s.id }

// Forest is a set of 0-based half-open intervals organized as one interval
// tree per chromosome.  Build it with Add calls followed by a single
// Freeze; it is immutable and safe for concurrent queries afterward.
type Forest struct {
	trees  map[string]*biogo.IntTree
	nextID uintptr
	frozen bool
}

// NewForest returns an empty Forest.
func NewForest() *Forest {
	return &Forest{trees: map[string]*biogo.IntTree{}}
}

// Add inserts the half-open interval [start, end) on chrom.  Empty
// intervals are ignored.
//
// REQUIRES: Freeze has not been called.
func (f *Forest) Add(chrom string, start, end int) {
	if f.frozen {
		panic("interval: Add after Freeze")
	}
	if end <= start {
		return
	}
	t := f.trees[chrom]
	if t == nil {
		t = &biogo.IntTree{}
		f.trees[chrom] = t
	}
	f.nextID++
	// Fast insert; ranges are adjusted once in Freeze.
	_ = t.Insert(span{start: start, end: end, id: f.nextID}, true)
}

// Freeze finalizes the forest after the last Add.
func (f *Forest) Freeze() {
	for _, t := range f.trees {
		t.AdjustRanges()
	}
	f.frozen = true
}

// Contains reports whether some single stored interval fully contains
// [start, end) on chrom.  Partial overlap does not count.
func (f *Forest) Contains(chrom string, start, end int) bool {
	t := f.trees[chrom]
	if t == nil {
		return false
	}
	found := false
	t.DoMatching(func(e biogo.IntInterface) bool {
		r := e.Range()
		if r.Start <= start && r.End >= end {
			found = true
			return true
		}
		return false
	}, span{start: start, end: end})
	return found
}

// Overlaps reports whether any stored interval intersects [start, end) on
// chrom.
func (f *Forest) Overlaps(chrom string, start, end int) bool {
	t := f.trees[chrom]
	if t == nil {
		return false
	}
	found := false
	t.DoMatching(func(e biogo.IntInterface) bool {
		found = true
		return true
	}, span{start: start, end: end})
	return found
}

// NumIntervals returns the number of stored intervals across all
// chromosomes.
func (f *Forest) NumIntervals() int {
	n := 0
	for _, t := range f.trees {
		n += t.Len()
	}
	return n
}
