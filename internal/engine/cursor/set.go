package cursor

import (
	"cmp"
	"slices"
)

// CursorSet is the ordered list of selections of one editor. Selections are
// sorted by start and never overlap. The first one is the primary
// selection. A set is never empty. It is not safe for concurrent use.
type CursorSet struct {
	sels []Selection
}

// NewCursorSet returns a set holding only initial.
func NewCursorSet(initial Selection) *CursorSet {
	return &CursorSet{sels: []Selection{initial}}
}

// NewCursorSetFromSlice returns a set holding sels after sorting and
// merging them.
func NewCursorSetFromSlice(sels []Selection) *CursorSet {
	cs := &CursorSet{}
	cs.SetAll(sels)
	return cs
}

func (cs *CursorSet) Primary() Selection { return cs.sels[0] }
func (cs *CursorSet) Count() int         { return len(cs.sels) }
func (cs *CursorSet) IsMulti() bool      { return len(cs.sels) > 1 }

// All returns a copy of the selections.
func (cs *CursorSet) All() []Selection {
	return slices.Clone(cs.sels)
}

// Ranges returns the span of every selection, in order.
func (cs *CursorSet) Ranges() []Range {
	out := make([]Range, len(cs.sels))
	for i, s := range cs.sels {
		out[i] = s.Range()
	}
	return out
}

// Add inserts sel, merging it into any selection it overlaps.
func (cs *CursorSet) Add(sel Selection) {
	cs.SetAll(append(cs.All(), sel))
}

// SetAll replaces the selections. With no selections the set falls back to
// a caret at offset 0.
func (cs *CursorSet) SetAll(sels []Selection) {
	if len(sels) == 0 {
		cs.sels = []Selection{NewCursorSelection(0)}
		return
	}

	sorted := slices.Clone(sels)
	slices.SortStableFunc(sorted, func(a, b Selection) int {
		if c := cmp.Compare(a.Start(), b.Start()); c != 0 {
			return c
		}
		return cmp.Compare(b.End(), a.End())
	})

	merged := sorted[:1]
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !last.absorbs(s) {
			merged = append(merged, s)
			continue
		}
		*last = NewSelection(last.Start(), max(last.End(), s.End()))
	}
	cs.sels = merged
}

// Transform moves every selection through edit.
func (cs *CursorSet) Transform(edit Edit) {
	moved := make([]Selection, len(cs.sels))
	for i, s := range cs.sels {
		moved[i] = TransformSelection(s, edit)
	}
	cs.SetAll(moved)
}
