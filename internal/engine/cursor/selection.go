package cursor

import (
	"fmt"

	"github.com/dshills/keyplug/internal/engine/buffer"
)

type (
	ByteOffset = buffer.ByteOffset
	Range      = buffer.Range
	Edit       = buffer.Edit
)

// Selection is a span of text with a direction. Anchor is the end that
// stays put while the user extends the selection, Head the end that moves.
// A selection whose ends coincide is a caret.
type Selection struct {
	Anchor ByteOffset
	Head   ByteOffset
}

// NewSelection returns the selection from anchor to head.
func NewSelection(anchor, head ByteOffset) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// NewCursorSelection returns a caret at offset.
func NewCursorSelection(offset ByteOffset) Selection {
	return Selection{Anchor: offset, Head: offset}
}

func (s Selection) IsEmpty() bool    { return s.Anchor == s.Head }
func (s Selection) IsBackward() bool { return s.Head < s.Anchor }

// Start is the lower of the two ends.
func (s Selection) Start() ByteOffset { return min(s.Anchor, s.Head) }

// End is the higher of the two ends.
func (s Selection) End() ByteOffset { return max(s.Anchor, s.Head) }

// Range drops the direction of s.
func (s Selection) Range() Range {
	return buffer.NewRange(s.Start(), s.End())
}

func (s Selection) String() string {
	switch {
	case s.IsEmpty():
		return fmt.Sprintf("caret %d", s.Head)
	case s.IsBackward():
		return fmt.Sprintf("%d<-%d", s.Head, s.Anchor)
	default:
		return fmt.Sprintf("%d->%d", s.Anchor, s.Head)
	}
}

// absorbs reports whether s and next, with next starting no earlier than
// s, should become one selection. Selections that only touch stay apart,
// except a caret sitting strictly inside a span or on an equal caret.
func (s Selection) absorbs(next Selection) bool {
	if next.IsEmpty() {
		return s.Range().Contains(next.Head) || s.Range() == next.Range()
	}
	return next.Start() < s.End()
}

// TransformOffset moves offset so it keeps pointing at the same text after
// edit is applied. An edit ending exactly at offset, such as an insertion
// there, shifts offset past the new text. An offset inside the replaced
// span lands at the end of the new text.
func TransformOffset(offset ByteOffset, edit Edit) ByteOffset {
	switch {
	case edit.Range.End <= offset:
		return offset + edit.Delta()
	case edit.Range.Start >= offset:
		return offset
	default:
		return edit.Range.Start + ByteOffset(len(edit.NewText))
	}
}

// TransformSelection moves both ends of sel through edit.
func TransformSelection(sel Selection, edit Edit) Selection {
	return NewSelection(TransformOffset(sel.Anchor, edit), TransformOffset(sel.Head, edit))
}
