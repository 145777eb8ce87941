package buffer

import (
	"errors"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrRangeInvalid is returned for ranges that are inverted or leave the
	// buffer.
	ErrRangeInvalid = errors.New("invalid range")
	// ErrEditsOverlap is returned when two edits of one batch touch the same
	// bytes.
	ErrEditsOverlap = errors.New("edits overlap")
)

// Option configures a Buffer.
type Option func(*Buffer)

// WithLineEnding stores the text with le newlines. Text passed to the
// buffer later is converted as well.
func WithLineEnding(le LineEnding) Option {
	return func(b *Buffer) {
		b.eol = le
	}
}

// Buffer is the text of one document. It is safe for concurrent use.
type Buffer struct {
	mu   sync.RWMutex
	text string
	rev  RevisionID
	eol  LineEnding
}

// NewBuffer returns an empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	return NewBufferFromString("", opts...)
}

// NewBufferFromString returns a buffer holding s with its newlines
// converted to the configured line ending.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := &Buffer{rev: nextRevision()}
	for _, opt := range opts {
		opt(b)
	}
	b.text = b.eol.normalize(s)
	return b
}

// Text returns the whole document.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// TextRange returns the bytes in [start, end).
func (b *Buffer) TextRange(start, end ByteOffset) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.inBounds(Range{Start: start, End: end}) {
		return "", ErrRangeInvalid
	}
	return b.text[start:end], nil
}

// Len returns the document length in bytes.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ByteOffset(len(b.text))
}

// RevisionID returns the ID of the current state.
func (b *Buffer) RevisionID() RevisionID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rev
}

// LineEnding returns the newline convention of the stored text.
func (b *Buffer) LineEnding() LineEnding {
	return b.eol
}

// Replace puts text where [start, end) is and returns the offset just past
// the inserted text.
func (b *Buffer) Replace(start, end ByteOffset, text string) (ByteOffset, error) {
	placed, err := b.ApplyEdits([]Edit{NewEdit(NewRange(start, end), text)})
	if err != nil {
		return 0, err
	}
	return placed[0].End, nil
}

// ApplyEdits applies a batch of edits as one revision. Every range is
// interpreted against the text before the batch, and ranges must not
// overlap. Either all edits are applied or none is.
//
// The returned slice holds, in the order the edits were given, the range
// each replacement text occupies in the new text.
func (b *Buffer) ApplyEdits(edits []Edit) ([]Range, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	order := make([]int, len(edits))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(x, y int) int {
		return int(edits[x].Range.Start - edits[y].Range.Start)
	})

	var prev Range
	for n, i := range order {
		r := edits[i].Range
		if !b.inBounds(r) {
			return nil, ErrRangeInvalid
		}
		if n > 0 && prev.End > r.Start {
			return nil, ErrEditsOverlap
		}
		prev = r
	}

	placed := make([]Range, len(edits))
	var out strings.Builder
	out.Grow(len(b.text))
	var copied ByteOffset
	for _, i := range order {
		e := edits[i]
		out.WriteString(b.text[copied:e.Range.Start])
		start := ByteOffset(out.Len())
		out.WriteString(b.eol.normalize(e.NewText))
		placed[i] = NewRange(start, ByteOffset(out.Len()))
		copied = e.Range.End
	}
	out.WriteString(b.text[copied:])

	b.text = out.String()
	b.rev = nextRevision()
	return placed, nil
}

func (b *Buffer) inBounds(r Range) bool {
	return 0 <= r.Start && r.Start <= r.End && r.End <= ByteOffset(len(b.text))
}
