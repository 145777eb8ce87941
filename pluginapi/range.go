package pluginapi

import (
	"fmt"

	"github.com/google/uuid"
)

// ByteOffset is a byte position in the editor buffer.
type ByteOffset = int64

// Range is a byte range in the buffer.
// Start is inclusive, End is exclusive: [Start, End).
type Range struct {
	Start ByteOffset
	End   ByteOffset

	// Owner identifies the EditorWrapper that issued the range.
	// uuid.Nil marks an unbound range.
	Owner uuid.UUID
}

// NewRange creates an unbound range.
func NewRange(start, end ByteOffset) Range {
	return Range{Start: start, End: end}
}

// Bind returns a copy of the range owned by the given wrapper ID.
func (r Range) Bind(owner uuid.UUID) Range {
	r.Owner = owner
	return r
}

// IsBound returns true if the range was issued by a wrapper.
func (r Range) IsBound() bool {
	return r.Owner != uuid.Nil
}

// Len returns the length of the range in bytes.
func (r Range) Len() ByteOffset {
	return r.End - r.Start
}

// IsEmpty returns true if the range has zero length.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsValid returns true if Start <= End and Start is not negative.
func (r Range) IsValid() bool {
	return r.Start >= 0 && r.Start <= r.End
}

// Contains returns true if the offset lies within the range.
func (r Range) Contains(offset ByteOffset) bool {
	return offset >= r.Start && offset < r.End
}

// Overlaps returns true if the two ranges share at least one byte.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// SameSpan returns true if both ranges cover the same offsets,
// regardless of owner.
func (r Range) SameSpan(other Range) bool {
	return r.Start == other.Start && r.End == other.End
}

// Equal returns true if offsets and owner match.
func (r Range) Equal(other Range) bool {
	return r.SameSpan(other) && r.Owner == other.Owner
}

// Compare orders ranges by Start, then End.
// Returns -1 if r < other, 0 if the spans are equal, 1 if r > other.
func (r Range) Compare(other Range) int {
	switch {
	case r.Start < other.Start:
		return -1
	case r.Start > other.Start:
		return 1
	case r.End < other.End:
		return -1
	case r.End > other.End:
		return 1
	}
	return 0
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d:%d)", r.Start, r.End)
}
