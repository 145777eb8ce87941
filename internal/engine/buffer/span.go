package buffer

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// ByteOffset is a position in the buffer counted in bytes from the start.
type ByteOffset = int64

// Range is the half-open byte span [Start, End).
type Range struct {
	Start ByteOffset
	End   ByteOffset
}

// NewRange returns the span [start, end).
func NewRange(start, end ByteOffset) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	return fmt.Sprintf("[%d:%d)", r.Start, r.End)
}

// Len is the number of bytes covered by r.
func (r Range) Len() ByteOffset { return r.End - r.Start }

// IsEmpty reports whether r is a caret position rather than a span.
func (r Range) IsEmpty() bool { return r.Start == r.End }

// Contains reports whether offset falls inside r. An empty range contains
// nothing.
func (r Range) Contains(offset ByteOffset) bool {
	return r.Start <= offset && offset < r.End
}

// Edit is a request to put NewText where Range currently is. An empty Range
// inserts, an empty NewText deletes.
type Edit struct {
	Range   Range
	NewText string
}

// NewEdit returns an edit replacing r with text.
func NewEdit(r Range, text string) Edit {
	return Edit{Range: r, NewText: text}
}

// Delta is how much longer the buffer gets when e is applied. It is
// negative for deletions.
func (e Edit) Delta() ByteOffset {
	return ByteOffset(len(e.NewText)) - e.Range.Len()
}

// RevisionID names one state of a buffer. A buffer gets a new ID on every
// successful mutation and IDs are never reused within a process.
type RevisionID uint64

var lastRevision atomic.Uint64

func nextRevision() RevisionID {
	return RevisionID(lastRevision.Add(1))
}

// LineEnding is the newline convention a buffer stores its text in.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // \n
	LineEndingCRLF                   // \r\n
)

func (le LineEnding) String() string {
	if le == LineEndingCRLF {
		return "crlf"
	}
	return "lf"
}

// DetectLineEnding guesses the convention of s from its first newline.
// Text without newlines is LF.
func DetectLineEnding(s string) LineEnding {
	i := strings.IndexByte(s, '\n')
	if i > 0 && s[i-1] == '\r' {
		return LineEndingCRLF
	}
	return LineEndingLF
}

// normalize rewrites every newline in s, whatever its form, to le.
func (le LineEnding) normalize(s string) string {
	if le == LineEndingLF && !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if le == LineEndingCRLF {
		s = strings.ReplaceAll(s, "\n", "\r\n")
	}
	return s
}
