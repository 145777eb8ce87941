package history

import (
	"time"

	"github.com/dshills/keyplug/internal/engine/buffer"
	"github.com/dshills/keyplug/internal/engine/cursor"
)

// Operation is one replacement inside a batch.
type Operation struct {
	// Before is the replaced range in the buffer before the batch.
	Before buffer.Range
	// After is the range NewText occupies once the batch is applied.
	After buffer.Range

	OldText string
	NewText string
}

// IsNoop returns true if the operation changes nothing.
func (op Operation) IsNoop() bool {
	return op.OldText == op.NewText
}

// BytesDelta returns the change in buffer length.
func (op Operation) BytesDelta() int {
	return len(op.NewText) - len(op.OldText)
}

// Batch is a set of non-overlapping operations applied atomically, the way
// buffer.ApplyEdits applies them.
type Batch []Operation

// IsNoop returns true if no operation of the batch changes anything.
func (b Batch) IsNoop() bool {
	for _, op := range b {
		if !op.IsNoop() {
			return false
		}
	}
	return true
}

// Apply applies edits to buf and returns the batch that records them.
// NewText holds the text as stored, after line ending normalization.
func Apply(buf *buffer.Buffer, edits []buffer.Edit) (Batch, error) {
	old := make([]string, len(edits))
	for i, e := range edits {
		text, err := buf.TextRange(e.Range.Start, e.Range.End)
		if err != nil {
			return nil, err
		}
		old[i] = text
	}

	results, err := buf.ApplyEdits(edits)
	if err != nil {
		return nil, err
	}

	batch := make(Batch, len(edits))
	for i, r := range results {
		stored, _ := buf.TextRange(r.Start, r.End)
		batch[i] = Operation{
			Before:  edits[i].Range,
			After:   r,
			OldText: old[i],
			NewText: stored,
		}
	}
	return batch, nil
}

// redoEdits returns the edits that apply the batch.
func (b Batch) redoEdits() []buffer.Edit {
	edits := make([]buffer.Edit, len(b))
	for i, op := range b {
		edits[i] = buffer.NewEdit(op.Before, op.NewText)
	}
	return edits
}

// undoEdits returns the edits that revert the batch.
func (b Batch) undoEdits() []buffer.Edit {
	edits := make([]buffer.Edit, len(b))
	for i, op := range b {
		edits[i] = buffer.NewEdit(op.After, op.OldText)
	}
	return edits
}

// Entry is one undo unit.
type Entry struct {
	Name      string
	Batches   []Batch
	Timestamp time.Time

	cursorsBefore []cursor.Selection
	cursorsAfter  []cursor.Selection
}

// EntryInfo describes an entry without exposing its operations.
type EntryInfo struct {
	Name      string
	Batches   int
	Timestamp time.Time
}

func (e *Entry) info() EntryInfo {
	return EntryInfo{Name: e.Name, Batches: len(e.Batches), Timestamp: e.Timestamp}
}
