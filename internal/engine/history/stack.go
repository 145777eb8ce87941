package history

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dshills/keyplug/internal/engine/buffer"
	"github.com/dshills/keyplug/internal/engine/cursor"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxEntries bounds the undo stack when no limit is given.
const DefaultMaxEntries = 1000

// History manages undo/redo state for a buffer.
type History struct {
	mu sync.Mutex

	undoStack []*Entry
	redoStack []*Entry

	// Grouping state
	depth int
	group *Entry

	maxEntries int
}

// NewHistory creates a new history manager.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{
		maxEntries: maxEntries,
	}
}

// Record adds a batch that was just applied to the buffer. before and
// after are the selections around the batch. No-op batches are ignored.
// Clears the redo stack.
func (h *History) Record(name string, batch Batch, before, after []cursor.Selection) {
	if len(batch) == 0 || batch.IsNoop() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.redoStack = nil

	if h.group != nil {
		if len(h.group.Batches) == 0 {
			h.group.cursorsBefore = cloneSelections(before)
		}
		h.group.Batches = append(h.group.Batches, batch)
		h.group.cursorsAfter = cloneSelections(after)
		return
	}

	h.pushLocked(&Entry{
		Name:          name,
		Batches:       []Batch{batch},
		Timestamp:     time.Now(),
		cursorsBefore: cloneSelections(before),
		cursorsAfter:  cloneSelections(after),
	})
}

// pushLocked adds an entry without acquiring the lock.
func (h *History) pushLocked(e *Entry) {
	h.undoStack = append(h.undoStack, e)

	if len(h.undoStack) > h.maxEntries {
		excess := len(h.undoStack) - h.maxEntries
		h.undoStack = h.undoStack[excess:]
	}
}

// Undo reverts the last entry on buf and restores the selections it was
// recorded with.
func (h *History) Undo(buf *buffer.Buffer, cursors *cursor.CursorSet) (EntryInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return EntryInfo{}, ErrNothingToUndo
	}
	entry := h.undoStack[len(h.undoStack)-1]

	for i := len(entry.Batches) - 1; i >= 0; i-- {
		if _, err := buf.ApplyEdits(entry.Batches[i].undoEdits()); err != nil {
			h.reapply(buf, entry.Batches[i+1:])
			return EntryInfo{}, fmt.Errorf("undo %q: %w", entry.Name, err)
		}
	}

	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, entry)
	cursors.SetAll(entry.cursorsBefore)
	return entry.info(), nil
}

// Redo reapplies the last undone entry.
func (h *History) Redo(buf *buffer.Buffer, cursors *cursor.CursorSet) (EntryInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return EntryInfo{}, ErrNothingToRedo
	}
	entry := h.redoStack[len(h.redoStack)-1]

	for i, batch := range entry.Batches {
		if _, err := buf.ApplyEdits(batch.redoEdits()); err != nil {
			h.revert(buf, entry.Batches[:i])
			return EntryInfo{}, fmt.Errorf("redo %q: %w", entry.Name, err)
		}
	}

	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, entry)
	cursors.SetAll(entry.cursorsAfter)
	return entry.info(), nil
}

// reapply restores batches reverted by a failed undo.
func (h *History) reapply(buf *buffer.Buffer, batches []Batch) {
	for _, b := range batches {
		buf.ApplyEdits(b.redoEdits())
	}
}

// revert rolls back batches applied by a failed redo.
func (h *History) revert(buf *buffer.Buffer, batches []Batch) {
	for i := len(batches) - 1; i >= 0; i-- {
		buf.ApplyEdits(batches[i].undoEdits())
	}
}

// CanUndo returns true if undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoCount returns the number of undo entries available.
func (h *History) UndoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack)
}

// RedoCount returns the number of redo entries available.
func (h *History) RedoCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack)
}

// PeekUndo returns info about the next undo entry without removing it.
func (h *History) PeekUndo() (EntryInfo, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return EntryInfo{}, false
	}
	return h.undoStack[len(h.undoStack)-1].info(), true
}

// Clear removes all undo/redo history. An open group is closed empty.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.undoStack = nil
	h.redoStack = nil
	h.depth = 0
	h.group = nil
}

// MaxEntries returns the maximum number of undo entries.
func (h *History) MaxEntries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxEntries
}

func cloneSelections(sels []cursor.Selection) []cursor.Selection {
	out := make([]cursor.Selection, len(sels))
	copy(out, sels)
	return out
}
