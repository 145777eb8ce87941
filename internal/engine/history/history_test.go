package history

import (
	"errors"
	"testing"

	"github.com/dshills/keyplug/internal/engine/buffer"
	"github.com/dshills/keyplug/internal/engine/cursor"
)

// edit applies one batch and records it the way the editor does.
func edit(t *testing.T, h *History, buf *buffer.Buffer, cs *cursor.CursorSet, name string, edits ...buffer.Edit) {
	t.Helper()
	before := cs.All()
	batch, err := Apply(buf, edits)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	after := make([]cursor.Selection, len(batch))
	for i, op := range batch {
		after[i] = cursor.NewCursorSelection(op.After.End)
	}
	cs.SetAll(after)
	h.Record(name, batch, before, after)
}

func replace(start, end buffer.ByteOffset, text string) buffer.Edit {
	return buffer.NewEdit(buffer.NewRange(start, end), text)
}

func TestApply(t *testing.T) {
	buf := buffer.NewBufferFromString("foo bar baz")
	batch, err := Apply(buf, []buffer.Edit{replace(8, 11, "QUUX"), replace(0, 3, "X")})
	if err != nil {
		t.Fatal(err)
	}
	if got := buf.Text(); got != "X bar QUUX" {
		t.Fatalf("Text() = %q", got)
	}

	want := Batch{
		{Before: buffer.NewRange(8, 11), After: buffer.NewRange(6, 10), OldText: "baz", NewText: "QUUX"},
		{Before: buffer.NewRange(0, 3), After: buffer.NewRange(0, 1), OldText: "foo", NewText: "X"},
	}
	for i := range want {
		if batch[i] != want[i] {
			t.Errorf("batch[%d] = %+v, want %+v", i, batch[i], want[i])
		}
	}

	if _, err := Apply(buf, []buffer.Edit{replace(5, 99, "")}); err == nil {
		t.Error("Apply() with out of range edit should fail")
	}
}

func TestUndoRedo(t *testing.T) {
	buf := buffer.NewBufferFromString("hello")
	cs := cursor.NewCursorSet(cursor.NewSelection(0, 5))
	h := NewHistory(0)

	edit(t, h, buf, cs, "upper", replace(0, 5, "HELLO"))
	edit(t, h, buf, cs, "append", replace(5, 5, " world"))

	if h.UndoCount() != 2 || h.CanRedo() {
		t.Fatalf("UndoCount() = %d, CanRedo() = %v", h.UndoCount(), h.CanRedo())
	}

	info, err := h.Undo(buf, cs)
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "append" || buf.Text() != "HELLO" {
		t.Errorf("after undo: %q, %q", info.Name, buf.Text())
	}
	if got := cs.Primary(); got != cursor.NewCursorSelection(5) {
		t.Errorf("cursor after undo = %v", got)
	}

	if _, err := h.Undo(buf, cs); err != nil {
		t.Fatal(err)
	}
	if buf.Text() != "hello" {
		t.Errorf("after second undo: %q", buf.Text())
	}
	if got := cs.Primary(); got != cursor.NewSelection(0, 5) {
		t.Errorf("selection after undo = %v, want the original selection", got)
	}
	if _, err := h.Undo(buf, cs); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() on empty stack error = %v", err)
	}

	if _, err := h.Redo(buf, cs); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Redo(buf, cs); err != nil {
		t.Fatal(err)
	}
	if buf.Text() != "HELLO world" {
		t.Errorf("after redo: %q", buf.Text())
	}
	if got := cs.Primary(); got != cursor.NewCursorSelection(11) {
		t.Errorf("cursor after redo = %v", got)
	}
	if _, err := h.Redo(buf, cs); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() on empty stack error = %v", err)
	}
}

func TestRecordClearsRedo(t *testing.T) {
	buf := buffer.NewBufferFromString("abc")
	cs := cursor.NewCursorSet(cursor.NewCursorSelection(0))
	h := NewHistory(10)

	edit(t, h, buf, cs, "one", replace(0, 1, "A"))
	if _, err := h.Undo(buf, cs); err != nil {
		t.Fatal(err)
	}
	if !h.CanRedo() {
		t.Fatal("CanRedo() = false after undo")
	}
	edit(t, h, buf, cs, "two", replace(2, 3, "C"))
	if h.CanRedo() {
		t.Error("a new edit should clear the redo stack")
	}
}

func TestMultiSelectionBatch(t *testing.T) {
	buf := buffer.NewBufferFromString("a-b-c")
	cs := cursor.NewCursorSetFromSlice([]cursor.Selection{
		cursor.NewSelection(0, 1),
		cursor.NewSelection(2, 3),
		cursor.NewSelection(4, 5),
	})
	h := NewHistory(10)

	edit(t, h, buf, cs, "wrap", replace(0, 1, "[a]"), replace(2, 3, "[b]"), replace(4, 5, "[c]"))
	if buf.Text() != "[a]-[b]-[c]" {
		t.Fatalf("Text() = %q", buf.Text())
	}

	if _, err := h.Undo(buf, cs); err != nil {
		t.Fatal(err)
	}
	if buf.Text() != "a-b-c" {
		t.Errorf("after undo: %q", buf.Text())
	}
	if cs.Count() != 3 {
		t.Errorf("selections after undo = %d, want 3", cs.Count())
	}
}

func TestTransaction(t *testing.T) {
	buf := buffer.NewBufferFromString("x")
	cs := cursor.NewCursorSet(cursor.NewCursorSelection(0))
	h := NewHistory(10)

	err := h.Transaction("fmt.bold", func() error {
		edit(t, h, buf, cs, "", replace(0, 0, "**"))
		edit(t, h, buf, cs, "", replace(3, 3, "**"))
		return h.Transaction("inner", func() error {
			edit(t, h, buf, cs, "", replace(5, 5, "!"))
			return nil
		})
	})
	if err != nil {
		t.Fatal(err)
	}
	if buf.Text() != "**x**!" {
		t.Fatalf("Text() = %q", buf.Text())
	}
	if h.UndoCount() != 1 || h.IsGrouping() {
		t.Fatalf("UndoCount() = %d, IsGrouping() = %v", h.UndoCount(), h.IsGrouping())
	}
	if info, ok := h.PeekUndo(); !ok || info.Name != "fmt.bold" || info.Batches != 3 {
		t.Errorf("PeekUndo() = %+v, %v", info, ok)
	}

	if _, err := h.Undo(buf, cs); err != nil {
		t.Fatal(err)
	}
	if buf.Text() != "x" {
		t.Errorf("after undo: %q", buf.Text())
	}
}

func TestTransactionKeepsEditsOnError(t *testing.T) {
	buf := buffer.NewBufferFromString("x")
	cs := cursor.NewCursorSet(cursor.NewCursorSelection(0))
	h := NewHistory(10)
	boom := errors.New("boom")

	err := h.Transaction("half", func() error {
		edit(t, h, buf, cs, "", replace(0, 1, "y"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Transaction() error = %v", err)
	}
	if h.UndoCount() != 1 {
		t.Fatalf("UndoCount() = %d, want the partial edit recorded", h.UndoCount())
	}

	if err := h.Transaction("empty", func() error { return nil }); err != nil {
		t.Fatal(err)
	}
	if h.UndoCount() != 1 {
		t.Errorf("an empty group should not push an entry")
	}
}

func TestNoopAndLimit(t *testing.T) {
	buf := buffer.NewBufferFromString("abc")
	cs := cursor.NewCursorSet(cursor.NewCursorSelection(0))
	h := NewHistory(2)

	edit(t, h, buf, cs, "noop", replace(0, 1, "a"))
	if h.CanUndo() {
		t.Fatal("a no-op batch should not be recorded")
	}

	edit(t, h, buf, cs, "1", replace(0, 1, "1"))
	edit(t, h, buf, cs, "2", replace(1, 2, "2"))
	edit(t, h, buf, cs, "3", replace(2, 3, "3"))
	if h.UndoCount() != 2 || h.MaxEntries() != 2 {
		t.Fatalf("UndoCount() = %d, want 2", h.UndoCount())
	}
	if info, _ := h.PeekUndo(); info.Name != "3" {
		t.Errorf("PeekUndo() = %q", info.Name)
	}

	h.Clear()
	if h.CanUndo() || h.CanRedo() {
		t.Error("Clear() should empty both stacks")
	}
}
