// Package history provides undo/redo for the reference editor.
//
// Every change the editor makes goes through buffer.ApplyEdits as one batch
// of non-overlapping replacements. The editor records each batch together
// with the selections before and after it:
//
//	h := history.NewHistory(1000)
//	h.Record("replace", batch, before, after)
//
//	// Undo/redo
//	info, err := h.Undo(buf, cursors)
//	info, err = h.Redo(buf, cursors)
//
// # Grouping
//
// Batches recorded inside a group undo together:
//
//	err := h.Transaction("fmt.bold", func() error {
//	    // ... several edits ...
//	    return nil
//	})
//
// A new recording clears the redo stack. The undo stack drops its oldest
// entries beyond the configured maximum.
package history
