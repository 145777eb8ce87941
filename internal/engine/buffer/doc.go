// Package buffer holds the text of the reference editor.
//
// A Buffer is a string guarded by a read/write mutex. All positions are
// byte offsets and all spans are half-open Ranges. Mutations go through
// ApplyEdits, which takes a batch of non-overlapping edits expressed against
// the text before the batch, so several selections can be replaced in one
// step:
//
//	buf := buffer.NewBufferFromString("one two")
//	placed, err := buf.ApplyEdits([]buffer.Edit{
//	    buffer.NewEdit(buffer.NewRange(0, 3), "1"),
//	    buffer.NewEdit(buffer.NewRange(4, 7), "2"),
//	})
//	// buf.Text() == "1 2", placed == [[0:1) [2:3)]
//
// Newlines are stored in one convention, LF unless WithLineEnding says
// otherwise, and incoming text is converted to it.
package buffer
