package pluginapi

// EditorWrapper is the capability the host hands to plugins for inspecting
// and altering editor state. Implementations are owned by the host; plugins
// may retain a reference between InitializePlugin and later hook calls.
type EditorWrapper interface {
	// SingleSelectionRange returns the selection range of a single-cursor
	// editor. Returns ErrMultipleSelections in multi-cursor mode.
	SingleSelectionRange() (Range, error)

	// AllSelectionRanges returns every selection range in cursor order.
	AllSelectionRanges() []Range

	// ReplaceSelection replaces the single active selection with text.
	// Returns ErrMultipleSelections in multi-cursor mode.
	ReplaceSelection(text string) error

	// ReplaceRange replaces the content of r with text.
	ReplaceRange(r Range, text string) error

	// ReplaceAllSelectionRanges replaces the content of each selection range
	// with text. Works for both single-cursor and multi-cursor editors.
	ReplaceAllSelectionRanges(text string) error

	// SelectedText returns the selected text. In multi-cursor mode the
	// selections are concatenated in cursor order.
	SelectedText() string

	// Language returns the language mode of the editor.
	Language() string

	// TextRange returns the text covered by r without modifying the buffer.
	TextRange(r Range) (string, error)

	// Value returns the current content of the editor.
	Value() string
}
