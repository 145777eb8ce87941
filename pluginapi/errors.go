package pluginapi

import "errors"

// Errors returned by EditorWrapper implementations and hosts.
var (
	// ErrInvalidRange is returned when a range is inverted or exceeds the buffer.
	ErrInvalidRange = errors.New("invalid range")

	// ErrForeignRange is returned when a range was issued by another wrapper.
	ErrForeignRange = errors.New("range belongs to another editor")

	// ErrNoSelection is returned when the editor has no selection to act on.
	ErrNoSelection = errors.New("no active selection")

	// ErrMultipleSelections is returned by single-cursor operations while the
	// editor is in multi-cursor mode.
	ErrMultipleSelections = errors.New("editor has multiple selections")

	// ErrUnknownAction is returned when a code was never advertised.
	ErrUnknownAction = errors.New("unknown action code")
)
