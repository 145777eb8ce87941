// Package editor provides the reference pluginapi.EditorWrapper: a buffer,
// a cursor set and a language mode bound together under one identity.
//
// Ranges returned by an Editor are bound to its ID. Every replacement
// collapses the affected selections to a cursor after the inserted text and
// shifts the remaining selections by the edit delta.
//
// Every replacement is recorded for Undo and Redo. Edits made inside
// Transaction undo as one step; the plugin manager runs each dispatched
// action in a transaction named after its code.
package editor
