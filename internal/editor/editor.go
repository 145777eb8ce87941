package editor

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/keyplug/internal/engine/buffer"
	"github.com/dshills/keyplug/internal/engine/cursor"
	"github.com/dshills/keyplug/internal/engine/history"
	"github.com/dshills/keyplug/pluginapi"
)

// Editor is a live editor instance exposed to plugins.
// All methods are safe for concurrent use.
type Editor struct {
	mu sync.Mutex

	id       uuid.UUID
	buf      *buffer.Buffer
	cursors  *cursor.CursorSet
	history  *history.History
	language string
}

// Option configures an Editor.
type Option func(*Editor)

// WithLanguage sets the language mode.
func WithLanguage(language string) Option {
	return func(e *Editor) {
		e.language = language
	}
}

// WithID sets the editor identity. Used to restore a session.
func WithID(id uuid.UUID) Option {
	return func(e *Editor) {
		e.id = id
	}
}

// WithLineEnding sets the buffer's line ending style.
func WithLineEnding(le buffer.LineEnding) Option {
	return func(e *Editor) {
		e.buf = buffer.NewBufferFromString(e.buf.Text(), buffer.WithLineEnding(le))
	}
}

// WithHistoryLimit bounds the number of undo entries.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) {
		e.history = history.NewHistory(n)
	}
}

// New creates an editor holding text with a single cursor at offset 0.
func New(text string, opts ...Option) *Editor {
	e := &Editor{
		id:       uuid.New(),
		buf:      buffer.NewBufferFromString(text),
		cursors:  cursor.NewCursorSet(cursor.NewCursorSelection(0)),
		history:  history.NewHistory(history.DefaultMaxEntries),
		language: "plaintext",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the editor identity. Ranges issued by this editor carry it.
func (e *Editor) ID() uuid.UUID {
	return e.id
}

// Buffer returns the underlying buffer.
func (e *Editor) Buffer() *buffer.Buffer {
	return e.buf
}

// SetLanguage changes the language mode.
func (e *Editor) SetLanguage(language string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.language = language
}

// SetSelections replaces the cursor set. At least one range is required.
func (e *Editor) SetSelections(ranges ...pluginapi.Range) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(ranges) == 0 {
		return pluginapi.ErrNoSelection
	}
	sels := make([]cursor.Selection, len(ranges))
	for i, r := range ranges {
		if err := e.checkRange(r); err != nil {
			return err
		}
		sels[i] = cursor.NewSelection(r.Start, r.End)
	}
	e.cursors.SetAll(sels)
	return nil
}

// SingleSelectionRange implements pluginapi.EditorWrapper.
func (e *Editor) SingleSelectionRange() (pluginapi.Range, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cursors.IsMulti() {
		return pluginapi.Range{}, pluginapi.ErrMultipleSelections
	}
	return e.bind(e.cursors.Primary().Range()), nil
}

// AllSelectionRanges implements pluginapi.EditorWrapper.
func (e *Editor) AllSelectionRanges() []pluginapi.Range {
	e.mu.Lock()
	defer e.mu.Unlock()

	ranges := e.cursors.Ranges()
	out := make([]pluginapi.Range, len(ranges))
	for i, r := range ranges {
		out[i] = e.bind(r)
	}
	return out
}

// ReplaceSelection implements pluginapi.EditorWrapper.
func (e *Editor) ReplaceSelection(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cursors.IsMulti() {
		return pluginapi.ErrMultipleSelections
	}
	return e.replaceSelections(text)
}

// ReplaceAllSelectionRanges implements pluginapi.EditorWrapper.
func (e *Editor) ReplaceAllSelectionRanges(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.replaceSelections(text)
}

// replaceSelections writes text into every selection in a single revision.
// Caller must hold e.mu.
func (e *Editor) replaceSelections(text string) error {
	ranges := e.cursors.Ranges()
	edits := make([]buffer.Edit, len(ranges))
	for i, r := range ranges {
		edits[i] = buffer.NewEdit(r, text)
	}

	before := e.cursors.All()
	batch, err := history.Apply(e.buf, edits)
	if err != nil {
		return fmt.Errorf("replace selections: %w", err)
	}

	sels := make([]cursor.Selection, len(batch))
	for i, op := range batch {
		sels[i] = cursor.NewCursorSelection(op.After.End)
	}
	e.cursors.SetAll(sels)
	e.history.Record("replace selections", batch, before, e.cursors.All())
	return nil
}

// ReplaceRange implements pluginapi.EditorWrapper.
func (e *Editor) ReplaceRange(r pluginapi.Range, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRange(r); err != nil {
		return err
	}

	target := buffer.NewRange(r.Start, r.End)
	before := e.cursors.All()
	batch, err := history.Apply(e.buf, []buffer.Edit{buffer.NewEdit(target, text)})
	if err != nil {
		return fmt.Errorf("replace range %s: %w", r, err)
	}

	// Line endings may have been normalized; transform with the stored text.
	e.cursors.Transform(buffer.NewEdit(target, batch[0].NewText))
	e.history.Record("replace range", batch, before, e.cursors.All())
	return nil
}

// Undo reverts the last edit, or the last transaction, and restores the
// selections from before it.
func (e *Editor) Undo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.history.Undo(e.buf, e.cursors)
	return err
}

// Redo reapplies the last undone edit.
func (e *Editor) Redo() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.history.Redo(e.buf, e.cursors)
	return err
}

// CanUndo returns true if there is an edit to undo.
func (e *Editor) CanUndo() bool {
	return e.history.CanUndo()
}

// CanRedo returns true if there is an edit to redo.
func (e *Editor) CanRedo() bool {
	return e.history.CanRedo()
}

// Transaction runs fn and records its edits as one undo entry.
// fn may call any editor method.
func (e *Editor) Transaction(name string, fn func() error) error {
	return e.history.Transaction(name, fn)
}

// SelectedText implements pluginapi.EditorWrapper.
func (e *Editor) SelectedText() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var sb strings.Builder
	for _, r := range e.cursors.Ranges() {
		text, err := e.buf.TextRange(r.Start, r.End)
		if err != nil {
			continue
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// Language implements pluginapi.EditorWrapper.
func (e *Editor) Language() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.language
}

// TextRange implements pluginapi.EditorWrapper.
func (e *Editor) TextRange(r pluginapi.Range) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkRange(r); err != nil {
		return "", err
	}
	return e.buf.TextRange(r.Start, r.End)
}

// Value implements pluginapi.EditorWrapper.
func (e *Editor) Value() string {
	return e.buf.Text()
}

// checkRange validates ownership and bounds. Caller must hold e.mu.
func (e *Editor) checkRange(r pluginapi.Range) error {
	if r.IsBound() && r.Owner != e.id {
		return fmt.Errorf("%w: %s", pluginapi.ErrForeignRange, r)
	}
	if !r.IsValid() || r.End > e.buf.Len() {
		return fmt.Errorf("%w: %s", pluginapi.ErrInvalidRange, r)
	}
	return nil
}

func (e *Editor) bind(r buffer.Range) pluginapi.Range {
	return pluginapi.NewRange(r.Start, r.End).Bind(e.id)
}

// languageByExt maps file extensions to language mode identifiers.
var languageByExt = map[string]string{
	".go":   "go",
	".md":   "markdown",
	".lua":  "lua",
	".js":   "javascript",
	".ts":   "typescript",
	".py":   "python",
	".json": "json",
	".toml": "toml",
	".html": "html",
	".css":  "css",
	".sh":   "shell",
	".txt":  "plaintext",
}

// LanguageForPath returns the language mode for a file path.
// Unknown extensions map to "plaintext".
func LanguageForPath(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "plaintext"
}

var _ pluginapi.EditorWrapper = (*Editor)(nil)
