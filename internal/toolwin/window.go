package toolwin

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dshills/keyplug/pluginapi"
)

// Window errors.
var (
	ErrNoContent = errors.New("toolbar item has no window content")
	ErrClosed    = errors.New("tool window closed")
	ErrNoTarget  = errors.New("event target not found")
)

// Window is the mounted content of one toolbar item.
// It implements pluginapi.ContentRoot.
type Window struct {
	mu sync.RWMutex

	label     string
	icon      string
	markup    string
	listeners map[string][]func(pluginapi.Event)
	closed    bool
}

// New creates an empty window for label.
func New(label string) *Window {
	return &Window{
		label:     label,
		listeners: make(map[string][]func(pluginapi.Event)),
	}
}

// Mount creates a window for item, fills it with the item's content and runs
// its OnContentMount hook. The window is returned even when the hook fails so
// the caller can still display the content.
func Mount(item pluginapi.ToolbarMenuItem) (*Window, error) {
	if item.ToolbarWindowContent == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoContent, item.Label)
	}

	w := New(item.Label)
	w.icon = item.Icon
	if err := w.SetMarkup(item.ToolbarWindowContent()); err != nil {
		return nil, fmt.Errorf("mount %q: %w", item.Label, err)
	}

	if item.OnContentMount != nil {
		if err := item.OnContentMount(w); err != nil {
			return w, fmt.Errorf("mount %q: %w", item.Label, err)
		}
	}
	return w, nil
}

// Label implements pluginapi.ContentRoot.
func (w *Window) Label() string {
	return w.label
}

// Icon returns the icon of the toolbar item.
func (w *Window) Icon() string {
	return w.icon
}

// Markup implements pluginapi.ContentRoot.
func (w *Window) Markup() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.markup
}

// SetMarkup implements pluginapi.ContentRoot.
func (w *Window) SetMarkup(markup string) error {
	if err := Validate(markup); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.markup = markup
	return nil
}

// Listen implements pluginapi.ContentRoot.
func (w *Window) Listen(event string, fn func(pluginapi.Event)) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.listeners[event] = append(w.listeners[event], fn)
}

// Emit delivers an event to the listeners registered for name and returns
// how many were called. A non-empty target must name an element id present
// in the current markup.
func (w *Window) Emit(name, target string, data map[string]string) (int, error) {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return 0, ErrClosed
	}
	markup := w.markup
	fns := slices.Clone(w.listeners[name])
	w.mu.RUnlock()

	if target != "" {
		ids, err := ElementIDs(markup)
		if err != nil {
			return 0, err
		}
		if !slices.Contains(ids, target) {
			return 0, fmt.Errorf("%w: #%s", ErrNoTarget, target)
		}
	}

	ev := pluginapi.Event{Name: name, Target: target, Data: data}
	for _, fn := range fns {
		fn(ev)
	}
	return len(fns), nil
}

// Text renders the current markup as plain text.
func (w *Window) Text() (string, error) {
	return RenderText(w.Markup())
}

// Close detaches all listeners. Later SetMarkup and Emit calls fail.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.listeners = nil
}

var _ pluginapi.ContentRoot = (*Window)(nil)
