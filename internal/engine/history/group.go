package history

import "time"

// BeginGroup starts a group. Batches recorded until the matching EndGroup
// form a single undo entry. Groups nest; the outermost name is kept.
func (h *History) BeginGroup(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.depth++
	if h.depth == 1 {
		h.group = &Entry{Name: name}
	}
}

// EndGroup closes the innermost group. Closing the outermost group pushes
// the combined entry, unless nothing was recorded.
func (h *History) EndGroup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.depth == 0 {
		return
	}
	h.depth--
	if h.depth > 0 {
		return
	}

	group := h.group
	h.group = nil
	if len(group.Batches) == 0 {
		return
	}
	group.Timestamp = time.Now()
	h.pushLocked(group)
}

// IsGrouping returns true if a group is open.
func (h *History) IsGrouping() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.depth > 0
}

// Transaction runs fn inside a group. Edits fn made before failing are kept
// in the group so the history stays in step with the buffer.
func (h *History) Transaction(name string, fn func() error) error {
	h.BeginGroup(name)
	defer h.EndGroup()
	return fn()
}
