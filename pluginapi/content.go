package pluginapi

// Event is delivered to listeners registered on a ContentRoot.
type Event struct {
	// Name is the event name, e.g. "click" or "input".
	Name string

	// Target is the id attribute of the element the event originated from.
	Target string

	// Data carries event-specific values such as an input's value.
	Data map[string]string
}

// ContentRoot is the isolated root a tool window is mounted into.
// It is handed to ToolbarMenuItem.OnContentMount and is valid until the
// tool window is closed.
type ContentRoot interface {
	// Label returns the label of the toolbar item that owns the root.
	Label() string

	// Markup returns the current HTML content of the root.
	Markup() string

	// SetMarkup replaces the content of the root.
	SetMarkup(markup string) error

	// Listen registers fn for events with the given name inside the root.
	Listen(event string, fn func(Event))
}
