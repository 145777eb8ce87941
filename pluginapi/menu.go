package pluginapi

// Menus groups the contributions of a plugin. Nil slices mean absent.
type Menus struct {
	// ContextMenuItems is reserved; see Definition.ContextMenuItems.
	ContextMenuItems     []EditorMenuItem
	ApplicationMenuItems []EditorMenuItem
	ToolbarMenuItems     []ToolbarMenuItem
}

// EditorMenuItem is a labeled submenu.
type EditorMenuItem struct {
	// Label is shown as the wrapper menu.
	Label string

	// Actions are placed under the submenu of this label.
	Actions []EditorAction
}

// EditorAction is an invocable menu entry.
type EditorAction struct {
	// Label is the display name.
	Label string

	// Code is the key correlated with AvailableActions and DoAction.
	Code string

	// Perform, when set, is called instead of DoAction.
	Perform func(editor EditorWrapper) error

	// Accelerator is a keyboard shortcut in Electron format,
	// e.g. "CmdOrCtrl+Shift+F", "Ctrl+F", "Alt+R".
	Accelerator string
}

// ToolbarMenuItem is a tool window contribution.
type ToolbarMenuItem struct {
	// Label is the display name.
	Label string

	// Icon is base64 image data, bare or as a data URL such as
	// "data:image/png;base64,...".
	Icon string

	// OnContentMount is called after the tool window content is mounted.
	OnContentMount func(root ContentRoot) error

	// ToolbarWindowContent returns the HTML rendered in the tool window.
	ToolbarWindowContent func() string
}

// Actions returns every action declared by the bindable menus, in menu order.
// Context menu actions are not included.
func (m Menus) Actions() []EditorAction {
	var actions []EditorAction
	for _, item := range m.ApplicationMenuItems {
		actions = append(actions, item.Actions...)
	}
	return actions
}

// Codes returns the distinct codes of Actions, in first-seen order.
func (m Menus) Codes() []string {
	seen := make(map[string]bool)
	var codes []string
	for _, a := range m.Actions() {
		if a.Code == "" || seen[a.Code] {
			continue
		}
		seen[a.Code] = true
		codes = append(codes, a.Code)
	}
	return codes
}

// Toolbar returns the toolbar item with the given label.
func (m Menus) Toolbar(label string) (ToolbarMenuItem, bool) {
	for _, item := range m.ToolbarMenuItems {
		if item.Label == label {
			return item, true
		}
	}
	return ToolbarMenuItem{}, false
}
