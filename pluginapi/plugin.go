package pluginapi

import "fmt"

// EditorPlugin is the shape every plugin module exports.
type EditorPlugin interface {
	// Name is the display name of the plugin. It is shown under the
	// installed plugins list and as the plugin's top-level menu.
	Name() string

	// Menus returns the menu and toolbar contributions of the plugin.
	Menus() Menus

	// InitializePlugin is called whenever an editor is initialized
	// (for example on every tab change). The call frequency depends on the
	// user, so plugins must avoid expensive re-initialization.
	InitializePlugin(editor EditorWrapper) error

	// AvailableActions returns every action code this plugin listens to.
	// The host sends these codes to DoAction when they are triggered.
	AvailableActions() []string

	// DoAction is called when the user triggers one of the plugin's
	// actions via menu click or keyboard shortcut.
	DoAction(code string) error
}

// Definition is a plain-data EditorPlugin. Nil hooks are treated as no-ops.
type Definition struct {
	PluginName string

	// ContextMenuItems is reserved for the editor's right-click menu.
	// Hosts record it but do not bind it yet.
	ContextMenuItems []EditorMenuItem

	// ApplicationMenuItems are shown under the plugin's name in the
	// plugins menu.
	ApplicationMenuItems []EditorMenuItem

	// ToolbarMenuItems are tool windows shown in the side bar.
	ToolbarMenuItems []ToolbarMenuItem

	Initialize func(editor EditorWrapper) error

	// Actions lists advertised codes. When nil, the codes declared in
	// ApplicationMenuItems are advertised.
	Actions func() []string

	Do func(code string) error
}

// Name implements EditorPlugin.
func (d *Definition) Name() string {
	return d.PluginName
}

// Menus implements EditorPlugin.
func (d *Definition) Menus() Menus {
	return Menus{
		ContextMenuItems:     d.ContextMenuItems,
		ApplicationMenuItems: d.ApplicationMenuItems,
		ToolbarMenuItems:     d.ToolbarMenuItems,
	}
}

// InitializePlugin implements EditorPlugin.
func (d *Definition) InitializePlugin(editor EditorWrapper) error {
	if d.Initialize == nil {
		return nil
	}
	return d.Initialize(editor)
}

// AvailableActions implements EditorPlugin.
func (d *Definition) AvailableActions() []string {
	if d.Actions != nil {
		return d.Actions()
	}
	return Menus{ApplicationMenuItems: d.ApplicationMenuItems}.Codes()
}

// DoAction implements EditorPlugin.
func (d *Definition) DoAction(code string) error {
	if d.Do == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAction, code)
	}
	return d.Do(code)
}
