// Package pluginapi defines the contract between the host editor and
// third-party plugins.
//
// A plugin exports one EditorPlugin value. The host reads its menu
// contributions, calls InitializePlugin with an EditorWrapper bound to the
// live editor, and routes user interaction back to the plugin by action code.
//
// # Plugin Shape
//
// Go plugins usually fill in a Definition:
//
//	var Plugin = &pluginapi.Definition{
//	    PluginName: "markdown-tools",
//	    ApplicationMenuItems: []pluginapi.EditorMenuItem{{
//	        Label: "Format",
//	        Actions: []pluginapi.EditorAction{{
//	            Label:       "Bold",
//	            Code:        "fmt.bold",
//	            Accelerator: "CmdOrCtrl+B",
//	        }},
//	    }},
//	    Initialize: func(editor pluginapi.EditorWrapper) error {
//	        editorRef = editor
//	        return nil
//	    },
//	    Actions: func() []string { return []string{"fmt.bold"} },
//	    Do: func(code string) error {
//	        text := editorRef.SelectedText()
//	        return editorRef.ReplaceAllSelectionRanges("**" + text + "**")
//	    },
//	}
//
// # Dispatch
//
// Every EditorAction carries a Code. The host only routes codes advertised by
// AvailableActions. When an action supplies Perform the host calls it with the
// editor; otherwise it calls DoAction with the code.
//
// # Lifecycle
//
// InitializePlugin runs whenever the host initializes an editor, which may be
// as often as every tab switch. Plugins must tolerate repeated calls and keep
// them cheap. No DoAction, Perform or OnContentMount call happens before the
// first InitializePlugin.
//
// # Ranges
//
// Range is a half-open byte interval [Start, End) over the buffer. Ranges
// returned by an EditorWrapper carry the wrapper's ID as Owner; passing a
// range owned by a different wrapper fails with ErrForeignRange. Ranges built
// with NewRange are unbound and accepted by any wrapper.
//
// # Context Menus
//
// ContextMenuItems is reserved. Hosts record it but do not render or bind it
// yet.
package pluginapi
