// Package lua runs editor plugins written in Lua.
//
// This package wraps the gopher-lua library to provide:
//   - Sandboxed Lua state management
//   - Go-Lua type conversion bridge
//   - Editor and tool window userdata
//   - Execution timeouts and call budgets
//
// # State
//
// The State type manages a Lua runtime with sandboxing:
//
//	state := lua.NewState(
//	    lua.WithExecutionTimeout(2 * time.Second),
//	    lua.WithLogger(log),
//	)
//	defer state.Close()
//
//	if _, err := state.DoFile(ctx, "plugin.lua"); err != nil {
//	    return err
//	}
//
// Every call runs under the state's context. The execution timeout cancels
// the call through gopher-lua's context support and surfaces as
// ErrExecutionTimeout. The instruction limit is a budget of host API calls
// (editor and content root methods) per call; gopher-lua has no VM
// instruction hook.
//
// # Sandbox
//
// The Sandbox restricts Lua code execution by:
//   - Opening only the base, table, string and math libraries
//   - Removing dofile, loadfile, load and loadstring
//   - Limiting require to the open libraries
//   - Sending print output to the host logger
//
// # Plugins
//
// Load turns a script into a pluginapi.EditorPlugin. The plugin table uses
// the contract's field names (name, applicationMenuItems, toolbarMenuItems,
// initializePlugin, getAvailableActions, doAction). The editor passed to
// hooks is userdata with methods named after the EditorWrapper operations:
//
//	ed:getSingleSelectionRange()    -> {from=, to=, owner=}
//	ed:getAllSelectionRanges()      -> { {from=, to=, owner=}, ... }
//	ed:replaceSelection(text)
//	ed:replaceRange(range, text)
//	ed:replaceAllSelectionRanges(text)
//	ed:getSelectedText()
//	ed:getLanguage()
//	ed:getTextRange(range)
//	ed:getValue()
//
// Errors returned by the editor are raised as Lua errors. When a hook fails
// because of one, the returned Go error wraps it, so errors.Is matches
// pluginapi sentinels such as ErrMultipleSelections.
//
// Tool window roots expose label(), markup(), setMarkup(html) and
// on(event, fn). Listener functions receive {name=, target=, data=}.
package lua
