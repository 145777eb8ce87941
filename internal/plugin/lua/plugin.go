package lua

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyplug/pluginapi"
)

// Plugin table field names.
const (
	fieldName             = "name"
	fieldContextMenu      = "contextMenuItems"
	fieldApplicationMenu  = "applicationMenuItems"
	fieldToolbarMenu      = "toolbarMenuItems"
	fieldInitialize       = "initializePlugin"
	fieldAvailableActions = "getAvailableActions"
	fieldDoAction         = "doAction"

	fieldLabel       = "label"
	fieldActions     = "actions"
	fieldCode        = "code"
	fieldPerform     = "perform"
	fieldAccelerator = "accelerator"
	fieldIcon        = "icon"
	fieldOnMount     = "onContentMount"
	fieldContent     = "getToolbarWindowContent"
)

// Plugin is an EditorPlugin backed by a Lua script.
//
// The script either returns the plugin table or assigns it to the global
// plugin. Hook functions are called without a self argument:
//
//	local editor
//	return {
//	  name = "Upper",
//	  applicationMenuItems = {
//	    { label = "Case", actions = {
//	      { label = "Upper", code = "case.upper", accelerator = "CmdOrCtrl+U",
//	        perform = function(ed) ed:replaceSelection(ed:getSelectedText():upper()) end },
//	    }},
//	  },
//	  initializePlugin = function(ed) editor = ed end,
//	}
type Plugin struct {
	state *State
	path  string
	log   zerolog.Logger

	name  string
	menus pluginapi.Menus

	initialize lua.LValue
	available  lua.LValue
	doAction   lua.LValue
}

// Load runs the script at path in a new sandboxed state and reads its
// plugin table.
func Load(ctx context.Context, path string, opts ...StateOption) (*Plugin, error) {
	state := NewState(opts...)

	results, err := state.DoFile(ctx, path)
	if err != nil {
		state.Close()
		return nil, err
	}

	var tbl *lua.LTable
	if len(results) > 0 {
		tbl, _ = results[0].(*lua.LTable)
	}
	if tbl == nil {
		tbl, _ = state.GetGlobal("plugin").(*lua.LTable)
	}
	if tbl == nil {
		state.Close()
		return nil, fmt.Errorf("%w: %s", ErrNoPluginTable, path)
	}

	p := &Plugin{state: state, path: path, log: state.Logger()}
	if err := state.Do(func(L *lua.LState) error { return p.parse(tbl) }); err != nil {
		state.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// parse reads the plugin table. Caller must hold the state lock.
func (p *Plugin) parse(tbl *lua.LTable) error {
	var err error
	if p.name, err = optString(tbl, fieldName, "plugin"); err != nil {
		return err
	}
	if p.initialize, err = optFunction(tbl, fieldInitialize, "plugin"); err != nil {
		return err
	}
	if p.available, err = optFunction(tbl, fieldAvailableActions, "plugin"); err != nil {
		return err
	}
	if p.doAction, err = optFunction(tbl, fieldDoAction, "plugin"); err != nil {
		return err
	}

	if p.menus.ContextMenuItems, err = p.parseMenu(tbl, fieldContextMenu); err != nil {
		return err
	}
	if p.menus.ApplicationMenuItems, err = p.parseMenu(tbl, fieldApplicationMenu); err != nil {
		return err
	}
	p.menus.ToolbarMenuItems, err = p.parseToolbar(tbl)
	return err
}

func (p *Plugin) parseMenu(tbl *lua.LTable, field string) ([]pluginapi.EditorMenuItem, error) {
	list, err := optTable(tbl, field, "plugin")
	if err != nil || list == nil {
		return nil, err
	}

	items := make([]pluginapi.EditorMenuItem, 0, list.Len())
	for i := 1; i <= list.Len(); i++ {
		where := fmt.Sprintf("%s[%d]", field, i)
		raw := list.RawGetInt(i)
		entry, ok := raw.(*lua.LTable)
		if !ok {
			return nil, badField(where, raw.Type(), "table")
		}

		var item pluginapi.EditorMenuItem
		if item.Label, err = optString(entry, fieldLabel, where); err != nil {
			return nil, err
		}
		actions, err := optTable(entry, fieldActions, where)
		if err != nil {
			return nil, err
		}
		if actions != nil {
			for j := 1; j <= actions.Len(); j++ {
				action, err := p.parseAction(actions.RawGetInt(j), fmt.Sprintf("%s.actions[%d]", where, j))
				if err != nil {
					return nil, err
				}
				item.Actions = append(item.Actions, action)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *Plugin) parseAction(lv lua.LValue, where string) (pluginapi.EditorAction, error) {
	var action pluginapi.EditorAction
	tbl, ok := lv.(*lua.LTable)
	if !ok {
		return action, badField(where, lv.Type(), "table")
	}

	var err error
	if action.Label, err = optString(tbl, fieldLabel, where); err != nil {
		return action, err
	}
	if action.Code, err = optString(tbl, fieldCode, where); err != nil {
		return action, err
	}
	if action.Accelerator, err = optString(tbl, fieldAccelerator, where); err != nil {
		return action, err
	}
	perform, err := optFunction(tbl, fieldPerform, where)
	if err != nil {
		return action, err
	}
	if perform != lua.LNil {
		action.Perform = func(editor pluginapi.EditorWrapper) error {
			_, err := p.state.Call(context.Background(), perform, func(L *lua.LState) []lua.LValue {
				return []lua.LValue{p.state.newEditor(L, editor)}
			})
			return err
		}
	}
	return action, nil
}

func (p *Plugin) parseToolbar(tbl *lua.LTable) ([]pluginapi.ToolbarMenuItem, error) {
	list, err := optTable(tbl, fieldToolbarMenu, "plugin")
	if err != nil || list == nil {
		return nil, err
	}

	items := make([]pluginapi.ToolbarMenuItem, 0, list.Len())
	for i := 1; i <= list.Len(); i++ {
		where := fmt.Sprintf("%s[%d]", fieldToolbarMenu, i)
		raw := list.RawGetInt(i)
		entry, ok := raw.(*lua.LTable)
		if !ok {
			return nil, badField(where, raw.Type(), "table")
		}

		var item pluginapi.ToolbarMenuItem
		if item.Label, err = optString(entry, fieldLabel, where); err != nil {
			return nil, err
		}
		if item.Icon, err = optString(entry, fieldIcon, where); err != nil {
			return nil, err
		}

		mount, err := optFunction(entry, fieldOnMount, where)
		if err != nil {
			return nil, err
		}
		if mount != lua.LNil {
			item.OnContentMount = func(root pluginapi.ContentRoot) error {
				_, err := p.state.Call(context.Background(), mount, func(L *lua.LState) []lua.LValue {
					return []lua.LValue{p.state.newContent(L, root)}
				})
				return err
			}
		}

		content, err := optFunction(entry, fieldContent, where)
		if err != nil {
			return nil, err
		}
		if content != lua.LNil {
			label := item.Label
			item.ToolbarWindowContent = func() string {
				results, err := p.state.Call(context.Background(), content, nil)
				if err != nil {
					p.log.Error().Err(err).Str("toolbar", label).Msg("window content failed")
					return ""
				}
				if len(results) == 0 {
					return ""
				}
				return lua.LVAsString(results[0])
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Name implements pluginapi.EditorPlugin.
func (p *Plugin) Name() string {
	return p.name
}

// Menus implements pluginapi.EditorPlugin.
func (p *Plugin) Menus() pluginapi.Menus {
	return p.menus
}

// InitializePlugin implements pluginapi.EditorPlugin.
func (p *Plugin) InitializePlugin(editor pluginapi.EditorWrapper) error {
	if p.initialize == lua.LNil {
		return nil
	}
	_, err := p.state.Call(context.Background(), p.initialize, func(L *lua.LState) []lua.LValue {
		return []lua.LValue{p.state.newEditor(L, editor)}
	})
	return err
}

// AvailableActions implements pluginapi.EditorPlugin.
// Without a getAvailableActions function the application menu codes are
// advertised.
func (p *Plugin) AvailableActions() []string {
	if p.available == lua.LNil {
		return p.menus.Codes()
	}

	results, err := p.state.Call(context.Background(), p.available, nil)
	if err != nil {
		p.log.Error().Err(err).Str("plugin", p.name).Msg("getAvailableActions failed")
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	var codes []string
	err = p.state.Do(func(L *lua.LState) error {
		codes, err = NewBridge(L).StringList(results[0])
		return err
	})
	if err != nil {
		p.log.Error().Err(err).Str("plugin", p.name).Msg("getAvailableActions returned a bad list")
		return nil
	}
	return codes
}

// DoAction implements pluginapi.EditorPlugin.
func (p *Plugin) DoAction(code string) error {
	if p.doAction == lua.LNil {
		return fmt.Errorf("%w: %s", pluginapi.ErrUnknownAction, code)
	}
	_, err := p.state.Call(context.Background(), p.doAction, func(*lua.LState) []lua.LValue {
		return []lua.LValue{lua.LString(code)}
	})
	return err
}

// Path returns the script path.
func (p *Plugin) Path() string {
	return p.path
}

// State returns the Lua state of the plugin.
func (p *Plugin) State() *State {
	return p.state
}

// Close releases the Lua state.
func (p *Plugin) Close() error {
	return p.state.Close()
}

func optString(tbl *lua.LTable, field, where string) (string, error) {
	switch v := tbl.RawGetString(field).(type) {
	case *lua.LNilType:
		return "", nil
	case lua.LString:
		return string(v), nil
	default:
		return "", badField(where+"."+field, v.Type(), "string")
	}
}

func optTable(tbl *lua.LTable, field, where string) (*lua.LTable, error) {
	switch v := tbl.RawGetString(field).(type) {
	case *lua.LNilType:
		return nil, nil
	case *lua.LTable:
		return v, nil
	default:
		return nil, badField(where+"."+field, v.Type(), "table")
	}
}

func optFunction(tbl *lua.LTable, field, where string) (lua.LValue, error) {
	switch v := tbl.RawGetString(field).(type) {
	case *lua.LNilType:
		return lua.LNil, nil
	case *lua.LFunction:
		return v, nil
	default:
		return lua.LNil, badField(where+"."+field, v.Type(), "function")
	}
}

var _ pluginapi.EditorPlugin = (*Plugin)(nil)
