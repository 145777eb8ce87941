package lua

import (
	"context"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyplug/pluginapi"
)

// Userdata type names.
const (
	editorTypeName  = "keyplug.editor"
	contentTypeName = "keyplug.content"
)

// installEditorType registers the editor metatable.
func (s *State) installEditorType() {
	mt := s.L.NewTypeMetatable(editorTypeName)
	s.L.SetField(mt, "__index", s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"getSingleSelectionRange": s.editorFunc(func(L *lua.LState, b *Bridge, w pluginapi.EditorWrapper) (int, error) {
			r, err := w.SingleSelectionRange()
			if err != nil {
				return 0, err
			}
			L.Push(b.RangeToTable(r))
			return 1, nil
		}),
		"getAllSelectionRanges": s.editorFunc(func(L *lua.LState, b *Bridge, w pluginapi.EditorWrapper) (int, error) {
			t := L.NewTable()
			for i, r := range w.AllSelectionRanges() {
				t.RawSetInt(i+1, b.RangeToTable(r))
			}
			L.Push(t)
			return 1, nil
		}),
		"replaceSelection": s.editorFunc(func(L *lua.LState, _ *Bridge, w pluginapi.EditorWrapper) (int, error) {
			return 0, w.ReplaceSelection(L.CheckString(2))
		}),
		"replaceRange": s.editorFunc(func(L *lua.LState, b *Bridge, w pluginapi.EditorWrapper) (int, error) {
			r, err := b.TableToRange(L.CheckTable(2))
			if err != nil {
				return 0, err
			}
			return 0, w.ReplaceRange(r, L.CheckString(3))
		}),
		"replaceAllSelectionRanges": s.editorFunc(func(L *lua.LState, _ *Bridge, w pluginapi.EditorWrapper) (int, error) {
			return 0, w.ReplaceAllSelectionRanges(L.CheckString(2))
		}),
		"getSelectedText": s.editorFunc(func(L *lua.LState, _ *Bridge, w pluginapi.EditorWrapper) (int, error) {
			L.Push(lua.LString(w.SelectedText()))
			return 1, nil
		}),
		"getLanguage": s.editorFunc(func(L *lua.LState, _ *Bridge, w pluginapi.EditorWrapper) (int, error) {
			L.Push(lua.LString(w.Language()))
			return 1, nil
		}),
		"getTextRange": s.editorFunc(func(L *lua.LState, b *Bridge, w pluginapi.EditorWrapper) (int, error) {
			r, err := b.TableToRange(L.CheckTable(2))
			if err != nil {
				return 0, err
			}
			text, err := w.TextRange(r)
			if err != nil {
				return 0, err
			}
			L.Push(lua.LString(text))
			return 1, nil
		}),
		"getValue": s.editorFunc(func(L *lua.LState, _ *Bridge, w pluginapi.EditorWrapper) (int, error) {
			L.Push(lua.LString(w.Value()))
			return 1, nil
		}),
	}))
}

// editorFunc adapts an editor method. Errors are raised as Lua errors.
func (s *State) editorFunc(fn func(L *lua.LState, b *Bridge, w pluginapi.EditorWrapper) (int, error)) lua.LGFunction {
	return func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		w, ok := ud.Value.(pluginapi.EditorWrapper)
		if !ok {
			L.ArgError(1, "editor expected")
			return 0
		}
		s.sandbox.Charge(L)
		n, err := fn(L, NewBridge(L), w)
		if err != nil {
			s.raise(L, err)
			return 0
		}
		return n
	}
}

// newEditor wraps w as editor userdata. Caller must hold s.mu.
func (s *State) newEditor(L *lua.LState, w pluginapi.EditorWrapper) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = w
	L.SetMetatable(ud, L.GetTypeMetatable(editorTypeName))
	return ud
}

// installContentType registers the content root metatable.
func (s *State) installContentType() {
	mt := s.L.NewTypeMetatable(contentTypeName)
	s.L.SetField(mt, "__index", s.L.SetFuncs(s.L.NewTable(), map[string]lua.LGFunction{
		"label": s.contentFunc(func(L *lua.LState, root pluginapi.ContentRoot) error {
			L.Push(lua.LString(root.Label()))
			return nil
		}),
		"markup": s.contentFunc(func(L *lua.LState, root pluginapi.ContentRoot) error {
			L.Push(lua.LString(root.Markup()))
			return nil
		}),
		"setMarkup": s.contentFunc(func(L *lua.LState, root pluginapi.ContentRoot) error {
			return root.SetMarkup(L.CheckString(2))
		}),
		"on": s.contentFunc(func(L *lua.LState, root pluginapi.ContentRoot) error {
			event := L.CheckString(2)
			fn := L.CheckFunction(3)
			root.Listen(event, func(ev pluginapi.Event) {
				_, err := s.Call(context.Background(), fn, func(L *lua.LState) []lua.LValue {
					return []lua.LValue{eventTable(L, ev)}
				})
				if err != nil {
					s.log.Error().Err(err).Str("event", ev.Name).Str("target", ev.Target).Msg("content listener failed")
				}
			})
			return nil
		}),
	}))
}

// contentFunc adapts a content root method. Methods pushing a value return
// it on the stack; the count is derived from the stack height.
func (s *State) contentFunc(fn func(L *lua.LState, root pluginapi.ContentRoot) error) lua.LGFunction {
	return func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		root, ok := ud.Value.(pluginapi.ContentRoot)
		if !ok {
			L.ArgError(1, "content root expected")
			return 0
		}
		s.sandbox.Charge(L)
		top := L.GetTop()
		if err := fn(L, root); err != nil {
			s.raise(L, err)
			return 0
		}
		return L.GetTop() - top
	}
}

// newContent wraps root as content userdata. Caller must hold s.mu.
func (s *State) newContent(L *lua.LState, root pluginapi.ContentRoot) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = root
	L.SetMetatable(ud, L.GetTypeMetatable(contentTypeName))
	return ud
}

func eventTable(L *lua.LState, ev pluginapi.Event) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(ev.Name))
	t.RawSetString("target", lua.LString(ev.Target))
	t.RawSetString("data", NewBridge(L).ToLuaValue(ev.Data))
	return t
}
