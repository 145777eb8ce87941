package lua

import (
	"fmt"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyplug/pluginapi"
)

// Bridge converts values between Go and one Lua state.
type Bridge struct {
	L *lua.LState
}

func NewBridge(L *lua.LState) *Bridge {
	return &Bridge{L: L}
}

// ToGoValue turns lv into plain Go data: integral numbers become int64,
// sequences []any and other tables map[string]any. A table reached a
// second time, as in a cycle, becomes nil.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	seen := make(map[*lua.LTable]bool)
	var conv func(lua.LValue) any
	conv = func(lv lua.LValue) any {
		switch v := lv.(type) {
		case lua.LBool:
			return bool(v)
		case lua.LNumber:
			if n := int64(v); lua.LNumber(n) == v {
				return n
			}
			return float64(v)
		case lua.LString:
			return string(v)
		case *lua.LUserData:
			return v.Value
		case *lua.LTable:
			if seen[v] {
				return nil
			}
			seen[v] = true
			if isSequence(v) {
				list := make([]any, v.Len())
				for i := range list {
					list[i] = conv(v.RawGetInt(i + 1))
				}
				return list
			}
			fields := make(map[string]any)
			v.ForEach(func(k, fv lua.LValue) {
				fields[k.String()] = conv(fv)
			})
			return fields
		}
		return nil
	}
	return conv(lv)
}

// isSequence reports whether t is a non-empty array with no other keys.
func isSequence(t *lua.LTable) bool {
	n := t.Len()
	if n == 0 {
		return false
	}
	keys := 0
	t.ForEach(func(_, _ lua.LValue) { keys++ })
	return keys == n
}

// ToLuaValue converts a Go value to a Lua value.
// Unsupported types become userdata.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := b.L.NewTable()
		for i, s := range val {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	case map[string]string:
		t := b.L.NewTable()
		for k, s := range val {
			t.RawSetString(k, lua.LString(s))
		}
		return t
	case []any:
		t := b.L.NewTable()
		for i, e := range val {
			t.RawSetInt(i+1, b.ToLuaValue(e))
		}
		return t
	case map[string]any:
		t := b.L.NewTable()
		for k, e := range val {
			t.RawSetString(k, b.ToLuaValue(e))
		}
		return t
	case lua.LValue:
		return val
	}
	ud := b.L.NewUserData()
	ud.Value = v
	return ud
}

// StringList reads a sequence of strings. Non-string entries are an error.
func (b *Bridge) StringList(lv lua.LValue) ([]string, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case *lua.LTable:
		out := make([]string, 0, v.Len())
		for i := 1; i <= v.Len(); i++ {
			s, ok := v.RawGetInt(i).(lua.LString)
			if !ok {
				return nil, fmt.Errorf("entry %d is %s, want string", i, v.RawGetInt(i).Type())
			}
			out = append(out, string(s))
		}
		return out, nil
	}
	return nil, fmt.Errorf("got %s, want table of strings", lv.Type())
}

// RangeToTable converts a range to {from=, to=, owner=}.
func (b *Bridge) RangeToTable(r pluginapi.Range) *lua.LTable {
	t := b.L.NewTable()
	t.RawSetString("from", lua.LNumber(r.Start))
	t.RawSetString("to", lua.LNumber(r.End))
	if r.IsBound() {
		t.RawSetString("owner", lua.LString(r.Owner.String()))
	}
	return t
}

// TableToRange converts {from=, to=, owner=} to a range.
// A missing owner yields an unbound range.
func (b *Bridge) TableToRange(t *lua.LTable) (pluginapi.Range, error) {
	from, err := offsetField(t, "from")
	if err != nil {
		return pluginapi.Range{}, err
	}
	to, err := offsetField(t, "to")
	if err != nil {
		return pluginapi.Range{}, err
	}

	r := pluginapi.NewRange(from, to)
	switch owner := t.RawGetString("owner").(type) {
	case *lua.LNilType:
	case lua.LString:
		id, err := uuid.Parse(string(owner))
		if err != nil {
			return pluginapi.Range{}, fmt.Errorf("%w: owner %q: %v", pluginapi.ErrForeignRange, string(owner), err)
		}
		r = r.Bind(id)
	default:
		return pluginapi.Range{}, fmt.Errorf("%w: owner must be a string", pluginapi.ErrInvalidRange)
	}
	return r, nil
}

// offsetField reads a whole-number byte offset from t[field].
func offsetField(t *lua.LTable, field string) (pluginapi.ByteOffset, error) {
	n, ok := t.RawGetString(field).(lua.LNumber)
	if !ok {
		return 0, fmt.Errorf("%w: missing numeric %s", pluginapi.ErrInvalidRange, field)
	}
	off := pluginapi.ByteOffset(n)
	if lua.LNumber(off) != n {
		return 0, fmt.Errorf("%w: %s = %v is not a whole number", pluginapi.ErrInvalidRange, field, n)
	}
	return off, nil
}
