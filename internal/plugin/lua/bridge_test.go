package lua

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	glua "github.com/yuin/gopher-lua"

	"github.com/dshills/keyplug/pluginapi"
)

func TestBridgeRangeRoundTrip(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	for _, r := range []pluginapi.Range{
		pluginapi.NewRange(3, 9),
		pluginapi.NewRange(0, 0).Bind(uuid.New()),
	} {
		got, err := b.TableToRange(b.RangeToTable(r))
		if err != nil {
			t.Fatalf("TableToRange() error = %v", err)
		}
		if !got.Equal(r) {
			t.Errorf("round trip of %v gave %v", r, got)
		}
	}
}

func TestBridgeTableToRangeErrors(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	missing := L.NewTable()
	missing.RawSetString("from", glua.LNumber(1))
	if _, err := b.TableToRange(missing); !errors.Is(err, pluginapi.ErrInvalidRange) {
		t.Errorf("missing to: error = %v, want ErrInvalidRange", err)
	}

	for _, pair := range [][2]float64{{1.7, 3}, {1, 3.9}} {
		frac := L.NewTable()
		frac.RawSetString("from", glua.LNumber(pair[0]))
		frac.RawSetString("to", glua.LNumber(pair[1]))
		if r, err := b.TableToRange(frac); !errors.Is(err, pluginapi.ErrInvalidRange) {
			t.Errorf("fractional %v: TableToRange() = %v, %v, want ErrInvalidRange", pair, r, err)
		}
	}

	badOwner := L.NewTable()
	badOwner.RawSetString("from", glua.LNumber(1))
	badOwner.RawSetString("to", glua.LNumber(2))
	badOwner.RawSetString("owner", glua.LString("not-a-uuid"))
	if _, err := b.TableToRange(badOwner); !errors.Is(err, pluginapi.ErrForeignRange) {
		t.Errorf("bad owner: error = %v, want ErrForeignRange", err)
	}
}

func TestBridgeStringList(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	got, err := b.StringList(b.ToLuaValue([]string{"a", "b"}))
	if err != nil || len(got) != 2 || got[1] != "b" {
		t.Errorf("StringList() = %v, %v", got, err)
	}

	mixed := L.NewTable()
	mixed.RawSetInt(1, glua.LNumber(1))
	if _, err := b.StringList(mixed); err == nil {
		t.Error("StringList() with number entry should fail")
	}

	if got, err := b.StringList(glua.LNil); err != nil || got != nil {
		t.Errorf("StringList(nil) = %v, %v", got, err)
	}
}

func TestBridgeToGoValue(t *testing.T) {
	L := glua.NewState()
	defer L.Close()
	b := NewBridge(L)

	v := b.ToGoValue(b.ToLuaValue(map[string]any{
		"n":    int64(3),
		"list": []any{"x", true},
	}))
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("ToGoValue() = %T, want map", v)
	}
	if m["n"] != int64(3) {
		t.Errorf("n = %v", m["n"])
	}
	list, ok := m["list"].([]any)
	if !ok || len(list) != 2 || list[0] != "x" || list[1] != true {
		t.Errorf("list = %v", m["list"])
	}
}
