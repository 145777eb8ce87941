package lua

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/dshills/keyplug/internal/editor"
	"github.com/dshills/keyplug/internal/toolwin"
	"github.com/dshills/keyplug/pluginapi"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "init.lua")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func loadScript(t *testing.T, src string, opts ...StateOption) *Plugin {
	t.Helper()
	p, err := Load(context.Background(), writeScript(t, src), opts...)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

const formatterScript = `
local editor

return {
  name = "Formatter",
  applicationMenuItems = {
    { label = "Text", actions = {
      { label = "Bold", code = "fmt.bold", accelerator = "CmdOrCtrl+B" },
      { label = "Upper", code = "fmt.upper",
        perform = function(ed)
          ed:replaceAllSelectionRanges(ed:getSelectedText():upper())
        end },
    }},
  },
  initializePlugin = function(ed) editor = ed end,
  doAction = function(code)
    if code == "fmt.bold" then
      local r = editor:getSingleSelectionRange()
      editor:replaceSelection("**" .. editor:getTextRange(r) .. "**")
    else
      error("unknown code " .. code)
    end
  end,
}
`

func TestLoadMenus(t *testing.T) {
	p := loadScript(t, formatterScript)

	if p.Name() != "Formatter" {
		t.Errorf("Name() = %q", p.Name())
	}

	menus := p.Menus()
	if len(menus.ApplicationMenuItems) != 1 {
		t.Fatalf("ApplicationMenuItems = %d, want 1", len(menus.ApplicationMenuItems))
	}
	actions := menus.Actions()
	if len(actions) != 2 {
		t.Fatalf("Actions() = %d, want 2", len(actions))
	}
	if actions[0].Accelerator != "CmdOrCtrl+B" || actions[0].Perform != nil {
		t.Errorf("bold action = %+v", actions[0])
	}
	if actions[1].Perform == nil {
		t.Error("upper action should have Perform")
	}

	want := []string{"fmt.bold", "fmt.upper"}
	if got := p.AvailableActions(); !reflect.DeepEqual(got, want) {
		t.Errorf("AvailableActions() = %v, want %v", got, want)
	}
}

func TestPluginDoAction(t *testing.T) {
	p := loadScript(t, formatterScript)
	ed := editor.New("make this bold")
	if err := ed.SetSelections(pluginapi.NewRange(10, 14)); err != nil {
		t.Fatal(err)
	}

	if err := p.InitializePlugin(ed); err != nil {
		t.Fatalf("InitializePlugin() error = %v", err)
	}
	if err := p.DoAction("fmt.bold"); err != nil {
		t.Fatalf("DoAction() error = %v", err)
	}
	if got := ed.Value(); got != "make this **bold**" {
		t.Errorf("Value() = %q", got)
	}

	if err := p.DoAction("fmt.nope"); err == nil {
		t.Error("DoAction() with unknown code should fail")
	}
}

func TestPluginPerform(t *testing.T) {
	p := loadScript(t, formatterScript)
	ed := editor.New("foo bar")
	if err := ed.SetSelections(pluginapi.NewRange(0, 3), pluginapi.NewRange(4, 7)); err != nil {
		t.Fatal(err)
	}

	upper := p.Menus().Actions()[1]
	if err := upper.Perform(ed); err != nil {
		t.Fatalf("Perform() error = %v", err)
	}
	if got := ed.Value(); got != "FOOBAR FOOBAR" {
		t.Errorf("Value() = %q", got)
	}
}

func TestPluginEditorErrorsWrap(t *testing.T) {
	p := loadScript(t, formatterScript)
	ed := editor.New("foo bar")
	if err := ed.SetSelections(pluginapi.NewRange(0, 3), pluginapi.NewRange(4, 7)); err != nil {
		t.Fatal(err)
	}
	if err := p.InitializePlugin(ed); err != nil {
		t.Fatal(err)
	}

	err := p.DoAction("fmt.bold")
	if !errors.Is(err, pluginapi.ErrMultipleSelections) {
		t.Errorf("DoAction() error = %v, want ErrMultipleSelections", err)
	}
	if ed.Value() != "foo bar" {
		t.Error("failed action modified the buffer")
	}
}

func TestPluginRanges(t *testing.T) {
	p := loadScript(t, `
local ed
plugin = {
  name = "Ranges",
  initializePlugin = function(e) ed = e end,
  getAvailableActions = function() return { "wrap", "swap" } end,
  doAction = function(code)
    if code == "wrap" then
      local all = ed:getAllSelectionRanges()
      for i = #all, 1, -1 do
        ed:replaceRange({ from = all[i].to, to = all[i].to, owner = all[i].owner }, ")")
        ed:replaceRange({ from = all[i].from, to = all[i].from }, "(")
      end
    elseif code == "swap" then
      ed:replaceRange({ from = 0, to = #ed:getValue() }, ed:getLanguage())
    end
  end,
}
`)
	ed := editor.New("ab cd", editor.WithLanguage("go"))
	if err := ed.SetSelections(pluginapi.NewRange(0, 2), pluginapi.NewRange(3, 5)); err != nil {
		t.Fatal(err)
	}
	if err := p.InitializePlugin(ed); err != nil {
		t.Fatal(err)
	}

	if got := p.AvailableActions(); !reflect.DeepEqual(got, []string{"wrap", "swap"}) {
		t.Errorf("AvailableActions() = %v", got)
	}
	if err := p.DoAction("wrap"); err != nil {
		t.Fatalf("DoAction(wrap) error = %v", err)
	}
	if got := ed.Value(); got != "(ab) (cd)" {
		t.Errorf("Value() = %q, want %q", got, "(ab) (cd)")
	}
	if err := p.DoAction("swap"); err != nil {
		t.Fatalf("DoAction(swap) error = %v", err)
	}
	if got := ed.Value(); got != "go" {
		t.Errorf("Value() = %q, want go", got)
	}
}

func TestPluginForeignRange(t *testing.T) {
	p := loadScript(t, `
local ed
return {
  name = "Foreign",
  initializePlugin = function(e) ed = e end,
  doAction = function()
    ed:getTextRange({ from = 0, to = 1, owner = "6ba7b810-9dad-11d1-80b4-00c04fd430c8" })
  end,
}
`)
	ed := editor.New("text")
	if err := p.InitializePlugin(ed); err != nil {
		t.Fatal(err)
	}
	if err := p.DoAction("any"); !errors.Is(err, pluginapi.ErrForeignRange) {
		t.Errorf("DoAction() error = %v, want ErrForeignRange", err)
	}
}

func TestPluginToolbar(t *testing.T) {
	p := loadScript(t, `
local clicks = 0
return {
  name = "Counter",
  toolbarMenuItems = {
    { label = "Count", icon = "data:image/png;base64,iVBORw0KGgo=",
      getToolbarWindowContent = function() return '<button id="inc">+</button><p>0</p>' end,
      onContentMount = function(root)
        root:on("click", function(ev)
          clicks = clicks + 1
          root:setMarkup('<button id="inc">+</button><p>' .. clicks .. ' ' .. ev.target .. '</p>')
        end)
      end },
  },
}
`)

	item, ok := p.Menus().Toolbar("Count")
	if !ok {
		t.Fatal("toolbar item Count not found")
	}
	w, err := toolwin.Mount(item)
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if w.Icon() == "" {
		t.Error("icon not carried to the window")
	}

	if _, err := w.Emit("click", "inc", nil); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if got, _ := w.Text(); got != "+\n1 inc" {
		t.Errorf("Text() = %q, want %q", got, "+\n1 inc")
	}
}

func TestPluginInstructionLimit(t *testing.T) {
	p := loadScript(t, `
local ed
return {
  name = "Busy",
  initializePlugin = function(e) ed = e end,
  doAction = function()
    for i = 1, 100 do ed:getValue() end
  end,
}
`, WithInstructionLimit(10))

	if err := p.InitializePlugin(editor.New("x")); err != nil {
		t.Fatal(err)
	}
	if err := p.DoAction("busy"); !errors.Is(err, ErrInstructionLimit) {
		t.Errorf("DoAction() error = %v, want ErrInstructionLimit", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"no table", `local x = 1`, ErrNoPluginTable},
		{"bad name", `return { name = 5 }`, ErrBadField},
		{"bad hook", `return { name = "x", doAction = "nope" }`, ErrBadField},
		{"bad action", `return { applicationMenuItems = { { actions = { 5 } } } }`, ErrBadField},
		{"bad perform", `return { applicationMenuItems = { { actions = { { perform = 1 } } } } }`, ErrBadField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), writeScript(t, tt.src))
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Load(context.Background(), writeScript(t, `return {`)); err == nil {
		t.Error("Load() with syntax error should fail")
	}
}

func TestLoadFieldError(t *testing.T) {
	tests := []struct {
		src  string
		want FieldError
	}{
		{`return { name = 5 }`, FieldError{Path: "plugin.name", Got: "number", Want: "string"}},
		{`return { applicationMenuItems = { { actions = { 5 } } } }`, FieldError{Path: "applicationMenuItems[1].actions[1]", Got: "number", Want: "table"}},
		{`return { toolbarMenuItems = { "x" } }`, FieldError{Path: "toolbarMenuItems[1]", Got: "string", Want: "table"}},
	}

	for _, tt := range tests {
		_, err := Load(context.Background(), writeScript(t, tt.src))
		var ferr *FieldError
		if !errors.As(err, &ferr) {
			t.Errorf("Load(%s) error = %v, want *FieldError", tt.src, err)
			continue
		}
		if *ferr != tt.want {
			t.Errorf("Load(%s) = %+v, want %+v", tt.src, *ferr, tt.want)
		}
	}
}

func TestPluginDefaults(t *testing.T) {
	p := loadScript(t, `return { name = "Empty" }`)

	if err := p.InitializePlugin(editor.New("")); err != nil {
		t.Errorf("InitializePlugin() error = %v", err)
	}
	if got := p.AvailableActions(); len(got) != 0 {
		t.Errorf("AvailableActions() = %v, want none", got)
	}
	if err := p.DoAction("x"); !errors.Is(err, pluginapi.ErrUnknownAction) {
		t.Errorf("DoAction() error = %v, want ErrUnknownAction", err)
	}
}
