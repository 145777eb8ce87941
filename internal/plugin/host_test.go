package plugin

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/keyplug/internal/editor"
	"github.com/dshills/keyplug/pluginapi"
)

const caseScript = `
local ed
return {
  name = "Case Tools",
  applicationMenuItems = {
    { label = "Case", actions = {
      { label = "Upper", code = "case.upper", accelerator = "CmdOrCtrl+U",
        perform = function(e) e:replaceAllSelectionRanges(e:getSelectedText():upper()) end },
      { label = "Lower", code = "case.lower", accelerator = "CmdOrCtrl+L" },
    }},
  },
  toolbarMenuItems = {
    { label = "Stats",
      getToolbarWindowContent = function() return '<p id="n">0</p>' end,
      onContentMount = function(root) root:setMarkup('<p id="n">' .. #ed:getValue() .. '</p>') end },
  },
  initializePlugin = function(e) ed = e end,
  doAction = function(code)
    if code == "case.lower" then
      ed:replaceAllSelectionRanges(ed:getSelectedText():lower())
    end
  end,
}
`

func createTestPlugin(t *testing.T, name, luaCode string) *Manifest {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "init.lua"), luaCode)

	return &Manifest{
		Name:    name,
		Version: "1.0.0",
		Main:    "init.lua",
		Kind:    KindLua,
		path:    dir,
	}
}

func loadTestHost(t *testing.T, name, luaCode string) *Host {
	t.Helper()
	host, err := NewHost(createTestPlugin(t, name, luaCode))
	if err != nil {
		t.Fatalf("NewHost() error = %v", err)
	}
	if err := host.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() { host.Unload() })
	return host
}

func TestNewHost(t *testing.T) {
	manifest := &Manifest{Name: "test", Version: "1.0.0"}

	host, err := NewHost(manifest)
	if err != nil {
		t.Fatalf("NewHost() error = %v", err)
	}
	if host.Name() != "test" {
		t.Errorf("Name() = %q, want %q", host.Name(), "test")
	}
	if host.Manifest() != manifest {
		t.Error("Manifest() returned wrong manifest")
	}
	if host.State() != StateUnloaded {
		t.Errorf("State() = %v, want %v", host.State(), StateUnloaded)
	}
	if host.Plugin() != nil {
		t.Error("Plugin() should be nil before Load")
	}
}

func TestNewHostErrors(t *testing.T) {
	if _, err := NewHost(nil); err != ErrNilManifest {
		t.Errorf("NewHost(nil) error = %v, want ErrNilManifest", err)
	}
	if _, err := NewHost(&Manifest{Name: "x", Kind: "wasm"}); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("NewHost(wasm) error = %v, want ErrInvalidKind", err)
	}
}

func TestNewPluginHost(t *testing.T) {
	p := &pluginapi.Definition{
		PluginName: "Go Plugin",
		ApplicationMenuItems: []pluginapi.EditorMenuItem{{
			Label:   "Tools",
			Actions: []pluginapi.EditorAction{{Label: "Run", Code: "go.run"}},
		}},
	}

	host, err := NewPluginHost(p)
	if err != nil {
		t.Fatalf("NewPluginHost() error = %v", err)
	}
	if host.State() != StateLoaded {
		t.Errorf("State() = %v, want loaded", host.State())
	}
	if host.Manifest() != nil {
		t.Error("Go plugins have no manifest")
	}
	if got := host.AvailableActions(); !reflect.DeepEqual(got, []string{"go.run"}) {
		t.Errorf("AvailableActions() = %v", got)
	}
	if !host.Advertises("go.run") || host.Advertises("go.stop") {
		t.Error("Advertises() mismatch")
	}
	if host.Title() != "Go Plugin" {
		t.Errorf("Title() = %q", host.Title())
	}
}

func TestNewPluginHostInvalid(t *testing.T) {
	if _, err := NewPluginHost(nil); !errors.Is(err, ErrInvalidPlugin) {
		t.Errorf("NewPluginHost(nil) error = %v, want ErrInvalidPlugin", err)
	}
	if _, err := NewPluginHost(&pluginapi.Definition{}); !errors.Is(err, ErrInvalidPlugin) {
		t.Errorf("NewPluginHost(unnamed) error = %v, want ErrInvalidPlugin", err)
	}
}

func TestHostLoadUnload(t *testing.T) {
	host, err := NewHost(createTestPlugin(t, "case", caseScript))
	if err != nil {
		t.Fatal(err)
	}

	if err := host.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if host.State() != StateLoaded {
		t.Errorf("State() = %v, want loaded", host.State())
	}
	if host.Title() != "Case Tools" {
		t.Errorf("Title() = %q", host.Title())
	}
	if got := host.AvailableActions(); !reflect.DeepEqual(got, []string{"case.upper", "case.lower"}) {
		t.Errorf("AvailableActions() = %v", got)
	}
	if err := host.Load(context.Background()); err != ErrAlreadyLoaded {
		t.Errorf("second Load() error = %v, want ErrAlreadyLoaded", err)
	}

	if err := host.Unload(); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	if host.State() != StateUnloaded {
		t.Errorf("State() = %v, want unloaded", host.State())
	}
	if err := host.Unload(); err != ErrNotLoaded {
		t.Errorf("second Unload() error = %v, want ErrNotLoaded", err)
	}
	if err := host.DoAction("case.lower"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("DoAction() after Unload error = %v, want ErrNotLoaded", err)
	}
}

func TestHostLoadError(t *testing.T) {
	host, err := NewHost(createTestPlugin(t, "broken", `this is not lua`))
	if err != nil {
		t.Fatal(err)
	}

	if err := host.Load(context.Background()); err == nil {
		t.Fatal("Load() should fail on a syntax error")
	}
	if host.State() != StateError {
		t.Errorf("State() = %v, want error", host.State())
	}
	if host.Error() == nil {
		t.Error("Error() should record the load failure")
	}
}

func TestHostInitializeAndDispatch(t *testing.T) {
	host := loadTestHost(t, "case", caseScript)
	ed := editor.New("Hello World")
	if err := ed.SetSelections(pluginapi.NewRange(0, 5)); err != nil {
		t.Fatal(err)
	}

	if err := host.Initialize(ed); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if host.State() != StateActive {
		t.Errorf("State() = %v, want active", host.State())
	}

	actions := host.Menus().Actions()
	if err := host.Perform(actions[0], ed); err != nil {
		t.Fatalf("Perform(upper) error = %v", err)
	}
	if got := ed.Value(); got != "HELLO World" {
		t.Fatalf("Value() = %q, want %q", got, "HELLO World")
	}

	if err := ed.SetSelections(pluginapi.NewRange(0, 5)); err != nil {
		t.Fatal(err)
	}
	if err := host.Perform(actions[1], ed); err != nil {
		t.Fatalf("Perform(lower) error = %v", err)
	}
	if got := ed.Value(); got != "hello World" {
		t.Errorf("Value() = %q, want %q", got, "hello World")
	}
}

func TestHostInitializeFailure(t *testing.T) {
	fail := true
	p := &pluginapi.Definition{
		PluginName: "flaky",
		Initialize: func(pluginapi.EditorWrapper) error {
			if fail {
				return errors.New("boom")
			}
			return nil
		},
		Do: func(string) error { return nil },
	}
	host, err := NewPluginHost(p)
	if err != nil {
		t.Fatal(err)
	}

	err = host.Initialize(editor.New(""))
	var hookErr *HookError
	if !errors.As(err, &hookErr) || hookErr.Hook != HookInitialize || hookErr.Plugin != "flaky" {
		t.Fatalf("Initialize() error = %v, want HookError for %s", err, HookInitialize)
	}
	if host.State() != StateError {
		t.Errorf("State() = %v, want error", host.State())
	}
	if err := host.DoAction("x"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("DoAction() on errored host = %v, want ErrNotLoaded", err)
	}

	fail = false
	if err := host.Initialize(editor.New("")); err != nil {
		t.Fatalf("Initialize() retry error = %v", err)
	}
	if host.State() != StateActive || host.Error() != nil {
		t.Errorf("State() = %v, Error() = %v after recovery", host.State(), host.Error())
	}
}

func TestHostRecoversPanics(t *testing.T) {
	p := &pluginapi.Definition{
		PluginName: "panicky",
		Do:         func(string) error { panic("kaboom") },
	}
	host, err := NewPluginHost(p)
	if err != nil {
		t.Fatal(err)
	}

	err = host.DoAction("any")
	var hookErr *HookError
	if !errors.As(err, &hookErr) {
		t.Fatalf("DoAction() error = %v, want HookError", err)
	}
	if hookErr.Hook != HookDoAction || !strings.Contains(hookErr.Error(), "kaboom") {
		t.Errorf("HookError = %v", hookErr)
	}
}

func TestHostPerformWrapsWrapperErrors(t *testing.T) {
	p := &pluginapi.Definition{PluginName: "strict"}
	host, err := NewPluginHost(p)
	if err != nil {
		t.Fatal(err)
	}

	ed := editor.New("ab")
	if err := ed.SetSelections(pluginapi.NewRange(0, 1), pluginapi.NewRange(1, 2)); err != nil {
		t.Fatal(err)
	}
	action := pluginapi.EditorAction{
		Code:    "strict.one",
		Perform: func(e pluginapi.EditorWrapper) error { return e.ReplaceSelection("x") },
	}

	err = host.Perform(action, ed)
	if !errors.Is(err, pluginapi.ErrMultipleSelections) {
		t.Errorf("Perform() error = %v, want ErrMultipleSelections", err)
	}
	var hookErr *HookError
	if !errors.As(err, &hookErr) || hookErr.Hook != HookPerform {
		t.Errorf("Perform() error = %v, want HookError for %s", err, HookPerform)
	}
}

func TestHostMount(t *testing.T) {
	host := loadTestHost(t, "case", caseScript)
	if err := host.Initialize(editor.New("12345")); err != nil {
		t.Fatal(err)
	}

	w, err := host.Mount("Stats")
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if got := w.Markup(); got != `<p id="n">5</p>` {
		t.Errorf("Markup() = %q", got)
	}

	if _, err := host.Mount("Missing"); !errors.Is(err, ErrNoToolWindow) {
		t.Errorf("Mount(Missing) error = %v, want ErrNoToolWindow", err)
	}
}
