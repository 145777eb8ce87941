package pluginapi

import (
	"errors"
	"reflect"
	"testing"
)

func TestDefinitionDefaults(t *testing.T) {
	d := &Definition{
		PluginName: "Formatter",
		ApplicationMenuItems: []EditorMenuItem{
			{Label: "Text", Actions: []EditorAction{
				{Label: "Bold", Code: "fmt.bold"},
				{Label: "Italic", Code: "fmt.italic"},
			}},
			{Label: "More", Actions: []EditorAction{
				{Label: "Bold again", Code: "fmt.bold"},
				{Label: "Separator"},
			}},
		},
		ContextMenuItems: []EditorMenuItem{
			{Label: "Ctx", Actions: []EditorAction{{Label: "Hidden", Code: "ctx.only"}}},
		},
	}

	if d.Name() != "Formatter" {
		t.Errorf("Name() = %q", d.Name())
	}
	if err := d.InitializePlugin(nil); err != nil {
		t.Errorf("InitializePlugin() with nil hook error = %v", err)
	}

	want := []string{"fmt.bold", "fmt.italic"}
	if got := d.AvailableActions(); !reflect.DeepEqual(got, want) {
		t.Errorf("AvailableActions() = %v, want %v", got, want)
	}

	if err := d.DoAction("fmt.bold"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("DoAction() with nil hook error = %v, want ErrUnknownAction", err)
	}
}

func TestDefinitionHooks(t *testing.T) {
	var initialized EditorWrapper
	var calls []string
	d := &Definition{
		PluginName: "Hooks",
		Initialize: func(editor EditorWrapper) error {
			initialized = editor
			calls = append(calls, "init")
			return nil
		},
		Actions: func() []string { return []string{"a"} },
		Do: func(code string) error {
			calls = append(calls, code)
			return nil
		},
	}

	if err := d.InitializePlugin(nil); err != nil {
		t.Fatalf("InitializePlugin() error = %v", err)
	}
	if err := d.DoAction("a"); err != nil {
		t.Fatalf("DoAction() error = %v", err)
	}
	if initialized != nil {
		t.Error("unexpected editor passed to Initialize")
	}
	if !reflect.DeepEqual(calls, []string{"init", "a"}) {
		t.Errorf("calls = %v", calls)
	}
	if got := d.AvailableActions(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("AvailableActions() = %v", got)
	}
}

func TestMenusToolbar(t *testing.T) {
	m := Menus{ToolbarMenuItems: []ToolbarMenuItem{
		{Label: "Outline"},
		{Label: "Search"},
	}}

	if item, ok := m.Toolbar("Search"); !ok || item.Label != "Search" {
		t.Errorf("Toolbar(Search) = %v, %v", item, ok)
	}
	if _, ok := m.Toolbar("Missing"); ok {
		t.Error("Toolbar(Missing) should not be found")
	}
}

func TestMenusActionsExcludeContext(t *testing.T) {
	m := Menus{
		ContextMenuItems:     []EditorMenuItem{{Actions: []EditorAction{{Code: "ctx"}}}},
		ApplicationMenuItems: []EditorMenuItem{{Actions: []EditorAction{{Code: "app"}}}},
	}
	actions := m.Actions()
	if len(actions) != 1 || actions[0].Code != "app" {
		t.Errorf("Actions() = %v, want only the application action", actions)
	}
}
