package plugin

import (
	"slices"

	"github.com/rs/zerolog"

	"github.com/dshills/keyplug/internal/accel"
	"github.com/dshills/keyplug/pluginapi"
)

// Binding connects an action code to the plugin that handles it.
type Binding struct {
	Plugin string
	Code   string

	// Action is the menu entry declaring Code, if any. Codes advertised
	// without a menu entry dispatch straight to DoAction.
	Action    pluginapi.EditorAction
	HasAction bool

	// Chord is the parsed accelerator. Zero when the action has none or
	// its accelerator was rejected.
	Chord accel.Chord

	host *Host
}

// dispatchTable routes codes and key chords to bindings.
// It is rebuilt whenever the set of plugins or their contributions change
// and is read-only afterwards.
type dispatchTable struct {
	codes map[string]*Binding
	keys  map[accel.Chord]*Binding
	order []*Binding
}

// buildTable creates the dispatch table for hosts in registration order.
// A code or accelerator claimed by an earlier plugin keeps its first binding.
func buildTable(hosts []*Host, platform accel.Platform, log zerolog.Logger) *dispatchTable {
	t := &dispatchTable{
		codes: make(map[string]*Binding),
		keys:  make(map[accel.Chord]*Binding),
	}

	for _, host := range hosts {
		if !host.State().IsUsable() {
			continue
		}
		menus := host.Menus()
		actions := menus.Actions()

		for _, code := range host.AvailableActions() {
			if code == "" {
				continue
			}
			if prev, dup := t.codes[code]; dup {
				if prev.Plugin != host.Name() {
					log.Warn().
						Str("code", code).
						Str("plugin", host.Name()).
						Str("bound", prev.Plugin).
						Msg("action code already bound")
				}
				continue
			}

			b := &Binding{Plugin: host.Name(), Code: code, host: host}
			if i := slices.IndexFunc(actions, func(a pluginapi.EditorAction) bool { return a.Code == code }); i >= 0 {
				b.Action = actions[i]
				b.HasAction = true
			}
			t.codes[code] = b
			t.order = append(t.order, b)
		}

		for _, action := range actions {
			if action.Accelerator == "" {
				continue
			}
			b, ok := t.codes[action.Code]
			if !ok || b.host != host {
				log.Debug().
					Str("plugin", host.Name()).
					Str("code", action.Code).
					Msg("accelerator for unadvertised action ignored")
				continue
			}

			chord, err := accel.ParseFor(action.Accelerator, platform)
			if err != nil {
				log.Warn().Err(err).
					Str("plugin", host.Name()).
					Str("code", action.Code).
					Msg("invalid accelerator")
				continue
			}
			if prev, taken := t.keys[chord]; taken {
				log.Warn().
					Str("accelerator", action.Accelerator).
					Str("chord", chord.String()).
					Str("plugin", host.Name()).
					Str("code", action.Code).
					Str("bound", prev.Plugin+"/"+prev.Code).
					Msg("accelerator collision, keeping first binding")
				continue
			}
			if b.Chord.IsZero() {
				b.Chord = chord
			}
			t.keys[chord] = b
		}
	}
	return t
}

// lookupCode returns the binding for code.
func (t *dispatchTable) lookupCode(code string) (*Binding, bool) {
	b, ok := t.codes[code]
	return b, ok
}

// lookupChord returns the binding for a key chord.
func (t *dispatchTable) lookupChord(c accel.Chord) (*Binding, bool) {
	b, ok := t.keys[c]
	return b, ok
}

// bindings returns copies of all bindings in registration order.
func (t *dispatchTable) bindings() []Binding {
	out := make([]Binding, len(t.order))
	for i, b := range t.order {
		out[i] = *b
	}
	return out
}
