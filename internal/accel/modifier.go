package accel

import "strings"

// Modifier is a set of accelerator modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModCtrl is the Control key.
	ModCtrl Modifier = 1 << iota

	// ModAlt is the Alt key (Option on macOS).
	ModAlt

	// ModAltGr is the right Alt key on international layouts.
	ModAltGr

	// ModShift is the Shift key.
	ModShift

	// ModMeta is the Command key on macOS and the Super/Windows key elsewhere.
	ModMeta
)

// modifierOrder is the canonical output order.
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "Ctrl"},
	{ModAlt, "Alt"},
	{ModAltGr, "AltGr"},
	{ModShift, "Shift"},
	{ModMeta, "Meta"},
}

// Has returns true if m contains mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// With returns m with mod added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns m with mod removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// String returns the canonical form like "Ctrl+Shift".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}
	var parts []string
	for _, o := range modifierOrder {
		if m.Has(o.mod) {
			parts = append(parts, o.name)
		}
	}
	return strings.Join(parts, "+")
}

// modifierNames maps lowercase accelerator names to modifiers.
// The platform dependent names are handled by the parser.
var modifierNames = map[string]Modifier{
	"command": ModMeta,
	"cmd":     ModMeta,
	"super":   ModMeta,
	"meta":    ModMeta,
	"control": ModCtrl,
	"ctrl":    ModCtrl,
	"alt":     ModAlt,
	"option":  ModAlt,
	"altgr":   ModAltGr,
	"shift":   ModShift,
}
