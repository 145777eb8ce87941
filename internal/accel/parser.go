package accel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse errors.
var (
	ErrEmptyAccelerator   = errors.New("empty accelerator")
	ErrInvalidAccelerator = errors.New("invalid accelerator")
)

// Parse parses an accelerator for the current platform.
func Parse(spec string) (Chord, error) {
	return ParseFor(spec, CurrentPlatform())
}

// ParseFor parses an Electron-style accelerator, resolving CmdOrCtrl
// against platform.
//
// Supported formats:
//   - Single keys: "A", "5", "F12", "Escape"
//   - With modifiers: "Ctrl+S", "Alt+F4", "CmdOrCtrl+Shift+P"
//   - The plus key: "Ctrl+Plus" or "Ctrl++"
func ParseFor(spec string, platform Platform) (Chord, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Chord{}, ErrEmptyAccelerator
	}

	parts := splitAccelerator(spec)

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		mod, err := parseModifier(p, platform)
		if err != nil {
			return Chord{}, err
		}
		if mods.Has(mod) {
			return Chord{}, fmt.Errorf("%w: duplicate modifier %q in %q", ErrInvalidAccelerator, p, spec)
		}
		mods = mods.With(mod)
	}

	chord, err := parseKey(parts[len(parts)-1])
	if err != nil {
		return Chord{}, fmt.Errorf("%w in %q", err, spec)
	}
	chord.Mods = mods
	return chord, nil
}

// MustParse is like ParseFor but panics on error. Intended for tests and
// static tables.
func MustParse(spec string, platform Platform) Chord {
	c, err := ParseFor(spec, platform)
	if err != nil {
		panic(err)
	}
	return c
}

// splitAccelerator splits on "+", treating a trailing "++" as the plus key.
func splitAccelerator(spec string) []string {
	if spec == "+" {
		return []string{"+"}
	}
	if strings.HasSuffix(spec, "++") {
		head := strings.TrimSuffix(spec, "++")
		if head == "" {
			return []string{"+"}
		}
		return append(strings.Split(head, "+"), "+")
	}
	return strings.Split(spec, "+")
}

func parseModifier(name string, platform Platform) (Modifier, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch lower {
	case "commandorcontrol", "cmdorctrl":
		return platform.CmdOrCtrl(), nil
	case "":
		return ModNone, fmt.Errorf("%w: empty modifier", ErrInvalidAccelerator)
	}
	if mod, ok := modifierNames[lower]; ok {
		return mod, nil
	}
	return ModNone, fmt.Errorf("%w: unknown modifier %q", ErrInvalidAccelerator, name)
}

func parseKey(name string) (Chord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Chord{}, fmt.Errorf("%w: missing key", ErrInvalidAccelerator)
	}

	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		if !unicode.IsPrint(r) {
			return Chord{}, fmt.Errorf("%w: unprintable key %q", ErrInvalidAccelerator, name)
		}
		return NewRuneChord(r, ModNone), nil
	}

	lower := strings.ToLower(name)
	switch lower {
	case "plus":
		return NewRuneChord('+', ModNone), nil
	case "space":
		return NewRuneChord(' ', ModNone), nil
	}
	if k, ok := keyByName[lower]; ok {
		return NewKeyChord(k, ModNone), nil
	}
	if k, ok := parseFunctionKey(lower); ok {
		return NewKeyChord(k, ModNone), nil
	}

	if _, err := parseModifier(name, PlatformLinux); err == nil {
		return Chord{}, fmt.Errorf("%w: modifier %q without key", ErrInvalidAccelerator, name)
	}
	return Chord{}, fmt.Errorf("%w: unknown key %q", ErrInvalidAccelerator, name)
}

// parseFunctionKey parses "f1" through "f24".
func parseFunctionKey(lower string) (Key, bool) {
	if len(lower) < 2 || lower[0] != 'f' {
		return KeyNone, false
	}
	n, err := strconv.Atoi(lower[1:])
	if err != nil || n < 1 || n > maxFunctionKey {
		return KeyNone, false
	}
	return KeyF1 + Key(n-1), true
}
