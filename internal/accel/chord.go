package accel

import (
	"strings"
	"unicode"
)

// Chord is a resolved accelerator: a set of modifiers plus one key.
type Chord struct {
	Mods Modifier
	Key  Key

	// Rune is the character for KeyRune chords. Letters are stored uppercase.
	Rune rune
}

// NewRuneChord creates a character chord.
func NewRuneChord(r rune, mods Modifier) Chord {
	return Chord{Mods: mods, Key: KeyRune, Rune: unicode.ToUpper(r)}
}

// NewKeyChord creates a chord for a named key.
func NewKeyChord(k Key, mods Modifier) Chord {
	return Chord{Mods: mods, Key: k}
}

// IsZero returns true for the empty chord.
func (c Chord) IsZero() bool {
	return c.Key == KeyNone
}

// String returns the canonical accelerator form, e.g. "Ctrl+Shift+F".
// Two chords collide iff their canonical forms are equal.
func (c Chord) String() string {
	var sb strings.Builder
	if c.Mods != ModNone {
		sb.WriteString(c.Mods.String())
		sb.WriteByte('+')
	}
	sb.WriteString(c.keyName())
	return sb.String()
}

func (c Chord) keyName() string {
	if c.Key != KeyRune {
		return c.Key.String()
	}
	switch c.Rune {
	case '+':
		return "Plus"
	case ' ':
		return "Space"
	}
	return string(c.Rune)
}
