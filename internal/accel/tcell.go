package accel

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
)

var toTcellKey = map[Key]tcell.Key{
	KeyTab:       tcell.KeyTab,
	KeyBackspace: tcell.KeyBackspace2,
	KeyDelete:    tcell.KeyDelete,
	KeyInsert:    tcell.KeyInsert,
	KeyEnter:     tcell.KeyEnter,
	KeyEscape:    tcell.KeyEscape,
	KeyUp:        tcell.KeyUp,
	KeyDown:      tcell.KeyDown,
	KeyLeft:      tcell.KeyLeft,
	KeyRight:     tcell.KeyRight,
	KeyHome:      tcell.KeyHome,
	KeyEnd:       tcell.KeyEnd,
	KeyPageUp:    tcell.KeyPgUp,
	KeyPageDown:  tcell.KeyPgDn,
}

var fromTcellKey = map[tcell.Key]Key{
	tcell.KeyTab:        KeyTab,
	tcell.KeyBackspace:  KeyBackspace,
	tcell.KeyBackspace2: KeyBackspace,
	tcell.KeyDelete:     KeyDelete,
	tcell.KeyInsert:     KeyInsert,
	tcell.KeyEnter:      KeyEnter,
	tcell.KeyEscape:     KeyEscape,
	tcell.KeyUp:         KeyUp,
	tcell.KeyDown:       KeyDown,
	tcell.KeyLeft:       KeyLeft,
	tcell.KeyRight:      KeyRight,
	tcell.KeyHome:       KeyHome,
	tcell.KeyEnd:        KeyEnd,
	tcell.KeyPgUp:       KeyPageUp,
	tcell.KeyPgDn:       KeyPageDown,
}

// FromTcell converts a terminal key event into a chord.
// Returns the zero Chord for keys that have no accelerator form.
func FromTcell(ev *tcell.EventKey) Chord {
	if ev == nil {
		return Chord{}
	}

	mods := fromTcellMod(ev.Modifiers())
	k := ev.Key()

	// Named keys first: Tab, Enter and Backspace share codes with Ctrl+I, M, H.
	if named, ok := fromTcellKey[k]; ok {
		return NewKeyChord(named, mods)
	}

	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		if unicode.IsUpper(r) {
			mods = mods.With(ModShift)
		}
		return NewRuneChord(r, mods)
	case k >= tcell.KeyF1 && k < tcell.KeyF1+maxFunctionKey:
		return NewKeyChord(KeyF1+Key(k-tcell.KeyF1), mods)
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return NewRuneChord('a'+rune(k-tcell.KeyCtrlA), mods.With(ModCtrl))
	case k == tcell.KeyCtrlSpace:
		return NewRuneChord(' ', mods.With(ModCtrl))
	}
	return Chord{}
}

// TcellEvent returns the key event a terminal delivers for c.
func (c Chord) TcellEvent() *tcell.EventKey {
	mod := toTcellMod(c.Mods)

	switch {
	case c.Key == KeyRune:
		return c.runeEvent(mod)
	case c.Key.IsFunction():
		return tcell.NewEventKey(tcell.KeyF1+tcell.Key(c.Key-KeyF1), 0, mod)
	}
	if k, ok := toTcellKey[c.Key]; ok {
		return tcell.NewEventKey(k, 0, mod)
	}
	return tcell.NewEventKey(tcell.KeyNUL, 0, mod)
}

func (c Chord) runeEvent(mod tcell.ModMask) *tcell.EventKey {
	r := c.Rune
	if c.Mods.Has(ModCtrl) {
		if r == ' ' {
			return tcell.NewEventKey(tcell.KeyCtrlSpace, 0, mod)
		}
		// Control codes shared with Tab, Enter and Backspace are sent as runes.
		if r >= 'A' && r <= 'Z' && r != 'H' && r != 'I' && r != 'M' {
			k := tcell.KeyCtrlA + tcell.Key(r-'A')
			return tcell.NewEventKey(k, rune(k), mod)
		}
	}
	if unicode.IsLetter(r) && !c.Mods.Has(ModShift) {
		r = unicode.ToLower(r)
	}
	return tcell.NewEventKey(tcell.KeyRune, r, mod)
}

func fromTcellMod(m tcell.ModMask) Modifier {
	var mods Modifier
	if m&tcell.ModCtrl != 0 {
		mods = mods.With(ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		mods = mods.With(ModAlt)
	}
	if m&tcell.ModShift != 0 {
		mods = mods.With(ModShift)
	}
	if m&tcell.ModMeta != 0 {
		mods = mods.With(ModMeta)
	}
	return mods
}

func toTcellMod(m Modifier) tcell.ModMask {
	mask := tcell.ModNone
	if m.Has(ModCtrl) {
		mask |= tcell.ModCtrl
	}
	if m.Has(ModAlt) || m.Has(ModAltGr) {
		mask |= tcell.ModAlt
	}
	if m.Has(ModShift) {
		mask |= tcell.ModShift
	}
	if m.Has(ModMeta) {
		mask |= tcell.ModMeta
	}
	return mask
}
