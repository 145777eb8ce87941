package accel

import "fmt"

// Key identifies a non-character key. Character keys use KeyRune.
type Key uint8

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	// KeyRune is a printable character held in Chord.Rune.
	KeyRune

	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyEnter
	KeyEscape
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown

	// KeyF1 through KeyF24 are contiguous.
	KeyF1
)

// KeyF24 is the last function key.
const KeyF24 = KeyF1 + 23

// maxFunctionKey is the highest supported function key number.
const maxFunctionKey = 24

var keyNames = map[Key]string{
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyInsert:    "Insert",
	KeyEnter:     "Enter",
	KeyEscape:    "Escape",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
}

// keyByName maps lowercase accelerator key names to keys.
var keyByName = map[string]Key{
	"tab":       KeyTab,
	"backspace": KeyBackspace,
	"delete":    KeyDelete,
	"insert":    KeyInsert,
	"return":    KeyEnter,
	"enter":     KeyEnter,
	"escape":    KeyEscape,
	"esc":       KeyEscape,
	"up":        KeyUp,
	"down":      KeyDown,
	"left":      KeyLeft,
	"right":     KeyRight,
	"home":      KeyHome,
	"end":       KeyEnd,
	"pageup":    KeyPageUp,
	"pagedown":  KeyPageDown,
}

// IsFunction returns true for F1 through F24.
func (k Key) IsFunction() bool {
	return k >= KeyF1 && k <= KeyF24
}

// String returns the canonical key name.
func (k Key) String() string {
	if k.IsFunction() {
		return fmt.Sprintf("F%d", k-KeyF1+1)
	}
	if name, ok := keyNames[k]; ok {
		return name
	}
	switch k {
	case KeyNone:
		return "None"
	case KeyRune:
		return "Rune"
	}
	return fmt.Sprintf("Key(%d)", k)
}
