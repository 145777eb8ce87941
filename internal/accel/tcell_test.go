package accel

import (
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestTcellRoundTrip(t *testing.T) {
	specs := []string{
		"Ctrl+B",
		"Ctrl+Shift+B",
		"Ctrl+H",
		"Ctrl+I",
		"Ctrl+Space",
		"Alt+R",
		"Meta+S",
		"Shift+A",
		"A",
		"5",
		"Ctrl+/",
		"F1",
		"Shift+F12",
		"F24",
		"Enter",
		"Tab",
		"Backspace",
		"Escape",
		"Ctrl+Up",
		"PageDown",
	}

	for _, spec := range specs {
		t.Run(spec, func(t *testing.T) {
			want := MustParse(spec, PlatformLinux)
			got := FromTcell(want.TcellEvent())
			if got != want {
				t.Errorf("FromTcell(%s.TcellEvent()) = %s, want %s", spec, got, want)
			}
		})
	}
}

func TestFromTcell(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want string
	}{
		{"control code", tcell.NewEventKey(tcell.KeyCtrlB, rune(tcell.KeyCtrlB), tcell.ModCtrl), "Ctrl+B"},
		{"lowercase rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), "X"},
		{"uppercase rune", tcell.NewEventKey(tcell.KeyRune, 'X', tcell.ModNone), "Shift+X"},
		{"alt rune", tcell.NewEventKey(tcell.KeyRune, 'f', tcell.ModAlt), "Alt+F"},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "Enter"},
		{"function key", tcell.NewEventKey(tcell.KeyF3, 0, tcell.ModShift), "Shift+F3"},
		{"arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModCtrl), "Ctrl+Left"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromTcell(tt.ev).String(); got != tt.want {
				t.Errorf("FromTcell() = %q, want %q", got, tt.want)
			}
		})
	}

	if !FromTcell(nil).IsZero() {
		t.Error("FromTcell(nil) should be zero")
	}
}
