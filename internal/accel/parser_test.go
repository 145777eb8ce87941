package accel

import (
	"errors"
	"testing"
)

func TestParseFor(t *testing.T) {
	tests := []struct {
		spec     string
		platform Platform
		want     string
	}{
		{"Ctrl+F", PlatformLinux, "Ctrl+F"},
		{"ctrl+f", PlatformLinux, "Ctrl+F"},
		{"Control+Shift+f", PlatformLinux, "Ctrl+Shift+F"},
		{"Shift+Ctrl+F", PlatformLinux, "Ctrl+Shift+F"},
		{"CmdOrCtrl+B", PlatformLinux, "Ctrl+B"},
		{"CmdOrCtrl+B", PlatformWindows, "Ctrl+B"},
		{"CmdOrCtrl+B", PlatformDarwin, "Meta+B"},
		{"CommandOrControl+Shift+P", PlatformDarwin, "Shift+Meta+P"},
		{"Cmd+S", PlatformLinux, "Meta+S"},
		{"Super+S", PlatformLinux, "Meta+S"},
		{"Alt+R", PlatformLinux, "Alt+R"},
		{"Option+R", PlatformDarwin, "Alt+R"},
		{"AltGr+E", PlatformLinux, "AltGr+E"},
		{"F5", PlatformLinux, "F5"},
		{"Shift+F24", PlatformLinux, "Shift+F24"},
		{"Ctrl+Plus", PlatformLinux, "Ctrl+Plus"},
		{"Ctrl++", PlatformLinux, "Ctrl+Plus"},
		{"+", PlatformLinux, "Plus"},
		{"Ctrl+Space", PlatformLinux, "Ctrl+Space"},
		{"Return", PlatformLinux, "Enter"},
		{"Esc", PlatformLinux, "Escape"},
		{"Alt+PageDown", PlatformLinux, "Alt+PageDown"},
		{"Ctrl+/", PlatformLinux, "Ctrl+/"},
		{"  Ctrl+F  ", PlatformLinux, "Ctrl+F"},
	}

	for _, tt := range tests {
		t.Run(tt.spec+"/"+string(tt.platform), func(t *testing.T) {
			c, err := ParseFor(tt.spec, tt.platform)
			if err != nil {
				t.Fatalf("ParseFor(%q) error = %v", tt.spec, err)
			}
			if got := c.String(); got != tt.want {
				t.Errorf("ParseFor(%q).String() = %q, want %q", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseForErrors(t *testing.T) {
	tests := []struct {
		spec string
		want error
	}{
		{"", ErrEmptyAccelerator},
		{"   ", ErrEmptyAccelerator},
		{"Ctrl+", ErrInvalidAccelerator},
		{"Ctrl", ErrInvalidAccelerator},
		{"Hyper+F", ErrInvalidAccelerator},
		{"Ctrl+Ctrl+F", ErrInvalidAccelerator},
		{"Ctrl+F25", ErrInvalidAccelerator},
		{"Ctrl+Banana", ErrInvalidAccelerator},
		{"+F", ErrInvalidAccelerator},
		{"Ctrl+F+G", ErrInvalidAccelerator},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			_, err := ParseFor(tt.spec, PlatformLinux)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseFor(%q) error = %v, want %v", tt.spec, err, tt.want)
			}
		})
	}
}

func TestCollision(t *testing.T) {
	a := MustParse("CmdOrCtrl+Shift+F", PlatformLinux)
	b := MustParse("shift+control+f", PlatformLinux)
	if a != b || a.String() != b.String() {
		t.Errorf("expected %v and %v to collide", a, b)
	}

	darwin := MustParse("CmdOrCtrl+Shift+F", PlatformDarwin)
	if darwin == b {
		t.Error("CmdOrCtrl on darwin should not collide with Ctrl")
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse() did not panic on invalid input")
		}
	}()
	MustParse("Ctrl+", PlatformLinux)
}

func TestPlatform(t *testing.T) {
	if PlatformDarwin.CmdOrCtrl() != ModMeta {
		t.Error("darwin CmdOrCtrl should be Meta")
	}
	if PlatformLinux.CmdOrCtrl() != ModCtrl {
		t.Error("linux CmdOrCtrl should be Ctrl")
	}
	if !PlatformWindows.Valid() || Platform("plan9").Valid() {
		t.Error("Valid() mismatch")
	}
}
