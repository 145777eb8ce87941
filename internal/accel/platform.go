package accel

import "runtime"

// Platform selects how CmdOrCtrl resolves.
type Platform string

const (
	PlatformDarwin  Platform = "darwin"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
)

// CurrentPlatform returns the platform the process runs on.
func CurrentPlatform() Platform {
	return Platform(runtime.GOOS)
}

// CmdOrCtrl returns the modifier CmdOrCtrl resolves to on p.
func (p Platform) CmdOrCtrl() Modifier {
	if p == PlatformDarwin {
		return ModMeta
	}
	return ModCtrl
}

// Valid returns true if p is a known platform.
func (p Platform) Valid() bool {
	switch p {
	case PlatformDarwin, PlatformLinux, PlatformWindows:
		return true
	}
	return false
}
