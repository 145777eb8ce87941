package plugin

import "fmt"

// State is the lifecycle state of a hosted plugin.
type State int

const (
	// StateUnloaded means no plugin code is held.
	StateUnloaded State = iota
	// StateLoaded means the code is loaded and no editor was handed to it yet.
	StateLoaded
	// StateActive means InitializePlugin accepted an editor.
	StateActive
	// StateError means the last load or initialization failed.
	StateError
)

var stateNames = [...]string{
	StateUnloaded: "unloaded",
	StateLoaded:   "loaded",
	StateActive:   "active",
	StateError:    "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ParseState returns the state with the given name.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown plugin state %q", name)
}

// IsUsable reports whether the plugin's hooks may be called: it is loaded
// or active.
func (s State) IsUsable() bool {
	return s == StateLoaded || s == StateActive
}
