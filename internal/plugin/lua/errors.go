package lua

import (
	"errors"
	"fmt"
)

var (
	ErrStateClosed      = errors.New("lua state is closed")
	ErrExecutionTimeout = errors.New("lua execution timeout")
	// ErrInstructionLimit means a script used up its budget of host calls.
	ErrInstructionLimit = errors.New("lua instruction limit exceeded")
	// ErrNoPluginTable means a script neither returned a table nor set the
	// global plugin.
	ErrNoPluginTable = errors.New("lua script does not define a plugin table")
	ErrNotFunction   = errors.New("lua value is not a function")
	ErrBadField      = errors.New("invalid plugin table field")
)

// FieldError locates a value of the wrong type in a plugin table.
// It matches ErrBadField with errors.Is.
type FieldError struct {
	Path string // e.g. applicationMenuItems[1].actions[2].code
	Got  string // Lua type name found
	Want string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s is %s, want %s", ErrBadField, e.Path, e.Got, e.Want)
}

func (e *FieldError) Unwrap() error { return ErrBadField }

func badField(path string, got fmt.Stringer, want string) error {
	return &FieldError{Path: path, Got: got.String(), Want: want}
}
