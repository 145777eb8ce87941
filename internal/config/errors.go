package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidationFailed is returned by Validate for out of range or
	// unknown values.
	ErrValidationFailed = errors.New("validation failed")

	// ErrInvalidEnv is returned when a KEYPLUG_* variable cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment override")

	// ErrUnknownKey is wrapped by a ParseError for keys that map to no
	// config field.
	ErrUnknownKey = errors.New("unknown key")
)

// ParseError locates a problem in a TOML config source.
type ParseError struct {
	// Path is the file, or "<reader>" for LoadFromReader.
	Path string

	// Line and Column are 1-based, zero when the decoder gave no position.
	Line   int
	Column int

	// Key is the dotted key the error refers to, if any.
	Key string

	Err error
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&sb, ":%d:%d", e.Line, e.Column)
	}
	if e.Key != "" {
		fmt.Fprintf(&sb, ": %s", e.Key)
	}
	fmt.Fprintf(&sb, ": %v", e.Err)
	return sb.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
