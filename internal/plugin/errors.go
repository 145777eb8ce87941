package plugin

import (
	"errors"
	"fmt"
)

var (
	ErrPluginNotFound = errors.New("plugin not found")
	ErrNoEntryPoint   = errors.New("plugin has no entry point (init.lua or plugin.lua)")
	ErrNilManifest    = errors.New("manifest is nil")
	ErrAlreadyLoaded  = errors.New("plugin is already loaded")
	ErrNotLoaded      = errors.New("plugin is not loaded")

	// ErrInvalidPlugin covers nil plugins, empty names and a reload whose
	// manifest changed the plugin's name.
	ErrInvalidPlugin = errors.New("invalid plugin")

	// ErrNotInitialized means an action arrived before InitializeEditor.
	ErrNotInitialized = errors.New("no editor initialized")

	// ErrNoToolWindow is returned for a toolbar label no plugin declared.
	ErrNoToolWindow = errors.New("toolbar item not found")
)

// Hook names used in HookError and metrics.
const (
	HookLoad       = "load"
	HookInitialize = "initializePlugin"
	HookDoAction   = "doAction"
	HookPerform    = "perform"
	HookMount      = "onContentMount"
	HookActions    = "getAvailableActions"
)

// HookError wraps an error returned, or a panic raised, by plugin code.
// Match it with errors.As to learn which plugin and hook failed.
type HookError struct {
	Plugin string
	Hook   string
	Err    error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("plugin %s: %s: %v", e.Plugin, e.Hook, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }
