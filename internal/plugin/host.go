package plugin

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	plua "github.com/dshills/keyplug/internal/plugin/lua"
	"github.com/dshills/keyplug/internal/toolwin"
	"github.com/dshills/keyplug/pluginapi"
)

// Host manages a single plugin and its lifecycle.
//
// A host either wraps a Go plugin handed to NewPluginHost, or loads a Lua
// plugin described by a manifest. Hook calls made through a host recover
// panics and report failures as *HookError.
type Host struct {
	mu sync.RWMutex

	// Identity
	name     string
	manifest *Manifest

	// Runtime
	plugin pluginapi.EditorPlugin
	lua    *plua.Plugin

	// State
	pluginState State
	err         error

	// Contributions snapshot, refreshed on load and initialization
	menus pluginapi.Menus
	codes []string

	// Options
	executionTimeout time.Duration
	instructionLimit int64
	log              zerolog.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithHostExecutionTimeout sets the execution timeout for Lua plugin calls.
func WithHostExecutionTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		h.executionTimeout = d
	}
}

// WithHostInstructionLimit sets the per-call budget of host API calls.
func WithHostInstructionLimit(limit int64) HostOption {
	return func(h *Host) {
		h.instructionLimit = limit
	}
}

// WithHostLogger sets the logger of the host.
func WithHostLogger(log zerolog.Logger) HostOption {
	return func(h *Host) {
		h.log = log
	}
}

func newHost(name string, opts []HostOption) *Host {
	h := &Host{
		name:             name,
		pluginState:      StateUnloaded,
		executionTimeout: plua.DefaultExecutionTimeout,
		instructionLimit: plua.DefaultInstructionLimit,
		log:              zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With().Str("plugin", name).Logger()
	return h
}

// NewHost creates a host for the Lua plugin described by manifest.
// The plugin is not loaded until Load is called.
func NewHost(manifest *Manifest, opts ...HostOption) (*Host, error) {
	if manifest == nil {
		return nil, ErrNilManifest
	}
	if manifest.Kind != "" && manifest.Kind != KindLua {
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, manifest.Kind)
	}

	h := newHost(manifest.Name, opts)
	h.manifest = manifest
	return h, nil
}

// NewPluginHost creates a loaded host for a Go plugin.
// The plugin's Name is the registry key, so it must not be empty.
func NewPluginHost(p pluginapi.EditorPlugin, opts ...HostOption) (*Host, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil plugin", ErrInvalidPlugin)
	}
	name := p.Name()
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidPlugin)
	}

	h := newHost(name, opts)
	h.plugin = p
	if err := h.snapshot(); err != nil {
		return nil, err
	}
	h.pluginState = StateLoaded
	return h, nil
}

// Name returns the registry name of the plugin.
func (h *Host) Name() string {
	return h.name
}

// Title returns the name the plugin reports, falling back to the
// manifest's display name.
func (h *Host) Title() string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.plugin != nil && h.plugin.Name() != "" {
		return h.plugin.Name()
	}
	if h.manifest != nil {
		return h.manifest.Title()
	}
	return h.name
}

// Manifest returns the plugin manifest. Go plugins have none.
func (h *Host) Manifest() *Manifest {
	return h.manifest
}

// Plugin returns the wrapped plugin, or nil before Load.
func (h *Host) Plugin() pluginapi.EditorPlugin {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.plugin
}

// State returns the current plugin state.
func (h *Host) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pluginState
}

// Error returns the last error that occurred.
func (h *Host) Error() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Menus returns the contributions recorded at the last refresh.
func (h *Host) Menus() pluginapi.Menus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.menus
}

// AvailableActions returns the codes advertised at the last refresh.
func (h *Host) AvailableActions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.codes)
}

// Advertises returns true if code was advertised at the last refresh.
func (h *Host) Advertises(code string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Contains(h.codes, code)
}

// Load runs the Lua plugin's main file.
func (h *Host) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pluginState != StateUnloaded {
		return ErrAlreadyLoaded
	}
	if h.manifest == nil {
		return fmt.Errorf("%w: no manifest", ErrNoEntryPoint)
	}

	p, err := plua.Load(ctx, h.manifest.MainPath(),
		plua.WithExecutionTimeout(h.executionTimeout),
		plua.WithInstructionLimit(h.instructionLimit),
		plua.WithLogger(h.log),
	)
	if err != nil {
		h.pluginState = StateError
		h.err = fmt.Errorf("failed to load plugin: %w", err)
		return h.err
	}

	h.lua = p
	h.plugin = p
	if err := h.snapshotLocked(); err != nil {
		p.Close()
		h.lua = nil
		h.plugin = nil
		h.pluginState = StateError
		h.err = err
		return err
	}

	h.pluginState = StateLoaded
	h.err = nil
	h.log.Debug().Str("path", p.Path()).Msg("plugin loaded")
	return nil
}

// Initialize hands editor to the plugin. On success the host becomes
// active; a failing hook puts it in the error state until the next
// successful initialization.
func (h *Host) Initialize(editor pluginapi.EditorWrapper) error {
	p, err := h.usable(true)
	if err != nil {
		return err
	}

	if err := h.call(HookInitialize, func() error { return p.InitializePlugin(editor) }); err != nil {
		h.setError(err)
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.snapshotLocked(); err != nil {
		h.pluginState = StateError
		h.err = err
		return err
	}
	h.pluginState = StateActive
	h.err = nil
	return nil
}

// DoAction calls the plugin's DoAction hook with code.
func (h *Host) DoAction(code string) error {
	p, err := h.usable(false)
	if err != nil {
		return err
	}
	return h.call(HookDoAction, func() error { return p.DoAction(code) })
}

// Perform runs action. Its Perform function is used when set, otherwise
// the code is sent to DoAction.
func (h *Host) Perform(action pluginapi.EditorAction, editor pluginapi.EditorWrapper) error {
	if action.Perform == nil {
		return h.DoAction(action.Code)
	}
	if _, err := h.usable(false); err != nil {
		return err
	}
	return h.call(HookPerform, func() error { return action.Perform(editor) })
}

// Mount mounts the tool window of the toolbar item with the given label.
// The window is returned alongside a hook error when OnContentMount fails.
func (h *Host) Mount(label string) (*toolwin.Window, error) {
	if _, err := h.usable(false); err != nil {
		return nil, err
	}
	item, ok := h.Menus().Toolbar(label)
	if !ok {
		return nil, fmt.Errorf("plugin %q: %w: %q", h.name, ErrNoToolWindow, label)
	}

	var w *toolwin.Window
	err := h.call(HookMount, func() error {
		var err error
		w, err = toolwin.Mount(item)
		return err
	})
	return w, err
}

// Refresh re-reads the plugin's menus and advertised codes.
func (h *Host) Refresh() error {
	if _, err := h.usable(true); err != nil {
		return err
	}
	return h.snapshot()
}

// Unload releases the plugin's runtime. Go plugins cannot be loaded
// again after Unload.
func (h *Host) Unload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pluginState == StateUnloaded {
		return ErrNotLoaded
	}

	var err error
	if h.lua != nil {
		err = h.lua.Close()
		h.lua = nil
		h.plugin = nil
	}
	h.pluginState = StateUnloaded
	h.menus = pluginapi.Menus{}
	h.codes = nil
	return err
}

// usable returns the plugin if it can receive hook calls. Errored hosts
// accept initialization so they can recover.
func (h *Host) usable(allowErrored bool) (pluginapi.EditorPlugin, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.plugin == nil || h.pluginState == StateUnloaded {
		return nil, fmt.Errorf("plugin %q: %w", h.name, ErrNotLoaded)
	}
	if h.pluginState == StateError && !allowErrored {
		return nil, fmt.Errorf("plugin %q: %w: %v", h.name, ErrNotLoaded, h.err)
	}
	return h.plugin, nil
}

// call runs fn, converting errors and panics into *HookError.
func (h *Host) call(hook string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Str("hook", hook).Interface("panic", r).Bytes("stack", debug.Stack()).Msg("plugin panicked")
			err = &HookError{Plugin: h.name, Hook: hook, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := fn(); err != nil {
		return &HookError{Plugin: h.name, Hook: hook, Err: err}
	}
	return nil
}

func (h *Host) setError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pluginState = StateError
	h.err = err
}

func (h *Host) snapshot() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

// snapshotLocked records the plugin's menus and advertised codes.
// Caller must hold h.mu.
func (h *Host) snapshotLocked() error {
	p := h.plugin
	var menus pluginapi.Menus
	var codes []string
	err := h.call(HookActions, func() error {
		menus = p.Menus()
		codes = p.AvailableActions()
		return nil
	})
	if err != nil {
		return err
	}
	h.menus = menus
	h.codes = codes
	return nil
}

// String returns a string representation of the host.
func (h *Host) String() string {
	return fmt.Sprintf("%s [%s]", h.name, h.State())
}
