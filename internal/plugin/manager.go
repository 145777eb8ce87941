package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"

	"github.com/dshills/keyplug/internal/accel"
	plua "github.com/dshills/keyplug/internal/plugin/lua"
	"github.com/dshills/keyplug/internal/toolwin"
	"github.com/dshills/keyplug/pluginapi"
)

// Manager manages the lifecycle of all plugins and routes editor actions
// to them.
//
// Two locks are involved. mu guards the registry and the dispatch table.
// dispatchMu serializes every call from the host into plugin code, so a
// plugin never sees two hooks running at once, no matter how many
// goroutines drive the manager.
type Manager struct {
	mu         sync.RWMutex
	dispatchMu sync.Mutex

	// Loader for plugin discovery
	loader *Loader

	// Registered plugins by name
	plugins map[string]*Host

	// Registration order (for deterministic iteration and first-wins binding)
	loadOrder []string

	table   *dispatchTable
	editor  pluginapi.EditorWrapper
	windows map[windowKey]*toolwin.Window

	// Event handlers (protected by mu)
	eventHandlers []EventHandler

	config  ManagerConfig
	log     zerolog.Logger
	metrics *Metrics
}

type windowKey struct {
	plugin string
	label  string
}

// ManagerConfig configures the plugin manager.
type ManagerConfig struct {
	// PluginPaths are directories to search for plugins
	PluginPaths []string

	// MaxParallel is the maximum number of plugins loaded concurrently
	MaxParallel int

	// Platform decides how CmdOrCtrl accelerators resolve
	Platform accel.Platform

	// ExecutionTimeout bounds a single Lua hook call
	ExecutionTimeout time.Duration

	// InstructionLimit bounds the host API calls of a single Lua hook call
	InstructionLimit int64
}

// DefaultManagerConfig returns sensible default configuration.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		PluginPaths:      DefaultPluginPaths(),
		MaxParallel:      4,
		Platform:         accel.CurrentPlatform(),
		ExecutionTimeout: plua.DefaultExecutionTimeout,
		InstructionLimit: plua.DefaultInstructionLimit,
	}
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger of the manager and its hosts.
func WithLogger(log zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// WithMetrics makes the manager record into metrics instead of a private
// set of collectors.
func WithMetrics(metrics *Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// EventHandler handles plugin manager events.
// Handlers must be non-blocking and should not call back into the Manager
// to avoid deadlocks. Panics in handlers are recovered.
type EventHandler func(event ManagerEvent)

// ManagerEvent represents a plugin manager event.
type ManagerEvent struct {
	Type   ManagerEventType
	Plugin string
	Error  error
}

// ManagerEventType is the type of manager event.
type ManagerEventType int

const (
	// EventPluginLoaded is emitted when a plugin is registered.
	EventPluginLoaded ManagerEventType = iota
	// EventPluginUnloaded is emitted when a plugin is unloaded.
	EventPluginUnloaded
	// EventPluginInitialized is emitted when a plugin accepted an editor.
	EventPluginInitialized
	// EventPluginReloaded is emitted when a plugin is reloaded.
	EventPluginReloaded
	// EventPluginError is emitted when a plugin encounters an error.
	EventPluginError
)

// String returns a string representation of the event type.
func (t ManagerEventType) String() string {
	switch t {
	case EventPluginLoaded:
		return "loaded"
	case EventPluginUnloaded:
		return "unloaded"
	case EventPluginInitialized:
		return "initialized"
	case EventPluginReloaded:
		return "reloaded"
	case EventPluginError:
		return "error"
	default:
		return "unknown"
	}
}

// NewManager creates a new plugin manager.
func NewManager(config ManagerConfig, opts ...ManagerOption) *Manager {
	if config.MaxParallel <= 0 {
		config.MaxParallel = 1
	}
	if !config.Platform.Valid() {
		config.Platform = accel.CurrentPlatform()
	}

	m := &Manager{
		loader:    NewLoader(WithPaths(config.PluginPaths...)),
		plugins:   make(map[string]*Host),
		loadOrder: make([]string, 0),
		table:     &dispatchTable{},
		windows:   make(map[windowKey]*toolwin.Window),
		config:    config,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.metrics == nil {
		m.metrics = NewMetrics()
	}
	m.rebuildLocked()
	return m
}

// Metrics returns the collectors the manager records into.
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

func (m *Manager) hostOptions() []HostOption {
	return []HostOption{
		WithHostExecutionTimeout(m.config.ExecutionTimeout),
		WithHostInstructionLimit(m.config.InstructionLimit),
		WithHostLogger(m.log),
	}
}

// Register adds a Go plugin. If an editor was already initialized, the
// plugin is initialized with it right away.
func (m *Manager) Register(p pluginapi.EditorPlugin) (*Host, error) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	host, err := NewPluginHost(p, m.hostOptions()...)
	if err != nil {
		return nil, err
	}
	if err := m.add(host); err != nil {
		return nil, err
	}
	m.initializeLocked(host)
	return host, nil
}

// Load loads a Lua plugin by name from the search paths.
// If the plugin is already registered, returns ErrAlreadyLoaded.
func (m *Manager) Load(ctx context.Context, name string) (*Host, error) {
	if _, exists := m.Get(name); exists {
		return nil, fmt.Errorf("plugin %q: %w", name, ErrAlreadyLoaded)
	}

	info, err := m.loader.FindPlugin(name)
	if err != nil {
		return nil, err
	}
	return m.loadInfo(ctx, info)
}

// LoadDir loads the Lua plugin in a directory or a single .lua file,
// outside the search paths.
func (m *Manager) LoadDir(ctx context.Context, path string) (*Host, error) {
	if err := ValidatePlugin(path); err != nil {
		return nil, err
	}

	var info *PluginInfo
	if filepath.Ext(path) == ".lua" {
		info = singleFilePlugin(filepath.Dir(path), filepath.Base(path))
	} else {
		info = inspectDir(filepath.Base(path), path)
	}
	if info.Error != nil {
		return nil, info.Error
	}
	return m.loadInfo(ctx, info)
}

// loadInfo loads and registers one discovered plugin.
func (m *Manager) loadInfo(ctx context.Context, info *PluginInfo) (*Host, error) {
	if _, exists := m.Get(info.Name); exists {
		return nil, fmt.Errorf("plugin %q: %w", info.Name, ErrAlreadyLoaded)
	}

	host, err := m.loadHost(ctx, info.Manifest)
	if err != nil {
		m.recordFailure(info.Name, HookLoad, err)
		return nil, fmt.Errorf("failed to load plugin %q: %w", info.Name, err)
	}

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	if err := m.add(host); err != nil {
		host.Unload()
		return nil, err
	}
	m.initializeLocked(host)
	return host, nil
}

type loadResult struct {
	info *PluginInfo
	host *Host
	err  error
}

// LoadAll discovers and loads all plugins. Up to MaxParallel plugins are
// loaded concurrently; each gets its own Lua state. Plugins are registered
// in name order regardless of which finished loading first.
func (m *Manager) LoadAll(ctx context.Context) error {
	infos := m.loader.Discover()
	results := make([]loadResult, len(infos))

	pool, err := ants.NewPool(m.config.MaxParallel)
	if err != nil {
		return fmt.Errorf("failed to create load pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, info := range infos {
		results[i].info = info
		if info.Error != nil {
			results[i].err = info.Error
			continue
		}
		if _, exists := m.Get(info.Name); exists {
			results[i].err = ErrAlreadyLoaded
			continue
		}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			results[i].host, results[i].err = m.loadHost(ctx, info.Manifest)
		})
		if err != nil {
			wg.Done()
			results[i].err = err
		}
	}
	wg.Wait()

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	var loadErrors []error
	for _, r := range results {
		if r.err == nil {
			if r.err = m.add(r.host); r.err != nil {
				r.host.Unload()
			}
		}
		if r.err != nil {
			m.recordFailure(r.info.Name, HookLoad, r.err)
			loadErrors = append(loadErrors, fmt.Errorf("%s: %w", r.info.Name, r.err))
			continue
		}
		m.initializeLocked(r.host)
	}

	if len(loadErrors) > 0 {
		return fmt.Errorf("failed to load %d plugins: %w", len(loadErrors), errors.Join(loadErrors...))
	}
	return nil
}

func (m *Manager) loadHost(ctx context.Context, manifest *Manifest) (*Host, error) {
	host, err := NewHost(manifest, m.hostOptions()...)
	if err != nil {
		return nil, err
	}
	if err := host.Load(ctx); err != nil {
		return nil, err
	}
	return host, nil
}

// add registers host and rebuilds the dispatch table.
func (m *Manager) add(host *Host) error {
	m.mu.Lock()
	if _, exists := m.plugins[host.Name()]; exists {
		m.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", host.Name(), ErrAlreadyLoaded)
	}
	m.plugins[host.Name()] = host
	m.loadOrder = append(m.loadOrder, host.Name())
	m.rebuildLocked()
	m.mu.Unlock()

	m.log.Info().Str("plugin", host.Name()).Msg("plugin loaded")
	m.emitEvent(ManagerEvent{Type: EventPluginLoaded, Plugin: host.Name()})
	return nil
}

// rebuildLocked recomputes the dispatch table. Caller must hold m.mu.
func (m *Manager) rebuildLocked() {
	hosts := make([]*Host, 0, len(m.loadOrder))
	for _, name := range m.loadOrder {
		hosts = append(hosts, m.plugins[name])
	}
	m.table = buildTable(hosts, m.config.Platform, m.log)
	m.metrics.setLoaded(len(hosts))
}

func (m *Manager) rebuild() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuildLocked()
}

// InitializeEditor hands editor to every plugin, for example when the user
// switches tabs. Later actions run against this editor. Plugin failures
// are reported together; the remaining plugins are still initialized.
func (m *Manager) InitializeEditor(editor pluginapi.EditorWrapper) error {
	if editor == nil {
		return ErrNotInitialized
	}

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	m.editor = editor
	m.mu.Unlock()

	var initErrors []error
	for _, host := range m.List() {
		if err := m.initializeLocked(host); err != nil {
			initErrors = append(initErrors, err)
		}
	}
	m.rebuild()
	return errors.Join(initErrors...)
}

// initializeLocked initializes host with the current editor, if any.
// Caller must hold m.dispatchMu.
func (m *Manager) initializeLocked(host *Host) error {
	m.mu.RLock()
	editor := m.editor
	m.mu.RUnlock()
	if editor == nil {
		return nil
	}

	if err := host.Initialize(editor); err != nil {
		m.recordFailure(host.Name(), HookInitialize, err)
		return err
	}
	m.rebuild()
	m.emitEvent(ManagerEvent{Type: EventPluginInitialized, Plugin: host.Name()})
	return nil
}

// Editor returns the editor handed to the plugins, or nil.
func (m *Manager) Editor() pluginapi.EditorWrapper {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.editor
}

// Trigger dispatches an action code as if its menu entry was clicked.
// Codes no plugin advertised are logged, counted and reported as
// pluginapi.ErrUnknownAction.
func (m *Manager) Trigger(code string) error {
	m.mu.RLock()
	b, ok := m.table.lookupCode(code)
	m.mu.RUnlock()

	if !ok {
		m.metrics.recordUnknown()
		m.log.Warn().Str("code", code).Msg("unknown action code")
		return fmt.Errorf("%w: %s", pluginapi.ErrUnknownAction, code)
	}
	return m.dispatch(b)
}

// HandleKey dispatches a terminal key event. It returns true if the key is
// bound to a plugin action.
func (m *Manager) HandleKey(ev *tcell.EventKey) (bool, error) {
	return m.HandleChord(accel.FromTcell(ev))
}

// HandleChord dispatches a key chord. It returns true if the chord is bound
// to a plugin action.
func (m *Manager) HandleChord(c accel.Chord) (bool, error) {
	m.mu.RLock()
	b, ok := m.table.lookupChord(c)
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	return true, m.dispatch(b)
}

// transactor is implemented by editors that group edits for undo.
type transactor interface {
	Transaction(name string, fn func() error) error
}

// dispatch runs the action of b against the current editor. When the editor
// supports it, the edits of one action form a single undo entry.
func (m *Manager) dispatch(b *Binding) error {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.RLock()
	editor := m.editor
	m.mu.RUnlock()
	if editor == nil {
		return fmt.Errorf("action %s: %w", b.Code, ErrNotInitialized)
	}

	action := b.Action
	if !b.HasAction {
		action = pluginapi.EditorAction{Code: b.Code}
	}

	m.metrics.recordDispatch(b.Plugin)
	m.log.Debug().Str("plugin", b.Plugin).Str("code", b.Code).Msg("dispatch action")

	perform := func() error { return b.host.Perform(action, editor) }
	var err error
	if tx, ok := editor.(transactor); ok {
		err = tx.Transaction(b.Code, perform)
	} else {
		err = perform()
	}
	if err != nil {
		m.recordFailure(b.Plugin, hookOf(err, HookDoAction), err)
		return err
	}
	return nil
}

// Bindings returns every bound action in registration order.
func (m *Manager) Bindings() []Binding {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table.bindings()
}

// MountToolWindow mounts the tool window of a plugin's toolbar item.
// A window already mounted for the item is closed and replaced.
func (m *Manager) MountToolWindow(name, label string) (*toolwin.Window, error) {
	host, ok := m.Get(name)
	if !ok {
		return nil, fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	w, err := host.Mount(label)
	var hookErr *HookError
	if errors.As(err, &hookErr) {
		m.recordFailure(name, hookErr.Hook, err)
	}
	if w == nil {
		return nil, err
	}

	key := windowKey{plugin: name, label: label}
	m.mu.Lock()
	if old, exists := m.windows[key]; exists {
		old.Close()
	}
	m.windows[key] = w
	m.mu.Unlock()
	return w, err
}

// EmitToolWindowEvent delivers an event to a mounted tool window.
// Listeners run under the dispatch lock like every other plugin call.
func (m *Manager) EmitToolWindowEvent(name, label, event, target string, data map[string]string) (int, error) {
	m.mu.RLock()
	w, ok := m.windows[windowKey{plugin: name, label: label}]
	m.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("plugin %q: %w: %q", name, ErrNoToolWindow, label)
	}

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	host, ok := m.Get(name)
	if !ok {
		return 0, fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}
	var n int
	err := host.call(HookMount, func() error {
		var err error
		n, err = w.Emit(event, target, data)
		return err
	})
	return n, err
}

// closeWindowsLocked closes the tool windows of a plugin.
// Caller must hold m.mu.
func (m *Manager) closeWindowsLocked(name string) {
	for key, w := range m.windows {
		if key.plugin == name {
			w.Close()
			delete(m.windows, key)
		}
	}
}

// Reload replaces a Lua plugin with a freshly loaded copy of its files.
// If loading fails the running copy is kept. Go plugins re-read their
// contributions.
func (m *Manager) Reload(ctx context.Context, name string) error {
	old, ok := m.Get(name)
	if !ok {
		return fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}

	if old.Manifest() == nil {
		m.dispatchMu.Lock()
		defer m.dispatchMu.Unlock()
		if err := old.Refresh(); err != nil {
			return err
		}
		m.rebuild()
		m.emitEvent(ManagerEvent{Type: EventPluginReloaded, Plugin: name})
		return nil
	}

	manifest, err := reloadManifest(old.Manifest())
	if err != nil {
		m.recordFailure(name, HookLoad, err)
		return fmt.Errorf("failed to reload plugin %q: %w", name, err)
	}
	host, err := m.loadHost(ctx, manifest)
	if err != nil {
		m.recordFailure(name, HookLoad, err)
		return fmt.Errorf("failed to reload plugin %q: %w", name, err)
	}

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	if m.plugins[name] != old {
		m.mu.Unlock()
		host.Unload()
		return fmt.Errorf("plugin %q: %w", name, ErrNotLoaded)
	}
	m.plugins[name] = host
	m.closeWindowsLocked(name)
	m.rebuildLocked()
	m.mu.Unlock()

	if err := old.Unload(); err != nil {
		m.log.Warn().Err(err).Str("plugin", name).Msg("failed to release previous plugin state")
	}
	m.initializeLocked(host)

	m.log.Info().Str("plugin", name).Msg("plugin reloaded")
	m.emitEvent(ManagerEvent{Type: EventPluginReloaded, Plugin: name})
	return nil
}

// reloadManifest re-reads the manifest of a loaded plugin.
func reloadManifest(old *Manifest) (*Manifest, error) {
	if old.IsMinimal() {
		m := old.Clone()
		if _, err := os.Stat(m.MainPath()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoEntryPoint, err)
		}
		return m, nil
	}

	m, err := LoadManifestFromDir(old.Path())
	if err != nil {
		return nil, err
	}
	if m.Name != old.Name {
		return nil, fmt.Errorf("%w: manifest renamed %q to %q", ErrInvalidPlugin, old.Name, m.Name)
	}
	return m, nil
}

// Unload removes a plugin and releases its runtime.
func (m *Manager) Unload(name string) error {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	host, exists := m.plugins[name]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}
	delete(m.plugins, name)
	m.removeFromLoadOrder(name)
	m.closeWindowsLocked(name)
	m.rebuildLocked()
	m.mu.Unlock()

	if err := host.Unload(); err != nil && !errors.Is(err, ErrNotLoaded) {
		return fmt.Errorf("failed to unload plugin %q: %w", name, err)
	}

	m.log.Info().Str("plugin", name).Msg("plugin unloaded")
	m.emitEvent(ManagerEvent{Type: EventPluginUnloaded, Plugin: name})
	return nil
}

// UnloadAll unloads all plugins in reverse load order.
func (m *Manager) UnloadAll() error {
	m.mu.RLock()
	names := slices.Clone(m.loadOrder)
	m.mu.RUnlock()
	slices.Reverse(names)

	var unloadErrors []error
	for _, name := range names {
		if err := m.Unload(name); err != nil {
			unloadErrors = append(unloadErrors, fmt.Errorf("%s: %w", name, err))
		}
	}

	if len(unloadErrors) > 0 {
		return fmt.Errorf("failed to unload %d plugins: %w", len(unloadErrors), errors.Join(unloadErrors...))
	}
	return nil
}

// removeFromLoadOrder removes a plugin from the load order.
// Caller must hold m.mu.
func (m *Manager) removeFromLoadOrder(name string) {
	if i := slices.Index(m.loadOrder, name); i >= 0 {
		m.loadOrder = slices.Delete(m.loadOrder, i, i+1)
	}
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Host, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	host, exists := m.plugins[name]
	return host, exists
}

// List returns all registered plugins in load order.
func (m *Manager) List() []*Host {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Host, 0, len(m.loadOrder))
	for _, name := range m.loadOrder {
		if host, exists := m.plugins[name]; exists {
			result = append(result, host)
		}
	}
	return result
}

// ListByState returns plugins in a specific state.
func (m *Manager) ListByState(state State) []*Host {
	var result []*Host
	for _, host := range m.List() {
		if host.State() == state {
			result = append(result, host)
		}
	}
	return result
}

// Count returns the number of registered plugins.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.plugins)
}

// Subscribe registers an event handler.
func (m *Manager) Subscribe(handler EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventHandlers = append(m.eventHandlers, handler)
}

// emitEvent sends an event to all handlers.
func (m *Manager) emitEvent(event ManagerEvent) {
	m.mu.RLock()
	handlers := slices.Clone(m.eventHandlers)
	m.mu.RUnlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.log.Error().Interface("panic", r).Str("event", event.Type.String()).Msg("event handler panicked")
				}
			}()
			handler(event)
		}()
	}
}

// recordFailure logs and counts a plugin failure and emits an error event.
func (m *Manager) recordFailure(name, hook string, err error) {
	m.metrics.recordError(name, hook)
	m.log.Error().Err(err).Str("plugin", name).Str("hook", hook).Msg("plugin error")
	m.emitEvent(ManagerEvent{Type: EventPluginError, Plugin: name, Error: err})
}

// hookOf returns the hook named by a *HookError in err, or fallback.
func hookOf(err error, fallback string) string {
	var hookErr *HookError
	if errors.As(err, &hookErr) {
		return hookErr.Hook
	}
	return fallback
}
