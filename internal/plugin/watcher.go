package plugin

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher defaults.
const (
	DefaultDebounce   = 100 * time.Millisecond
	DefaultMaxRetries = 5
)

// ErrWatcherClosed is returned when starting a closed watcher.
var ErrWatcherClosed = errors.New("watcher is closed")

// ReloadResult reports one reload triggered by a file change.
type ReloadResult struct {
	Plugin string
	Err    error
}

// Watcher reloads Lua plugins when their files change.
//
// Changes to .lua files and plugin.json are debounced per plugin. Reloads
// that fail, typically because a file is half written, are retried with
// exponential backoff.
type Watcher struct {
	mu sync.Mutex

	manager *Manager
	fsw     *fsnotify.Watcher
	watched map[string]bool

	debounce   time.Duration
	maxRetries uint64
	log        zerolog.Logger

	results chan ReloadResult

	started bool
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long a plugin's files must be quiet before a reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithMaxRetries sets how often a failed reload is retried.
func WithMaxRetries(n uint64) WatcherOption {
	return func(w *Watcher) {
		w.maxRetries = n
	}
}

// WithWatcherLogger sets the logger of the watcher.
func WithWatcherLogger(log zerolog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.log = log
	}
}

// NewWatcher creates a watcher for the Lua plugins registered on m.
func NewWatcher(m *Manager, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		manager:    m,
		fsw:        fsw,
		watched:    make(map[string]bool),
		debounce:   DefaultDebounce,
		maxRetries: DefaultMaxRetries,
		log:        m.log,
		results:    make(chan ReloadResult, 16),
		closeCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Results returns the channel reload outcomes are sent to. Results are
// dropped when nobody drains the channel.
func (w *Watcher) Results() <-chan ReloadResult {
	return w.results
}

// Start watches the directories of the plugins registered at the time of
// the call and processes changes until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.started {
		return nil
	}

	for _, host := range w.manager.List() {
		manifest := host.Manifest()
		if manifest == nil {
			continue
		}
		if err := w.watchPlugin(manifest); err != nil {
			return err
		}
	}

	w.started = true
	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// watchPlugin adds the directories of one plugin. Caller must hold w.mu.
func (w *Watcher) watchPlugin(manifest *Manifest) error {
	root, err := filepath.Abs(manifest.Path())
	if err != nil {
		return err
	}
	if isSingleFile(manifest) {
		return w.add(root)
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return w.add(p)
	})
}

func (w *Watcher) add(dir string) error {
	if w.watched[dir] {
		return nil
	}
	if err := w.fsw.Add(dir); err != nil {
		return err
	}
	w.watched[dir] = true
	return nil
}

// WatchedPaths returns the watched directories.
func (w *Watcher) WatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.watched))
	for p := range w.watched {
		paths = append(paths, p)
	}
	return paths
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	timers := make(map[string]*time.Timer)
	fire := make(chan string)
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			name, ok := w.pluginFor(ev)
			if !ok {
				continue
			}
			if t, pending := timers[name]; pending {
				t.Stop()
			}
			timers[name] = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- name:
				case <-w.closeCh:
				case <-ctx.Done():
				}
			})

		case name := <-fire:
			delete(timers, name)
			w.reload(ctx, name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("plugin watcher error")
		}
	}
}

// pluginFor maps a file event to the plugin owning the file.
func (w *Watcher) pluginFor(ev fsnotify.Event) (string, bool) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
		return "", false
	}
	base := filepath.Base(ev.Name)
	if filepath.Ext(base) != ".lua" && base != ManifestFile {
		return "", false
	}

	path, err := filepath.Abs(ev.Name)
	if err != nil {
		return "", false
	}

	for _, host := range w.manager.List() {
		manifest := host.Manifest()
		if manifest == nil {
			continue
		}
		if isSingleFile(manifest) {
			if main, err := filepath.Abs(manifest.MainPath()); err == nil && main == path {
				return host.Name(), true
			}
			continue
		}
		root, err := filepath.Abs(manifest.Path())
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return host.Name(), true
		}
	}
	return "", false
}

// reload reloads a plugin, retrying with exponential backoff.
func (w *Watcher) reload(ctx context.Context, name string) {
	op := func() error {
		err := w.manager.Reload(ctx, name)
		if errors.Is(err, ErrPluginNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.closeCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.debounce
	b := backoff.WithContext(backoff.WithMaxRetries(policy, w.maxRetries), ctx)

	err := backoff.RetryNotify(op, b, func(err error, next time.Duration) {
		w.log.Debug().Err(err).Str("plugin", name).Dur("retry_in", next).Msg("reload failed, retrying")
	})
	if err != nil {
		w.log.Error().Err(err).Str("plugin", name).Msg("reload failed")
	}

	select {
	case w.results <- ReloadResult{Plugin: name, Err: err}:
	default:
	}
}

// isSingleFile reports whether the manifest describes a lone .lua file
// sitting next to other plugins.
func isSingleFile(m *Manifest) bool {
	return m.IsMinimal() && m.Main == m.Name+".lua"
}
