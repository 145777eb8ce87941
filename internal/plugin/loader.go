package plugin

import (
	"cmp"
	"fmt"
	"iter"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Entry points tried, in order, for a directory without plugin.json.
var entryPoints = []string{"init.lua", "plugin.lua"}

// PluginInfo is one plugin found on disk. Error is set, and Manifest may be
// nil, when the plugin cannot be loaded.
type PluginInfo struct {
	Name     string
	Path     string
	Manifest *Manifest
	Error    error
}

// Loader finds Lua plugins on an ordered list of search paths. A search
// path holds single-file plugins (name.lua) and directory plugins side by
// side.
type Loader struct {
	mu    sync.Mutex
	paths []string
	found map[string]*PluginInfo
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPaths replaces the default search paths.
func WithPaths(paths ...string) LoaderOption {
	return func(l *Loader) {
		l.paths = paths
	}
}

// NewLoader creates a loader searching DefaultPluginPaths unless
// WithPaths is given.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		paths: DefaultPluginPaths(),
		found: make(map[string]*PluginInfo),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DefaultPluginPaths is ./plugins followed by ~/.config/keyplug/plugins.
func DefaultPluginPaths() []string {
	paths := []string{"plugins"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "keyplug", "plugins"))
	}
	return paths
}

func (l *Loader) Paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.paths)
}

// Discover rescans every search path and returns the plugins found, sorted
// by name. A name claimed on an earlier path shadows the same name later on.
// Broken plugins are included with Error set.
func (l *Loader) Discover() []*PluginInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.found = make(map[string]*PluginInfo)
	for _, dir := range l.paths {
		for _, info := range scanDir(dir) {
			if _, taken := l.found[info.Name]; !taken {
				l.found[info.Name] = info
			}
		}
	}
	return sortedInfos(maps.Values(l.found))
}

// Get returns a plugin seen by an earlier Discover or FindPlugin.
func (l *Loader) Get(name string) (*PluginInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	info, ok := l.found[name]
	return info, ok
}

// FindPlugin returns the first loadable plugin called name, looking at
// the search paths in order. Manifest names count, so a directory may hold
// a plugin with a different name.
func (l *Loader) FindPlugin(name string) (*PluginInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, dir := range l.paths {
		for _, info := range scanDir(dir) {
			if info.Name == name && info.Error == nil {
				l.found[name] = info
				return info, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// ListNames returns the sorted names known to the loader.
func (l *Loader) ListNames() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Sorted(maps.Keys(l.found))
}

// Errors returns the known plugins that failed inspection, sorted by name.
func (l *Loader) Errors() []*PluginInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	var broken []*PluginInfo
	for _, info := range l.found {
		if info.Error != nil {
			broken = append(broken, info)
		}
	}
	return sortedInfos(slices.Values(broken))
}

// ValidatePlugin reports whether path, a directory or a .lua file, can be
// loaded as a plugin.
func ValidatePlugin(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPluginNotFound, err)
	}
	if st.IsDir() {
		info := inspectDir(filepath.Base(path), path)
		if info.Error != nil {
			return info.Error
		}
		return info.Manifest.Validate()
	}
	if filepath.Ext(path) != ".lua" {
		return fmt.Errorf("%w: %s", ErrNoEntryPoint, path)
	}
	return nil
}

// scanDir inspects the entries of one search path in directory order. A
// missing or unreadable path yields nothing.
func scanDir(dir string) []*PluginInfo {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var infos []*PluginInfo
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
			infos = append(infos, inspectDir(name, filepath.Join(dir, name)))
		case filepath.Ext(name) == ".lua":
			infos = append(infos, singleFilePlugin(dir, name))
		}
	}
	return infos
}

// singleFilePlugin describes the plugin made of file, a .lua script lying
// directly in dir.
func singleFilePlugin(dir, file string) *PluginInfo {
	name := strings.TrimSuffix(file, ".lua")
	return &PluginInfo{
		Name:     name,
		Path:     dir,
		Manifest: NewManifestMinimal(name, dir, file),
	}
}

// inspectDir reads a directory plugin. plugin.json, when present, decides
// the name and entry point.
func inspectDir(name, dir string) *PluginInfo {
	info := &PluginInfo{Name: name, Path: dir}

	manifestPath := filepath.Join(dir, ManifestFile)
	if _, err := os.Stat(manifestPath); err != nil {
		for _, main := range entryPoints {
			if fileExists(filepath.Join(dir, main)) {
				info.Manifest = NewManifestMinimal(name, dir, main)
				return info
			}
		}
		info.Error = ErrNoEntryPoint
		return info
	}

	m, err := LoadManifest(manifestPath)
	switch {
	case err != nil:
		info.Error = fmt.Errorf("invalid manifest: %w", err)
	case !fileExists(m.MainPath()):
		info.Error = fmt.Errorf("%w: %s", ErrNoEntryPoint, m.Main)
	default:
		info.Name, info.Manifest = m.Name, m
	}
	return info
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func sortedInfos(seq iter.Seq[*PluginInfo]) []*PluginInfo {
	return slices.SortedFunc(seq, func(a, b *PluginInfo) int {
		return cmp.Compare(a.Name, b.Name)
	})
}
