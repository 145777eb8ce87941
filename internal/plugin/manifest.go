package plugin

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ManifestFile is looked up in the root of directory plugins.
const ManifestFile = "plugin.json"

// KindLua is the only runtime plugin.json may name.
const KindLua = "lua"

// Manifest is the content of plugin.json, or a stand-in derived from the
// file layout when a plugin has none.
type Manifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Main        string `json:"main"` // relative to the plugin directory
	Kind        string `json:"kind"`

	path    string
	minimal bool
}

var (
	ErrMissingName    = errors.New("manifest: name is required")
	ErrInvalidName    = errors.New("manifest: name must be lower case letters, digits and inner hyphens")
	ErrMissingVersion = errors.New("manifest: version is required")
	ErrInvalidVersion = errors.New("manifest: version must be valid semver")
	ErrInvalidMain    = errors.New("manifest: main must be a .lua file inside the plugin")
	ErrInvalidKind    = errors.New("manifest: unknown plugin kind")
)

var (
	pluginName = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)
	semver     = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)
)

// LoadManifest reads the plugin.json at path, fills in defaults and
// validates the result.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m := &Manifest{path: filepath.Dir(path)}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	m.Main = cmp.Or(m.Main, "init.lua")
	m.Version = cmp.Or(m.Version, "0.0.0")
	m.Kind = cmp.Or(m.Kind, KindLua)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadManifestFromDir is LoadManifest on dir/plugin.json.
func LoadManifestFromDir(dir string) (*Manifest, error) {
	return LoadManifest(filepath.Join(dir, ManifestFile))
}

// NewManifestMinimal describes a plugin that has no plugin.json: main is
// its entry file inside the directory path.
func NewManifestMinimal(name, path, main string) *Manifest {
	return &Manifest{
		Name:    name,
		Version: "0.0.0",
		Main:    main,
		Kind:    KindLua,
		path:    path,
		minimal: true,
	}
}

// Validate returns the first problem found with m. Empty Main and Kind
// are accepted.
func (m *Manifest) Validate() error {
	checks := []struct {
		bad bool
		err error
	}{
		{m.Name == "", ErrMissingName},
		{!pluginName.MatchString(m.Name), fmt.Errorf("%w: %s", ErrInvalidName, m.Name)},
		{m.Version == "", ErrMissingVersion},
		{!semver.MatchString(m.Version), fmt.Errorf("%w: %s", ErrInvalidVersion, m.Version)},
		{m.Main != "" && (filepath.Ext(m.Main) != ".lua" || !filepath.IsLocal(m.Main)), fmt.Errorf("%w: %s", ErrInvalidMain, m.Main)},
		{m.Kind != "" && m.Kind != KindLua, fmt.Errorf("%w: %s", ErrInvalidKind, m.Kind)},
	}
	for _, c := range checks {
		if c.bad {
			return c.err
		}
	}
	return nil
}

// Path is the directory the plugin lives in. For single-file plugins it is
// the search path holding the file.
func (m *Manifest) Path() string { return m.path }

func (m *Manifest) MainPath() string { return filepath.Join(m.path, m.Main) }

// IsMinimal reports whether m was derived from the layout rather than read
// from plugin.json.
func (m *Manifest) IsMinimal() bool { return m.minimal }

// Title is DisplayName, or Name when no display name is set.
func (m *Manifest) Title() string { return cmp.Or(m.DisplayName, m.Name) }

func (m *Manifest) String() string {
	return m.Title() + " v" + m.Version
}

func (m *Manifest) Clone() *Manifest {
	c := *m
	return &c
}
