package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/dshills/keyplug/internal/accel"
)

// Config is the host configuration.
type Config struct {
	Plugins PluginsConfig `toml:"plugins"`
	Log     LogConfig     `toml:"log"`
	Keys    KeysConfig    `toml:"keys"`
	Lua     LuaConfig     `toml:"lua"`
}

// PluginsConfig controls plugin discovery.
type PluginsConfig struct {
	// Paths are searched in order. The first plugin with a given name wins.
	Paths []string `toml:"paths"`

	// MaxParallel bounds concurrent plugin loading.
	MaxParallel int `toml:"max_parallel"`

	// Watch enables hot reload when plugin files change.
	Watch bool `toml:"watch"`
}

// LogConfig controls the host logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// KeysConfig controls accelerator resolution.
type KeysConfig struct {
	// Platform overrides the platform CmdOrCtrl resolves against.
	Platform string `toml:"platform"`
}

// LuaConfig controls the Lua runtime.
type LuaConfig struct {
	// InstructionLimit caps instructions per hook call. Zero means unlimited.
	InstructionLimit int64 `toml:"instruction_limit"`

	// Timeout caps the wall time of a hook call. Zero means unlimited.
	Timeout Duration `toml:"timeout"`
}

// Duration is a time.Duration read from a TOML string like "5s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

const (
	defaultMaxParallel      = 4
	defaultInstructionLimit = 10_000_000
	defaultLuaTimeout       = 5 * time.Second
)

var (
	logLevels  = []string{"trace", "debug", "info", "warn", "error"}
	logFormats = []string{"console", "json"}
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Plugins: PluginsConfig{
			Paths:       []string{"plugins"},
			MaxParallel: defaultMaxParallel,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Lua: LuaConfig{
			InstructionLimit: defaultInstructionLimit,
			Timeout:          Duration(defaultLuaTimeout),
		},
	}
}

// Platform returns the configured accelerator platform, or the running OS
// when none is set.
func (c *Config) Platform() accel.Platform {
	if c.Keys.Platform == "" {
		return accel.CurrentPlatform()
	}
	return accel.Platform(c.Keys.Platform)
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c.Plugins.MaxParallel < 1 {
		return fmt.Errorf("%w: plugins.max_parallel must be at least 1, got %d", ErrValidationFailed, c.Plugins.MaxParallel)
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("%w: log.level %q not one of %v", ErrValidationFailed, c.Log.Level, logLevels)
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("%w: log.format %q not one of %v", ErrValidationFailed, c.Log.Format, logFormats)
	}
	if c.Keys.Platform != "" && !accel.Platform(c.Keys.Platform).Valid() {
		return fmt.Errorf("%w: keys.platform %q unknown", ErrValidationFailed, c.Keys.Platform)
	}
	if c.Lua.InstructionLimit < 0 {
		return fmt.Errorf("%w: lua.instruction_limit must not be negative", ErrValidationFailed)
	}
	if c.Lua.Timeout < 0 {
		return fmt.Errorf("%w: lua.timeout must not be negative", ErrValidationFailed)
	}
	return nil
}
