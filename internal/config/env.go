package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "KEYPLUG_"

// EnvLoader applies environment variable overrides to a Config.
type EnvLoader struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnvLoader creates a loader for variables starting with prefix.
// The prefix should include the trailing underscore (e.g., "KEYPLUG_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{prefix: prefix, lookup: os.LookupEnv}
}

// envSetting binds a variable suffix to a config field.
type envSetting struct {
	name  string
	apply func(cfg *Config, value string) error
}

var envSettings = []envSetting{
	{"PLUGINS_PATHS", func(c *Config, v string) error {
		c.Plugins.Paths = filepath.SplitList(v)
		return nil
	}},
	{"PLUGINS_MAX_PARALLEL", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.Plugins.MaxParallel = n
		return err
	}},
	{"PLUGINS_WATCH", func(c *Config, v string) (err error) {
		c.Plugins.Watch, err = parseBool(v)
		return err
	}},
	{"LOG_LEVEL", func(c *Config, v string) error {
		c.Log.Level = strings.ToLower(v)
		return nil
	}},
	{"LOG_FORMAT", func(c *Config, v string) error {
		c.Log.Format = strings.ToLower(v)
		return nil
	}},
	{"KEYS_PLATFORM", func(c *Config, v string) error {
		c.Keys.Platform = strings.ToLower(v)
		return nil
	}},
	{"LUA_INSTRUCTION_LIMIT", func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		c.Lua.InstructionLimit = n
		return err
	}},
	{"LUA_TIMEOUT", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		c.Lua.Timeout = Duration(d)
		return err
	}},
}

// Apply overrides cfg fields from set environment variables.
// Empty values are treated as set.
func (l *EnvLoader) Apply(cfg *Config) error {
	for _, s := range envSettings {
		name := l.prefix + s.name
		val, ok := l.lookup(name)
		if !ok {
			continue
		}
		if err := s.apply(cfg, val); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, name, val, err)
		}
	}
	return nil
}

// parseBool accepts true/false, yes/no, on/off and 1/0.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
