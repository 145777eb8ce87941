// Package config loads the keyplug host configuration.
//
// Configuration is resolved in three steps, later steps overriding earlier
// ones:
//
//  1. Built-in defaults (Default)
//  2. A TOML file, usually keyplug.toml
//  3. KEYPLUG_* environment variables
//
// A missing file is not an error; the defaults and environment still apply.
// The result is checked with Validate before it is returned.
//
// # File format
//
//	[plugins]
//	paths = ["~/.config/keyplug/plugins", "./plugins"]
//	max_parallel = 4
//	watch = true
//
//	[log]
//	level = "info"     # trace, debug, info, warn, error
//	format = "console" # console or json
//
//	[keys]
//	platform = "linux" # darwin, linux, windows; empty for the running OS
//
//	[lua]
//	instruction_limit = 10000000
//	timeout = "5s"
//
// # Environment
//
//	KEYPLUG_PLUGINS_PATHS         list separated by the OS path list separator
//	KEYPLUG_PLUGINS_MAX_PARALLEL  integer
//	KEYPLUG_PLUGINS_WATCH         true/false, yes/no, on/off, 1/0
//	KEYPLUG_LOG_LEVEL
//	KEYPLUG_LOG_FORMAT
//	KEYPLUG_KEYS_PLATFORM
//	KEYPLUG_LUA_INSTRUCTION_LIMIT integer
//	KEYPLUG_LUA_TIMEOUT           Go duration
package config
