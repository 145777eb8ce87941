// Package plugin hosts editor plugins and routes editor actions to them.
//
// Plugins are either Go values implementing pluginapi.EditorPlugin, added
// with Manager.Register, or Lua scripts discovered on the plugin search
// paths and loaded with Manager.LoadAll.
//
// # Quick Start
//
//	m := plugin.NewManager(plugin.DefaultManagerConfig(), plugin.WithLogger(log))
//	if err := m.LoadAll(ctx); err != nil {
//	    log.Warn().Err(err).Msg("some plugins failed to load")
//	}
//	ed := editor.New(text, editor.WithLanguage("markdown"))
//	if err := m.InitializeEditor(ed); err != nil {
//	    log.Warn().Err(err).Msg("some plugins failed to initialize")
//	}
//
//	// Menu click
//	err := m.Trigger("fmt.bold")
//
//	// Keyboard shortcut
//	handled, err := m.HandleKey(ev)
//
// # Plugin Structure
//
// Plugins can be either single-file or directory-based:
//
// Single-file plugin:
//
//	plugins/upper.lua
//
// Directory plugin:
//
//	plugins/markdown-tools/
//	├── plugin.json      # Manifest (optional)
//	├── init.lua         # Entry point
//	└── lib/             # Additional modules
//	    └── helper.lua
//
// When two search paths hold a plugin with the same name, the first path
// wins.
//
// # Manifest
//
// The plugin.json manifest describes the plugin:
//
//	{
//	  "name": "markdown-tools",
//	  "version": "1.0.0",
//	  "displayName": "Markdown Tools",
//	  "description": "Bold, italics and a preview window",
//	  "main": "init.lua",
//	  "kind": "lua"
//	}
//
// # Dispatch
//
// The manager builds one dispatch table from the codes each plugin
// advertises through AvailableActions and the actions of its application
// menu. A triggered code runs the action's Perform function if it has one,
// and the plugin's DoAction otherwise. Codes nobody advertised are logged,
// counted and answered with pluginapi.ErrUnknownAction. When the editor
// has a Transaction(name, fn) method, the edits of one action are grouped
// under the action code so they undo together.
//
// Accelerators are resolved for the configured platform. When two plugins
// claim the same chord, or the same code, the plugin registered first keeps
// it and the collision is logged.
//
// Context menu items are recorded but not bound.
//
// # Lifecycle
//
//	unloaded → loaded → active
//	              ↓        ↓
//	            error ←────┘
//
// A plugin becomes active once InitializePlugin accepted an editor. A
// failing hook, at load or initialization, puts the plugin in the error
// state; errored plugins are left out of the dispatch table until the next
// successful initialization.
//
// # Concurrency
//
// Every call from the manager into plugin code, including tool window
// listeners, is serialized by one dispatch mutex. Lua plugins are loaded
// in parallel, bounded by ManagerConfig.MaxParallel, since each owns its
// own Lua state.
//
// # Hot Reload
//
// Watcher observes the directories of loaded Lua plugins and calls
// Manager.Reload when a .lua file or plugin.json changes. A reload that
// fails keeps the running copy.
//
// # Conformance
//
// Check validates a plugin's contributions without running any action:
//
//	report := plugin.Check(p, accel.PlatformLinux)
//	for _, v := range report.Violations {
//	    fmt.Println(v)
//	}
//
// # Metrics
//
// Each manager records into prometheus collectors exposed by Metrics:
// keyplug_actions_dispatched_total, keyplug_unknown_actions_total,
// keyplug_plugin_errors_total and keyplug_plugins_loaded.
package plugin
