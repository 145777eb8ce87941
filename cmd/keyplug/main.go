// Package main is the entry point for the keyplug plugin host.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/dshills/keyplug/internal/config"
	"github.com/dshills/keyplug/internal/logging"
	"github.com/dshills/keyplug/internal/plugin"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// command is one keyplug subcommand.
type command struct {
	name    string
	summary string
	run     func(args []string, stdout, stderr io.Writer) int
}

var commands = []command{
	{"check", "Load plugins and verify their contributions", runCheck},
	{"list", "List plugins, actions and accelerators", runList},
	{"run", "Dispatch actions against a file and print the result", runRun},
	{"watch", "Reload plugins on change and re-check them", runWatch},
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return exitOK
	case "-v", "-version", "--version", "version":
		fmt.Fprintf(stdout, "keyplug %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return exitOK
	}

	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:], stdout, stderr)
		}
	}
	fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
	usage(stderr)
	return exitUsage
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "keyplug - editor plugin host\n\n")
	fmt.Fprintf(w, "Usage: keyplug <command> [options]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(w, "\nExamples:\n")
	fmt.Fprintf(w, "  keyplug check ./plugins\n")
	fmt.Fprintf(w, "  keyplug list -config keyplug.toml\n")
	fmt.Fprintf(w, "  keyplug run -file notes.md -select 0:5 -keys CmdOrCtrl+B\n")
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func (g *globalFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.configPath, "config", config.DefaultFile, "Path to configuration file")
	fs.StringVar(&g.configPath, "c", config.DefaultFile, "Path to configuration file (shorthand)")
	fs.StringVar(&g.logLevel, "log-level", "", "Log level override (trace, debug, info, warn, error)")
}

// session is the configured host a subcommand works with.
type session struct {
	cfg     *config.Config
	log     zerolog.Logger
	manager *plugin.Manager
}

// newSession loads the configuration and creates a manager. Non-empty
// paths replace the configured plugin paths.
func newSession(g globalFlags, paths []string, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if len(paths) > 0 {
		cfg.Plugins.Paths = paths
	}

	log, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: stderr,
	})
	if err != nil {
		return nil, err
	}

	mc := plugin.ManagerConfig{
		PluginPaths:      cfg.Plugins.Paths,
		MaxParallel:      cfg.Plugins.MaxParallel,
		Platform:         cfg.Platform(),
		ExecutionTimeout: cfg.Lua.Timeout.Std(),
		InstructionLimit: cfg.Lua.InstructionLimit,
	}
	m := plugin.NewManager(mc, plugin.WithLogger(logging.Component(log, "plugin")))
	return &session{cfg: cfg, log: log, manager: m}, nil
}

// loadPlugins loads every discovered plugin. Load failures are logged and
// reported through the returned error, the remaining plugins stay usable.
func (s *session) loadPlugins(ctx context.Context) error {
	err := s.manager.LoadAll(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("some plugins failed to load")
	}
	return err
}

func (s *session) close() {
	if err := s.manager.UnloadAll(); err != nil {
		s.log.Debug().Err(err).Msg("unload")
	}
}

// parseFlags parses args and reports whether the command should go on.
// On false, code is the exit code to return.
func parseFlags(fs *flag.FlagSet, args []string) (ok bool, code int) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, exitOK
		}
		return false, exitUsage
	}
	return true, exitOK
}
