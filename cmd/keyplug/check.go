package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/keyplug/internal/plugin"
)

func runCheck(args []string, stdout, stderr io.Writer) int {
	var g globalFlags
	var strict bool

	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	fs.BoolVar(&strict, "strict", false, "Treat notices as errors")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: keyplug check [options] [dir...]\n\n")
		fmt.Fprintf(stderr, "Loads the plugins found in each dir, or in the configured paths,\n")
		fmt.Fprintf(stderr, "and checks them. Exits 1 if any plugin fails to load or check.\n\n")
		fs.PrintDefaults()
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}

	s, err := newSession(g, fs.Args(), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer s.close()

	failed := false
	if err := s.loadPlugins(context.Background()); err != nil {
		fmt.Fprintln(stdout, err)
		failed = true
	}
	for _, host := range s.manager.List() {
		if host.State() == plugin.StateError {
			fmt.Fprintf(stdout, "%s: error: %v\n", host.Name(), host.Error())
			failed = true
			continue
		}
		report, err := s.manager.Check(host.Name())
		if err != nil {
			fmt.Fprintf(stdout, "%s: error: %v\n", host.Name(), err)
			failed = true
			continue
		}
		if printReport(stdout, report, strict) {
			failed = true
		}
	}

	if failed {
		return exitFailure
	}
	return exitOK
}

// printReport writes one report and returns true if it fails the check.
func printReport(w io.Writer, report plugin.Report, strict bool) bool {
	if len(report.Violations) == 0 {
		fmt.Fprintf(w, "%s: ok\n", report.Plugin)
		return false
	}
	for _, v := range report.Violations {
		fmt.Fprintf(w, "%s: %s\n", report.Plugin, v)
	}
	return report.HasErrors() || strict
}

func runWatch(args []string, stdout, stderr io.Writer) int {
	var g globalFlags

	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: keyplug watch [options] [dir...]\n\n")
		fmt.Fprintf(stderr, "Loads plugins, then reloads and re-checks each one when its files change.\n\n")
		fs.PrintDefaults()
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}

	s, err := newSession(g, fs.Args(), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer s.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = s.loadPlugins(ctx)

	w, err := plugin.NewWatcher(s.manager, plugin.WithWatcherLogger(s.log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer w.Close()
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	s.log.Info().Strs("paths", w.WatchedPaths()).Msg("watching plugins")

	for {
		select {
		case <-ctx.Done():
			return exitOK
		case res := <-w.Results():
			if res.Err != nil {
				fmt.Fprintf(stdout, "%s: reload failed: %v\n", res.Plugin, res.Err)
				continue
			}
			report, err := s.manager.Check(res.Plugin)
			if err != nil {
				fmt.Fprintf(stdout, "%s: error: %v\n", res.Plugin, err)
				continue
			}
			printReport(stdout, report, false)
		}
	}
}
