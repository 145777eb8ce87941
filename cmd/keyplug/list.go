package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dshills/keyplug/internal/plugin"
)

func runList(args []string, stdout, stderr io.Writer) int {
	var g globalFlags
	var stateName string

	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	fs.StringVar(&stateName, "state", "", "Only list plugins in this state (loaded, error)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: keyplug list [options] [dir...]\n\n")
		fs.PrintDefaults()
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}

	hosts := (*plugin.Manager).List
	if stateName != "" {
		state, err := plugin.ParseState(stateName)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		hosts = func(m *plugin.Manager) []*plugin.Host { return m.ListByState(state) }
	}

	s, err := newSession(g, fs.Args(), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer s.close()

	_ = s.loadPlugins(context.Background())

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLUGIN\tSTATE\tTITLE")
	for _, host := range hosts(s.manager) {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", host.Name(), host.State(), host.Title())
	}
	tw.Flush()

	bindings := s.manager.Bindings()
	if len(bindings) == 0 {
		return exitOK
	}
	fmt.Fprintln(stdout)
	tw = tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tPLUGIN\tKEYS\tLABEL")
	for _, b := range bindings {
		keys := "-"
		if !b.Chord.IsZero() {
			keys = b.Chord.String()
		}
		label := "-"
		if b.HasAction && b.Action.Label != "" {
			label = b.Action.Label
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Code, b.Plugin, keys, label)
	}
	tw.Flush()
	return exitOK
}
