package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/keyplug/internal/accel"
	"github.com/dshills/keyplug/internal/editor"
	"github.com/dshills/keyplug/internal/engine/buffer"
	"github.com/dshills/keyplug/pluginapi"
)

var (
	errNoFile      = errors.New("-file is required")
	errNoDispatch  = errors.New("one of -action or -keys is required")
	errBothActions = errors.New("-action and -keys are mutually exclusive")
	errNotBound    = errors.New("no plugin handles the key")
)

type runOptions struct {
	file       string
	language   string
	selections string
	actions    string
	keys       string
	write      bool
}

func (o runOptions) validate() error {
	switch {
	case o.file == "":
		return errNoFile
	case o.actions == "" && o.keys == "":
		return errNoDispatch
	case o.actions != "" && o.keys != "":
		return errBothActions
	}
	return nil
}

func runRun(args []string, stdout, stderr io.Writer) int {
	var g globalFlags
	var opts runOptions

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs)
	fs.StringVar(&opts.file, "file", "", "File to open")
	fs.StringVar(&opts.file, "f", "", "File to open (shorthand)")
	fs.StringVar(&opts.language, "lang", "", "Language mode (default: from the file extension)")
	fs.StringVar(&opts.selections, "select", "", "Selections as start:end byte offsets, comma separated")
	fs.StringVar(&opts.actions, "action", "", "Action codes to trigger, comma separated")
	fs.StringVar(&opts.keys, "keys", "", "Accelerators to press, space separated")
	fs.BoolVar(&opts.write, "write", false, "Write the result back to the file instead of stdout")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: keyplug run -file f [-select a:b,c:d] (-action code | -keys accel)\n\n")
		fs.PrintDefaults()
	}
	if ok, code := parseFlags(fs, args); !ok {
		return code
	}
	if err := opts.validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return exitUsage
	}

	s, err := newSession(g, nil, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer s.close()

	data, err := os.ReadFile(opts.file)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	language := opts.language
	if language == "" {
		language = editor.LanguageForPath(opts.file)
	}
	text := string(data)
	ed := editor.New(text,
		editor.WithLanguage(language),
		editor.WithLineEnding(buffer.DetectLineEnding(text)),
	)

	if opts.selections != "" {
		ranges, err := parseSelections(opts.selections)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		if err := ed.SetSelections(ranges...); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
	}

	_ = s.loadPlugins(context.Background())
	if err := s.manager.InitializeEditor(ed); err != nil {
		s.log.Warn().Err(err).Msg("some plugins failed to initialize")
	}

	if err := dispatch(s, opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	if opts.write {
		if err := os.WriteFile(opts.file, []byte(ed.Value()), 0644); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		return exitOK
	}
	fmt.Fprint(stdout, ed.Value())
	return exitOK
}

// dispatch triggers the requested actions or key presses in order and
// stops at the first failure.
func dispatch(s *session, opts runOptions) error {
	if opts.actions != "" {
		for _, code := range strings.Split(opts.actions, ",") {
			if err := s.manager.Trigger(strings.TrimSpace(code)); err != nil {
				return err
			}
		}
		return nil
	}

	platform := s.cfg.Platform()
	for _, spec := range strings.Fields(opts.keys) {
		chord, err := accel.ParseFor(spec, platform)
		if err != nil {
			return err
		}
		handled, err := s.manager.HandleChord(chord)
		if err != nil {
			return err
		}
		if !handled {
			return fmt.Errorf("%w: %s", errNotBound, chord)
		}
	}
	return nil
}

// parseSelections parses "start:end" pairs separated by commas. A bare
// offset is a cursor.
func parseSelections(s string) ([]pluginapi.Range, error) {
	var ranges []pluginapi.Range
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		startText, endText, isRange := strings.Cut(part, ":")
		if !isRange {
			endText = startText
		}

		start, err := strconv.ParseInt(startText, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("selection %q: bad start offset", part)
		}
		end, err := strconv.ParseInt(endText, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("selection %q: bad end offset", part)
		}
		if start < 0 || end < start {
			return nil, fmt.Errorf("selection %q: %w", part, pluginapi.ErrInvalidRange)
		}
		ranges = append(ranges, pluginapi.NewRange(start, end))
	}
	return ranges, nil
}
