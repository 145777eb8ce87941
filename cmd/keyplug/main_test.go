package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/keyplug/pluginapi"
)

const upperScript = `
return {
  name = "Case",
  applicationMenuItems = {
    { label = "Case", actions = {
      { label = "Upper", code = "case.upper", accelerator = "CmdOrCtrl+U",
        perform = function(e) e:replaceAllSelectionRanges(e:getSelectedText():upper()) end },
    }},
  },
  toolbarMenuItems = {
    { label = "Info", getToolbarWindowContent = function() return "<p>case</p>" end },
  },
}
`

// setupHost writes one plugin and a config file pointing at it.
func setupHost(t *testing.T, plugins map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	pluginDir := filepath.Join(dir, "plugins")
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatal(err)
	}
	for name, script := range plugins {
		if err := os.WriteFile(filepath.Join(pluginDir, name), []byte(script), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := fmt.Sprintf("[plugins]\npaths = [%q]\n\n[log]\nlevel = \"error\"\n\n[keys]\nplatform = \"linux\"\n", pluginDir)
	path := filepath.Join(dir, "keyplug.toml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
		out  string
	}{
		{"no args", nil, exitUsage, ""},
		{"help", []string{"help"}, exitOK, "Commands:"},
		{"version", []string{"-version"}, exitOK, "keyplug dev"},
		{"unknown", []string{"frobnicate"}, exitUsage, ""},
		{"run without file", []string{"run", "-action", "x"}, exitUsage, ""},
		{"run with both", []string{"run", "-file", "f", "-action", "x", "-keys", "Ctrl+X"}, exitUsage, ""},
		{"bad flag", []string{"list", "-nope"}, exitUsage, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Errorf("run() = %d, want %d (stderr %q)", code, tt.code, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.out) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.out)
			}
		})
	}
}

func TestParseSelections(t *testing.T) {
	tests := []struct {
		in      string
		want    []pluginapi.Range
		wantErr bool
	}{
		{"0:5", []pluginapi.Range{pluginapi.NewRange(0, 5)}, false},
		{"0:3, 8:11", []pluginapi.Range{pluginapi.NewRange(0, 3), pluginapi.NewRange(8, 11)}, false},
		{"4", []pluginapi.Range{pluginapi.NewRange(4, 4)}, false},
		{"5:2", nil, true},
		{"-1:2", nil, true},
		{"a:b", nil, true},
		{"1:", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSelections(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSelections(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseSelections(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("range %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}

	if _, err := parseSelections("5:2"); !errors.Is(err, pluginapi.ErrInvalidRange) {
		t.Errorf("inverted selection error = %v, want ErrInvalidRange", err)
	}
}

func TestCheckCommand(t *testing.T) {
	cfg := setupHost(t, map[string]string{"case.lua": upperScript})

	var stdout, stderr bytes.Buffer
	if code := run([]string{"check", "-config", cfg}, &stdout, &stderr); code != exitOK {
		t.Fatalf("check = %d, stdout %q stderr %q", code, stdout.String(), stderr.String())
	}
	if !strings.Contains(stdout.String(), "case: notice") {
		t.Errorf("stdout = %q, want the missing icon notice", stdout.String())
	}

	stdout.Reset()
	if code := run([]string{"check", "-config", cfg, "-strict"}, &stdout, &stderr); code != exitFailure {
		t.Errorf("check -strict = %d, want %d", code, exitFailure)
	}
}

func TestCheckCommandFailures(t *testing.T) {
	cfg := setupHost(t, map[string]string{
		"case.lua":   upperScript,
		"broken.lua": `return 42`,
	})

	var stdout, stderr bytes.Buffer
	if code := run([]string{"check", "-config", cfg}, &stdout, &stderr); code != exitFailure {
		t.Fatalf("check = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(stdout.String(), "broken") {
		t.Errorf("stdout = %q, want the broken plugin reported", stdout.String())
	}
}

func TestListCommand(t *testing.T) {
	cfg := setupHost(t, map[string]string{"case.lua": upperScript})

	var stdout, stderr bytes.Buffer
	if code := run([]string{"list", "-config", cfg}, &stdout, &stderr); code != exitOK {
		t.Fatalf("list = %d, stderr %q", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"case", "loaded", "case.upper", "Ctrl+U", "Upper"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	stdout.Reset()
	if code := run([]string{"list", "-config", cfg, "-state", "error"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("list -state error = %d", code)
	}
	if strings.Contains(stdout.String(), "loaded") {
		t.Errorf("list -state error showed a loaded plugin:\n%s", stdout.String())
	}
	if code := run([]string{"list", "-config", cfg, "-state", "sleeping"}, &stdout, &stderr); code != exitUsage {
		t.Errorf("list -state sleeping = %d, want %d", code, exitUsage)
	}
}

func TestRunCommand(t *testing.T) {
	cfg := setupHost(t, map[string]string{"case.lua": upperScript})

	tests := []struct {
		name string
		args []string
		want string
		code int
	}{
		{"action", []string{"-select", "0:5", "-action", "case.upper"}, "HELLO world\n", exitOK},
		{"keys", []string{"-select", "6:11", "-keys", "Ctrl+U"}, "hello WORLD\n", exitOK},
		{"unbound key", []string{"-keys", "Ctrl+Q"}, "", exitFailure},
		{"unknown action", []string{"-action", "case.nope"}, "", exitFailure},
		{"bad selection", []string{"-select", "3:1", "-action", "case.upper"}, "", exitUsage},
		{"selection out of bounds", []string{"-select", "0:99", "-action", "case.upper"}, "", exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "greeting.txt")
			if err := os.WriteFile(file, []byte("hello world\n"), 0644); err != nil {
				t.Fatal(err)
			}

			args := append([]string{"run", "-config", cfg, "-file", file}, tt.args...)
			var stdout, stderr bytes.Buffer
			code := run(args, &stdout, &stderr)
			if code != tt.code {
				t.Fatalf("run = %d, want %d (stderr %q)", code, tt.code, stderr.String())
			}
			if tt.code == exitOK && stdout.String() != tt.want {
				t.Errorf("output = %q, want %q", stdout.String(), tt.want)
			}
		})
	}
}

func TestRunCommandWrite(t *testing.T) {
	cfg := setupHost(t, map[string]string{"case.lua": upperScript})
	file := filepath.Join(t.TempDir(), "note.md")
	if err := os.WriteFile(file, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"run", "-config", cfg, "-file", file, "-select", "1:2", "-action", "case.upper", "-write"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run = %d, stderr %q", code, stderr.String())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "aBc" {
		t.Errorf("file = %q, want %q", data, "aBc")
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", stdout.String())
	}
}

func TestRunCommandKeepsCRLF(t *testing.T) {
	cfg := setupHost(t, map[string]string{"case.lua": upperScript})
	file := filepath.Join(t.TempDir(), "dos.txt")
	if err := os.WriteFile(file, []byte("ab\r\ncd\r\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"run", "-config", cfg, "-file", file, "-select", "4:6", "-action", "case.upper"}, &stdout, &stderr); code != exitOK {
		t.Fatalf("run = %d, stderr %q", code, stderr.String())
	}
	if got := stdout.String(); got != "ab\r\nCD\r\n" {
		t.Errorf("stdout = %q, want %q", got, "ab\r\nCD\r\n")
	}
}
