package plugin

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dshills/keyplug/internal/accel"
	"github.com/dshills/keyplug/internal/toolwin"
	"github.com/dshills/keyplug/pluginapi"
)

// Severity grades a conformance violation.
type Severity int

const (
	// SeverityError marks a contribution the host cannot honor.
	SeverityError Severity = iota
	// SeverityNotice marks a contribution that is accepted but has no effect.
	SeverityNotice
)

// String returns a string representation of the severity.
func (s Severity) String() string {
	if s == SeverityNotice {
		return "notice"
	}
	return "error"
}

// Violation is one finding of Check.
type Violation struct {
	Severity Severity
	Field    string
	Message  string
}

// String returns a string representation of the violation.
func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: %s", v.Severity, v.Field, v.Message)
}

// Report is the result of checking one plugin.
type Report struct {
	Plugin     string
	Violations []Violation
}

// HasErrors returns true if any violation is an error.
func (r Report) HasErrors() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error violations.
func (r Report) Errors() []Violation {
	var errs []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			errs = append(errs, v)
		}
	}
	return errs
}

type checker struct {
	report   Report
	platform accel.Platform
}

func (c *checker) errorf(field, format string, args ...any) {
	c.report.Violations = append(c.report.Violations, Violation{
		Severity: SeverityError,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (c *checker) noticef(field, format string, args ...any) {
	c.report.Violations = append(c.report.Violations, Violation{
		Severity: SeverityNotice,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Check verifies that p honors the plugin contract: a non-empty name,
// unique non-empty advertised codes, menu actions whose codes are
// advertised, parseable and unique accelerators, image icons and parseable
// tool window content. Accelerators are resolved for platform.
//
// Check calls the plugin's Name, Menus, AvailableActions and
// ToolbarWindowContent hooks. Panics are reported as violations.
func Check(p pluginapi.EditorPlugin, platform accel.Platform) (report Report) {
	c := &checker{platform: platform}
	defer func() {
		if r := recover(); r != nil {
			c.errorf("plugin", "panicked: %v", r)
			report = c.report
		}
	}()

	c.report.Plugin = p.Name()
	if strings.TrimSpace(c.report.Plugin) == "" {
		c.errorf("name", "must not be empty")
	}

	menus := p.Menus()
	advertised := c.checkCodes(p.AvailableActions())
	c.checkActions(menus, advertised)
	c.checkToolbar(menus.ToolbarMenuItems)

	if n := len(menus.ContextMenuItems); n > 0 {
		c.noticef("contextMenuItems", "%d items declared; context menus are not bound", n)
	}
	return c.report
}

func (c *checker) checkCodes(codes []string) map[string]bool {
	advertised := make(map[string]bool, len(codes))
	for i, code := range codes {
		field := fmt.Sprintf("availableActions[%d]", i)
		if code == "" {
			c.errorf(field, "empty code")
			continue
		}
		if advertised[code] {
			c.errorf(field, "duplicate code %q", code)
			continue
		}
		advertised[code] = true
	}
	return advertised
}

func (c *checker) checkActions(menus pluginapi.Menus, advertised map[string]bool) {
	chords := make(map[accel.Chord]string)
	for i, item := range menus.ApplicationMenuItems {
		for j, action := range item.Actions {
			field := fmt.Sprintf("applicationMenuItems[%d].actions[%d]", i, j)
			if action.Label == "" {
				c.noticef(field, "empty label")
			}
			switch {
			case action.Code == "":
				c.errorf(field, "empty code")
			case !advertised[action.Code]:
				c.errorf(field, "code %q is not in availableActions", action.Code)
			}

			if action.Accelerator == "" {
				continue
			}
			chord, err := accel.ParseFor(action.Accelerator, c.platform)
			if err != nil {
				c.errorf(field, "accelerator: %v", err)
				continue
			}
			if prev, dup := chords[chord]; dup {
				c.errorf(field, "accelerator %q collides with %s", action.Accelerator, prev)
				continue
			}
			chords[chord] = action.Code
		}
	}
}

func (c *checker) checkToolbar(items []pluginapi.ToolbarMenuItem) {
	labels := make(map[string]bool, len(items))
	for i, item := range items {
		field := fmt.Sprintf("toolbarMenuItems[%d]", i)
		switch {
		case item.Label == "":
			c.errorf(field, "empty label")
		case labels[item.Label]:
			c.errorf(field, "duplicate label %q", item.Label)
		}
		labels[item.Label] = true

		if item.Icon == "" {
			c.noticef(field, "no icon")
		} else if err := CheckIcon(item.Icon); err != nil {
			c.errorf(field, "icon: %v", err)
		}

		if item.ToolbarWindowContent == nil {
			c.errorf(field, "no window content")
			continue
		}
		if err := toolwin.Validate(item.ToolbarWindowContent()); err != nil {
			c.errorf(field, "window content: %v", err)
		}
	}
}

// CheckIcon verifies that icon holds base64 image data, either bare or as a
// base64 data URL. A media type declared in the data URL must agree with
// the sniffed content.
func CheckIcon(icon string) error {
	declared, payload := "", icon
	if rest, ok := strings.CutPrefix(icon, "data:"); ok {
		header, data, ok := strings.Cut(rest, ",")
		if !ok {
			return fmt.Errorf("data URL has no payload")
		}
		if declared, ok = strings.CutSuffix(header, ";base64"); !ok {
			return fmt.Errorf("data URL is not base64 encoded")
		}
		payload = data
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("bad base64: %w", err)
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return fmt.Errorf("content is %s, want an image", detected.String())
	}
	if declared != "" && !detected.Is(declared) {
		return fmt.Errorf("declared %s but content is %s", declared, detected.String())
	}
	return nil
}

// Check runs the conformance check on a registered plugin.
func (m *Manager) Check(name string) (Report, error) {
	host, ok := m.Get(name)
	if !ok {
		return Report{}, fmt.Errorf("plugin %q: %w", name, ErrPluginNotFound)
	}
	p, err := host.usable(true)
	if err != nil {
		return Report{}, err
	}

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	report := Check(p, m.config.Platform)
	report.Plugin = name
	return report, nil
}
