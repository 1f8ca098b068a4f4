package xcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"howett.net/plist"

	"github.com/minios-linux/ibkit/apperr"
)

// Output is the captured result of an external tool run.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Success reports a zero exit status.
func (o Output) Success() bool { return o.ExitCode == 0 }

// Runner executes a command and captures its output. A non-zero exit is
// reported in Output.ExitCode, not as an error; errors mean the command
// could not be run at all.
type Runner func(ctx context.Context, name string, args ...string) (Output, error)

// Exec is the Runner backed by os/exec.
func Exec(ctx context.Context, name string, args ...string) (Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	default:
		out.ExitCode = -1
		return out, &apperr.ExternalToolError{Tool: name, ExitCode: -1, Err: err}
	}
}

// Xcodebuild runs xcodebuild's localization export and import.
type Xcodebuild struct {
	// Binary defaults to "xcodebuild".
	Binary string
	// Run defaults to Exec.
	Run Runner
}

func (x *Xcodebuild) binary() string {
	if x.Binary == "" {
		return "xcodebuild"
	}
	return x.Binary
}

func (x *Xcodebuild) run(ctx context.Context, args ...string) (Output, error) {
	run := x.Run
	if run == nil {
		run = Exec
	}
	return run(ctx, x.binary(), args...)
}

// ExportLocalizations writes <language>.xliff files for languages into dir.
func (x *Xcodebuild) ExportLocalizations(ctx context.Context, project, dir string, languages []string) (Output, error) {
	args := []string{"-exportLocalizations", "-localizationPath", dir, "-project", project}
	for _, l := range languages {
		args = append(args, "-exportLanguage", l)
	}
	return x.run(ctx, args...)
}

// ImportLocalizations imports one .xliff file into the project.
func (x *Xcodebuild) ImportLocalizations(ctx context.Context, project, xliffPath string) (Output, error) {
	return x.run(ctx, "-importLocalizations", "-localizationPath", xliffPath, "-project", project)
}

// ---------------------------------------------------------------------------
// ibtool
// ---------------------------------------------------------------------------

// ExternalAttributesProperty is listed by ibtool for elements with
// runtime attributes. It never holds user-visible text.
const ExternalAttributesProperty = "ibExternalUserDefinedRuntimeAttributesLocalizableStrings"

// LocalizableStrings is ibtool's view of the strings in one IB file,
// keyed by object id and then property. Values are strings, or string
// arrays for elements such as segmented controls.
type LocalizableStrings struct {
	Strings map[string]map[string]interface{} `plist:"com.apple.ibtool.document.localizable-strings"`
	Arrays  map[string]map[string]interface{} `plist:"com.apple.ibtool.document.localizable-stringarrays"`
}

// Property is one localizable value of an object. Array values are
// flattened to one Property per element named "prop[i]".
type Property struct {
	Name  string
	Value string
}

// Properties returns the localizable values of object id sorted by
// property name, and false when ibtool did not list the object.
func (ls *LocalizableStrings) Properties(id string) ([]Property, bool) {
	props, ok := ls.Strings[id]
	if !ok {
		props, ok = ls.Arrays[id]
	}
	if !ok {
		return nil, false
	}

	names := make([]string, 0, len(props))
	for name := range props {
		if name != ExternalAttributesProperty {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []Property
	for _, name := range names {
		switch v := props[name].(type) {
		case string:
			out = append(out, Property{Name: name, Value: v})
		case []interface{}:
			for i, item := range v {
				if s, ok := item.(string); ok {
					out = append(out, Property{Name: fmt.Sprintf("%s[%d]", name, i), Value: s})
				}
			}
		}
	}
	return out, true
}

// Ibtool runs `xcrun ibtool`.
type Ibtool struct {
	// Xcrun defaults to "xcrun".
	Xcrun string
	// Run defaults to Exec.
	Run Runner
}

// LocalizableStrings lists the localizable strings and string arrays of file.
func (t *Ibtool) LocalizableStrings(ctx context.Context, file string) (*LocalizableStrings, error) {
	xcrun := t.Xcrun
	if xcrun == "" {
		xcrun = "xcrun"
	}
	run := t.Run
	if run == nil {
		run = Exec
	}

	out, err := run(ctx, xcrun, "ibtool", file, "--localizable-strings", "--localizable-stringarrays")
	if err != nil {
		return nil, err
	}
	if !out.Success() {
		toolErr := &apperr.ExternalToolError{Tool: "ibtool", ExitCode: out.ExitCode}
		if msg := strings.TrimSpace(out.Stderr); msg != "" {
			toolErr.Err = errors.New(msg)
		}
		return nil, toolErr
	}
	return ParseLocalizableStrings([]byte(out.Stdout))
}

// ParseLocalizableStrings decodes ibtool's plist output.
func ParseLocalizableStrings(data []byte) (*LocalizableStrings, error) {
	var ls LocalizableStrings
	if _, err := plist.Unmarshal(data, &ls); err != nil {
		return nil, &apperr.ParseError{Err: fmt.Errorf("ibtool output: %w", err)}
	}
	return &ls, nil
}
