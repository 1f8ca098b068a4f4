// Package report renders ibkit's console output: the [INFO]/[OK]/[WARN]/
// [ERROR] log lines, per-record reconciliation lines and run summaries.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/minios-linux/ibkit/i18n"
	"github.com/minios-linux/ibkit/langmeta"
	"github.com/minios-linux/ibkit/localize"
	"github.com/minios-linux/ibkit/reconcile"
	"github.com/minios-linux/ibkit/xcode"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
	colorGray   = "\033[0;90m"
)

// ColorEnabled reports whether output should be colored: not disabled by
// flag and NO_COLOR unset.
func ColorEnabled(disabled bool) bool {
	return !disabled && os.Getenv("NO_COLOR") == ""
}

// Console writes human-readable progress. It is safe for concurrent use
// and implements localize.Reporter.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool

	// Verbose echoes xcodebuild's stdout.
	Verbose bool
}

var _ localize.Reporter = (*Console)(nil)

// New returns a Console writing to w.
func New(w io.Writer, color bool) *Console {
	return &Console{w: w, color: color}
}

func (c *Console) paint(color, s string) string {
	if !c.color || s == "" {
		return s
	}
	return color + s + colorReset
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, args...)
}

func (c *Console) log(color, prefix, format string, args ...any) {
	c.printf(c.paint(color, prefix)+" "+format+"\n", args...)
}

// Info prints a blue [INFO] line.
func (c *Console) Info(format string, args ...any) {
	c.log(colorBlue, "[INFO]", format, args...)
}

// Success prints a green [OK] line.
func (c *Console) Success(format string, args ...any) {
	c.log(colorGreen, "[OK]", format, args...)
}

// Warning prints a yellow [WARN] line.
func (c *Console) Warning(format string, args ...any) {
	c.log(colorYellow, "[WARN]", format, args...)
}

// Error prints a red [ERROR] line.
func (c *Console) Error(format string, args ...any) {
	c.log(colorRed, "[ERROR]", format, args...)
}

// Heading prints a blue title followed by a rule.
func (c *Console) Heading(title string) {
	c.printf("%s\n%s\n", c.paint(colorBlue, title), strings.Repeat("─", 60))
}

// ---------------------------------------------------------------------------
// localize.Reporter
// ---------------------------------------------------------------------------

func (c *Console) Start(op localize.Operation, languages []string) {
	if op == localize.OpImport {
		c.Info(i18n.N("Found %d xliff file: %s", "Found %d xliff files: %s", len(languages)),
			len(languages), strings.Join(languages, ", "))
		return
	}
	c.Info(i18n.N("Exporting %d language: %s", "Exporting %d languages: %s", len(languages)),
		len(languages), strings.Join(languages, ", "))
}

func (c *Console) Language(op localize.Operation, index, total int, lang, path string) {
	label := langmeta.Resolve(lang).Label()
	if op == localize.OpImport {
		c.Info(i18n.T("(%d/%d) Importing %s from %s"), index, total, label, path)
		return
	}
	c.Info(i18n.T("(%d/%d) Exporting %s to %s"), index, total, label, path)
}

func (c *Console) ToolOutput(lang string, out xcode.Output) {
	if !c.Verbose {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(out.Stdout, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		c.printf("    %s\n", c.paint(colorGray, "["+lang+"] "+line))
	}
}

func (c *Console) Excluded(lang, original string) {
	c.Info(i18n.T("[%s] Removed %s from translation"), lang, original)
}

// Outcome prints one reconciliation line:
//
//	✔︎ [de] 2 translation unit(s) updated for F4z-Kg-ni6 LoginViewController label Welcome
func (c *Console) Outcome(lang string, o reconcile.Outcome) {
	actionColor := colorGreen
	if o.Action == reconcile.ActionRemoved {
		actionColor = colorRed
	}
	line := fmt.Sprintf("  %s [%s] %s %s %s %s",
		c.paint(colorGreen, "✔︎"),
		lang,
		fmt.Sprintf(i18n.N("%d translation unit", "%d translation units", o.Matched), o.Matched),
		c.paint(actionColor, i18n.T(string(o.Action))),
		c.paint(colorGray, i18n.T("for")),
		o.Record.OriginalID,
	)
	if info := o.Record.FormattedInfo(); info != "" {
		line += " " + c.paint(colorGray, info)
	}
	c.printf("%s\n", line)
}

func (c *Console) Succeeded(op localize.Operation, lang string) {
	if op == localize.OpImport {
		c.Success(i18n.T("Successfully imported %s"), lang)
		return
	}
	c.Success(i18n.T("Successfully exported %s"), lang)
}

func (c *Console) Failed(op localize.Operation, lang string, err error) {
	if op == localize.OpImport {
		c.Error(i18n.T("Failed to import %s: %v"), lang, err)
		return
	}
	c.Error(i18n.T("Failed to export %s: %v"), lang, err)
}

func (c *Console) Finish(s *localize.Summary) {
	c.printf("\n")
	if s.Operation == localize.OpExport && len(s.Succeeded) > 0 {
		c.Info(i18n.T("%d translation unit(s) updated, %d removed"), s.Updated, s.Removed)
	}

	if s.OK() {
		if s.Operation == localize.OpImport {
			c.Success(i18n.T("Done importing XLIFFs"))
		} else {
			c.Success(i18n.T("Done exporting XLIFFs"))
		}
		return
	}

	failed := make([]string, len(s.Failures))
	for i, f := range s.Failures {
		failed[i] = f.Language
	}
	c.Error(i18n.N("%d of %d language failed: %s", "%d of %d languages failed: %s", len(s.Languages)),
		len(s.Failures), len(s.Languages), strings.Join(failed, ", "))

	if s.NeedsBootstrap {
		c.printf("\n%s\n", c.paint(colorBlue, Remediation()))
	}
}

// Remediation explains the one-time manual import xcodebuild needs before
// it can import into a project whose strings files do not exist yet.
func Remediation() string {
	return i18n.T(`xcodebuild cannot import one or more of the .xliff files because the required .strings files do not exist yet.

To fix it:
  1. Open the project in Xcode and select the project root (blue icon)
  2. Choose Editor > Import Localizations...
  3. Repeat for every localization

This manual import is only needed once. Afterwards ibkit can import the files on its own.`)
}
