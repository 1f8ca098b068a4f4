// Package localize runs the export and import workflows language by
// language: xcodebuild is invoked for each language, exported documents are
// reconciled with the Interface Builder records, and failures are collected
// into a Summary instead of stopping the batch.
package localize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/minios-linux/ibkit/apperr"
	"github.com/minios-linux/ibkit/reconcile"
	"github.com/minios-linux/ibkit/xcode"
)

// XLIFFExt is the extension of interchange documents.
const XLIFFExt = ".xliff"

// LanguageSource lists the languages a project is localized into,
// without the Base region.
type LanguageSource interface {
	SupportedLanguages() ([]string, error)
}

// Languages is a fixed LanguageSource.
type Languages []string

func (l Languages) SupportedLanguages() ([]string, error) { return l, nil }

// Localizer exports and imports interchange documents for a project.
// *xcode.Xcodebuild implements it.
type Localizer interface {
	ExportLocalizations(ctx context.Context, project, dir string, languages []string) (xcode.Output, error)
	ImportLocalizations(ctx context.Context, project, xliffPath string) (xcode.Output, error)
}

// Operation names a workflow.
type Operation string

const (
	OpExport Operation = "export"
	OpImport Operation = "import"
)

// Reporter receives progress events. Calls may come from several
// goroutines when an export runs with more than one job.
type Reporter interface {
	// Start is called once with every language about to be processed.
	Start(op Operation, languages []string)
	// Language is called when work on one language begins.
	Language(op Operation, index, total int, lang, path string)
	// ToolOutput carries the captured xcodebuild output for lang.
	ToolOutput(lang string, out xcode.Output)
	// Excluded reports a file group pruned from lang's document.
	Excluded(lang, original string)
	// Outcome reports a record that matched units in lang's document.
	Outcome(lang string, o reconcile.Outcome)
	Succeeded(op Operation, lang string)
	Failed(op Operation, lang string, err error)
	// Finish is called once with the final summary.
	Finish(s *Summary)
}

type nopReporter struct{}

func (nopReporter) Start(Operation, []string) {}
func (nopReporter) Language(Operation, int, int, string, string) {}
func (nopReporter) ToolOutput(string, xcode.Output) {}
func (nopReporter) Excluded(string, string) {}
func (nopReporter) Outcome(string, reconcile.Outcome) {}
func (nopReporter) Succeeded(Operation, string) {}
func (nopReporter) Failed(Operation, string, error) {}
func (nopReporter) Finish(*Summary) {}

func reporterOrNop(r Reporter) Reporter {
	if r == nil {
		return nopReporter{}
	}
	return r
}

// Failure is one language that could not be processed.
type Failure struct {
	Language string
	Err      error
}

func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.Language, f.Err) }

func (f Failure) Unwrap() error { return f.Err }

// Summary aggregates the results of a workflow run.
type Summary struct {
	Operation Operation
	Languages []string
	Succeeded []string
	Failures  []Failure
	// Updated and Removed count translation units over all languages.
	Updated int
	Removed int
	// NeedsBootstrap is set when xcodebuild refused an import because the
	// project's strings files do not exist yet.
	NeedsBootstrap bool
}

// OK reports whether every language succeeded.
func (s *Summary) OK() bool { return len(s.Failures) == 0 }

// Err joins all failures, or returns nil.
func (s *Summary) Err() error {
	if s.OK() {
		return nil
	}
	errs := make([]error, len(s.Failures))
	for i, f := range s.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// languageResult is the outcome of one language, stored by index so
// concurrent workers never share a slot.
type languageResult struct {
	err       error
	bootstrap bool
	result    reconcile.Result
}

func summarize(op Operation, langs []string, results []languageResult) *Summary {
	s := &Summary{Operation: op, Languages: langs}
	for i, r := range results {
		if r.err != nil {
			s.Failures = append(s.Failures, Failure{Language: langs[i], Err: r.err})
			s.NeedsBootstrap = s.NeedsBootstrap || r.bootstrap
			continue
		}
		s.Succeeded = append(s.Succeeded, langs[i])
		s.Updated += r.result.Updated()
		s.Removed += r.result.Removed()
	}
	return s
}

// XLIFFPath returns the document path of lang inside dir.
func XLIFFPath(dir, lang string) string {
	return filepath.Join(dir, lang+XLIFFExt)
}

// LanguageOf returns the language a document path belongs to.
func LanguageOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var (
	errorLine     = regexp.MustCompile(`^xcodebuild: error:`)
	bootstrapLine = regexp.MustCompile(`(?i)^xcodebuild: error: Importing localizations`)
)

// errorSignature returns the stdout lines that report an xcodebuild
// error and whether one of them is the missing strings file failure.
func errorSignature(stdout string) (signature []string, bootstrap bool) {
	for _, line := range strings.Split(stdout, "\n") {
		line = strings.TrimRight(line, "\r")
		isBootstrap := bootstrapLine.MatchString(line)
		if isBootstrap || errorLine.MatchString(line) {
			signature = append(signature, line)
		}
		bootstrap = bootstrap || isBootstrap
	}
	return signature, bootstrap
}

// toolError describes a failed xcodebuild run. Stderr is only used when
// stdout carried no error lines.
func toolError(out xcode.Output, signature []string) error {
	toolErr := &apperr.ExternalToolError{Tool: "xcodebuild", ExitCode: out.ExitCode, Signature: signature}
	if len(signature) == 0 {
		if msg := strings.TrimSpace(out.Stderr); msg != "" {
			toolErr.Err = errors.New(msg)
		}
	}
	return toolErr
}

// ClassifyImport inspects an import run. xcodebuild reports some failures
// on stdout while exiting zero, so stdout is searched for error lines as
// well. bootstrap is true when the failure is the one fixed by importing
// once from inside Xcode.
func ClassifyImport(out xcode.Output) (bootstrap bool, err error) {
	signature, bootstrap := errorSignature(out.Stdout)
	if len(signature) == 0 && out.Success() {
		return false, nil
	}
	return bootstrap, toolError(out, signature)
}

// checkExport fails an export run that exited non-zero or printed an
// error line on stdout.
func checkExport(out xcode.Output) error {
	signature, _ := errorSignature(out.Stdout)
	if len(signature) == 0 && out.Success() {
		return nil
	}
	return toolError(out, signature)
}
