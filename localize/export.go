package localize

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/ibkit/reconcile"
	"github.com/minios-linux/ibkit/record"
	"github.com/minios-linux/ibkit/xliff"
)

// Exporter exports one interchange document per language and reconciles
// it with the Interface Builder records.
type Exporter struct {
	// Project is the .xcodeproj path handed to the Localizer.
	Project   string
	Languages LanguageSource
	Tool      Localizer
	Reporter  Reporter
	// ExcludeMarkers overrides reconcile.DefaultExcludeMarkers when non-nil.
	ExcludeMarkers []string
	// Jobs is the number of languages processed at once. Values below 2
	// run languages one after another.
	Jobs int
}

// Export writes <lang>.xliff files into dir for every supported language.
// The returned error covers setup only (languages, output directory);
// per-language failures are collected in the Summary.
func (e *Exporter) Export(ctx context.Context, dir string, records []record.Record) (*Summary, error) {
	rep := reporterOrNop(e.Reporter)

	langs, err := e.Languages.SupportedLanguages()
	if err != nil {
		return nil, fmt.Errorf("listing project languages: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	rep.Start(OpExport, langs)

	jobs := e.Jobs
	if jobs < 1 {
		jobs = 1
	}
	results := make([]languageResult, len(langs))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, lang := range langs {
		g.Go(func() error {
			path := XLIFFPath(dir, lang)
			rep.Language(OpExport, i+1, len(langs), lang, path)

			res, err := e.exportLanguage(ctx, rep, dir, lang, records)
			results[i] = languageResult{err: err, result: res}
			if err != nil {
				rep.Failed(OpExport, lang, err)
			} else {
				rep.Succeeded(OpExport, lang)
			}
			return nil
		})
	}
	_ = g.Wait()

	s := summarize(OpExport, langs, results)
	rep.Finish(s)
	return s, nil
}

func (e *Exporter) exportLanguage(ctx context.Context, rep Reporter, dir, lang string, records []record.Record) (reconcile.Result, error) {
	if err := ctx.Err(); err != nil {
		return reconcile.Result{}, err
	}

	out, err := e.Tool.ExportLocalizations(ctx, e.Project, dir, []string{lang})
	rep.ToolOutput(lang, out)
	if err != nil {
		return reconcile.Result{}, err
	}
	if err := checkExport(out); err != nil {
		return reconcile.Result{}, err
	}

	path := XLIFFPath(dir, lang)
	doc, err := xliff.ParseFile(path)
	if err != nil {
		return reconcile.Result{}, err
	}

	res, err := reconcile.Reconcile(doc, records, reconcile.Options{ExcludeMarkers: e.ExcludeMarkers})
	if err != nil {
		return reconcile.Result{}, err
	}
	for _, original := range res.ExcludedFiles {
		rep.Excluded(lang, original)
	}
	for _, o := range res.Outcomes {
		rep.Outcome(lang, o)
	}

	if err := doc.WriteFile(path); err != nil {
		return reconcile.Result{}, fmt.Errorf("writing %s: %w", path, err)
	}
	return res, nil
}
