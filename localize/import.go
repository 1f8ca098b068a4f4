package localize

import (
	"context"

	"github.com/minios-linux/ibkit/ibfile"
)

// DiscoverXLIFF resolves path to interchange documents: a directory is
// searched recursively, a single file must end in .xliff.
func DiscoverXLIFF(path string) ([]string, error) {
	return ibfile.FindFiles(path, XLIFFExt)
}

// Importer imports interchange documents back into a project.
type Importer struct {
	// Project is the .xcodeproj path handed to the Localizer.
	Project  string
	Tool     Localizer
	Reporter Reporter
}

// Import imports every document found under path, one at a time, since
// each import rewrites files inside the project. The language of a
// document is its file name without extension. Discovery errors are
// returned directly; per-language failures are collected in the Summary.
func (im *Importer) Import(ctx context.Context, path string) (*Summary, error) {
	rep := reporterOrNop(im.Reporter)

	files, err := DiscoverXLIFF(path)
	if err != nil {
		return nil, err
	}

	langs := make([]string, len(files))
	for i, f := range files {
		langs[i] = LanguageOf(f)
	}
	rep.Start(OpImport, langs)

	results := make([]languageResult, len(files))
	for i, file := range files {
		lang := langs[i]
		rep.Language(OpImport, i+1, len(files), lang, file)

		results[i] = im.importFile(ctx, rep, lang, file)
		if results[i].err != nil {
			rep.Failed(OpImport, lang, results[i].err)
		} else {
			rep.Succeeded(OpImport, lang)
		}
	}

	s := summarize(OpImport, langs, results)
	rep.Finish(s)
	return s, nil
}

func (im *Importer) importFile(ctx context.Context, rep Reporter, lang, file string) languageResult {
	if err := ctx.Err(); err != nil {
		return languageResult{err: err}
	}
	out, err := im.Tool.ImportLocalizations(ctx, im.Project, file)
	rep.ToolOutput(lang, out)
	if err != nil {
		return languageResult{err: err}
	}
	bootstrap, err := ClassifyImport(out)
	return languageResult{err: err, bootstrap: bootstrap}
}
