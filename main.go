// ibkit: keeps Xcode XLIFF exports in line with the localization settings
// made in Interface Builder.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/ibkit/config"
	"github.com/minios-linux/ibkit/i18n"
	"github.com/minios-linux/ibkit/ibfile"
	"github.com/minios-linux/ibkit/langmeta"
	"github.com/minios-linux/ibkit/localize"
	"github.com/minios-linux/ibkit/record"
	"github.com/minios-linux/ibkit/report"
	"github.com/minios-linux/ibkit/stringsfile"
	"github.com/minios-linux/ibkit/watch"
	"github.com/minios-linux/ibkit/xcode"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errReported marks failures whose details were already printed.
var errReported = errors.New("one or more operations failed")

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	configPath  string
	projectFlag string
	noColor     bool
	verbose     bool
)

func stderr() *report.Console {
	c := report.New(os.Stderr, report.ColorEnabled(noColor))
	c.Verbose = verbose
	return c
}

func stdout() *report.Console {
	return report.New(os.Stdout, report.ColorEnabled(noColor))
}

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ibkit",
		Short: "Reconcile Xcode XLIFF exports with Interface Builder localization settings",
		Long: `ibkit exports and imports XLIFF files for an Xcode project and keeps them
in line with the localization settings made in Interface Builder.

Elements opt into localization with the user defined runtime attributes
i18n_enabled (Bool) and i18n_comment (String). On export, translation units
of disabled elements are removed and the notes of enabled elements are
replaced with their owner, kind and comment.

Commands:
  export      Export and reconcile one XLIFF file per project language
  import      Import XLIFF files into the project
  strings     Generate .strings catalogs for IB files
  records     List the localization settings found in IB files
  languages   List the project's languages

Settings are read from .ibkit.yaml when present; flags take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ./"+config.FileName+")")
	pf.StringVarP(&projectFlag, "project", "p", "", "Xcode project (.xcodeproj)")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show xcodebuild output")

	root.AddCommand(
		newExportCmd(),
		newImportCmd(),
		newStringsCmd(),
		newRecordsCmd(),
		newLanguagesCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			stderr().Error("%v", err)
		}
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// overrides are the command line values that take precedence over the
// config file. Positional arguments land in project and path.
type overrides struct {
	project   string
	path      string
	ibPath    string
	languages []string
	exclude   []string
	jobs      int
	output    string
}

func addIBPathFlag(fs *pflag.FlagSet, o *overrides) {
	fs.StringVar(&o.ibPath, "ib-path", "", "Interface Builder file or directory (default .)")
}

// loadSettings loads .env and the config file, then applies flags and
// positional arguments. pathField selects the setting the positional
// path argument overrides.
func loadSettings(fs *pflag.FlagSet, o *overrides, pathField func(*config.Config) *string) (*config.Config, error) {
	envDir := "."
	if configPath != "" {
		envDir = filepath.Dir(configPath)
	}
	if err := config.LoadEnv(envDir); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyOverrides(fs, cfg, o, pathField)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func applyOverrides(fs *pflag.FlagSet, cfg *config.Config, o *overrides, pathField func(*config.Config) *string) {
	if projectFlag != "" {
		cfg.Project = projectFlag
	}
	if o == nil {
		return
	}
	if o.project != "" {
		cfg.Project = o.project
	}
	if fs.Changed("ib-path") {
		cfg.IBPath = o.ibPath
	}
	if fs.Changed("languages") {
		cfg.Languages = o.languages
	}
	if fs.Changed("exclude") {
		cfg.ExcludeMarkers = o.exclude
	}
	if fs.Changed("jobs") {
		cfg.Jobs = o.jobs
	}
	if fs.Changed("output") {
		cfg.StringsOutput = o.output
	}
	if o.path != "" && pathField != nil {
		*pathField(cfg) = o.path
	}
}

func xliffDir(cfg *config.Config) *string { return &cfg.XLIFFDir }

func ibPath(cfg *config.Config) *string { return &cfg.IBPath }

func openProject(cfg *config.Config) (*xcode.Project, error) {
	if cfg.Project != "" {
		return xcode.OpenProject(cfg.Project)
	}
	return xcode.FindProject(".")
}

func extractRecords(con *report.Console, path string) ([]record.Record, error) {
	files, err := ibfile.Discover(path)
	if err != nil {
		return nil, err
	}
	records, err := ibfile.ExtractAll(files)
	if err != nil {
		return nil, err
	}
	con.Info(i18n.T("Found %d localization setting(s) in %d Interface Builder file(s)"), len(records), len(files))
	return records, nil
}

// ---------------------------------------------------------------------------
// export
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "export [project] [path]",
		Short: "Export and reconcile one XLIFF file per project language",
		Long: `Export <lang>.xliff for every language of the project into path and
reconcile each file with the Interface Builder settings:

  - file groups from property lists and test targets are dropped
  - units of elements with i18n_enabled = NO are removed
  - notes of elements with i18n_enabled = YES become "<owner> <kind> <comment>"

A failing language does not stop the others. The exit status is 1 when
any language failed.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.project, o.path = positional(args)
			cfg, err := loadSettings(cmd.Flags(), &o, xliffDir)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return runExport(ctx, cfg, stderr())
		},
	}

	fs := cmd.Flags()
	addIBPathFlag(fs, &o)
	fs.StringSliceVarP(&o.languages, "languages", "l", nil, "Languages to export (default: project languages)")
	fs.StringSliceVar(&o.exclude, "exclude", nil, "File group markers to drop (default .plist,Tests)")
	fs.IntVarP(&o.jobs, "jobs", "j", 1, "Languages exported in parallel")

	return cmd
}

func positional(args []string) (project, path string) {
	if len(args) > 0 {
		project = args[0]
	}
	if len(args) > 1 {
		path = args[1]
	}
	return project, path
}

// exportLanguages returns the configured languages as canonical tags
// (pt_BR becomes pt-BR), or the project's languages when none are set.
func exportLanguages(cfg *config.Config, proj localize.LanguageSource) localize.LanguageSource {
	if len(cfg.Languages) == 0 {
		return proj
	}
	langs := make(localize.Languages, len(cfg.Languages))
	for i, l := range cfg.Languages {
		langs[i] = langmeta.Canonical(l)
	}
	return langs
}

func runExport(ctx context.Context, cfg *config.Config, con *report.Console) error {
	proj, err := openProject(cfg)
	if err != nil {
		return err
	}
	records, err := extractRecords(con, cfg.IBPath)
	if err != nil {
		return err
	}

	e := &localize.Exporter{
		Project:        proj.Path,
		Languages:      exportLanguages(cfg, proj),
		Tool:           &xcode.Xcodebuild{Binary: cfg.Xcodebuild},
		Reporter:       con,
		ExcludeMarkers: cfg.Markers(),
		Jobs:           cfg.Jobs,
	}
	s, err := e.Export(ctx, cfg.XLIFFDir, records)
	if err != nil {
		return err
	}
	if !s.OK() {
		return errReported
	}
	return nil
}

// ---------------------------------------------------------------------------
// import
// ---------------------------------------------------------------------------

func newImportCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "import [project] [path]",
		Short: "Import XLIFF files into the project",
		Long: `Import every .xliff file found under path (or the single file path) into
the project. The language of a file is its name without extension.

xcodebuild can only import into strings files that already exist. When it
refuses for that reason, ibkit explains the one-time manual import step.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.project, o.path = positional(args)
			cfg, err := loadSettings(cmd.Flags(), &o, xliffDir)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return runImport(ctx, cfg, stderr())
		},
	}
	return cmd
}

func runImport(ctx context.Context, cfg *config.Config, con *report.Console) error {
	proj, err := openProject(cfg)
	if err != nil {
		return err
	}
	im := &localize.Importer{
		Project:  proj.Path,
		Tool:     &xcode.Xcodebuild{Binary: cfg.Xcodebuild},
		Reporter: con,
	}
	s, err := im.Import(ctx, cfg.XLIFFDir)
	if err != nil {
		return err
	}
	if !s.OK() {
		return errReported
	}
	return nil
}

// ---------------------------------------------------------------------------
// strings
// ---------------------------------------------------------------------------

func newStringsCmd() *cobra.Command {
	var (
		o         overrides
		watchMode bool
	)
	cmd := &cobra.Command{
		Use:   "strings [path]",
		Short: "Generate .strings catalogs for Interface Builder files",
		Long: `Generate a <name>.strings catalog for every Interface Builder file under
path, containing only the elements with i18n_enabled = YES. Values come
from "xcrun ibtool --localizable-strings".

With --watch the catalogs are regenerated whenever a file changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.path = args[0]
			}
			cfg, err := loadSettings(cmd.Flags(), &o, ibPath)
			if err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()
			return runStrings(ctx, cfg, stderr(), watchMode)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&o.output, "output", "o", "", "Output directory (default: next to each file)")
	fs.BoolVarP(&watchMode, "watch", "w", false, "Regenerate on change until interrupted")

	return cmd
}

func runStrings(ctx context.Context, cfg *config.Config, con *report.Console, watchMode bool) error {
	files, err := ibfile.Discover(cfg.IBPath)
	if err != nil {
		return err
	}
	ibtool := &xcode.Ibtool{Xcrun: cfg.Xcrun}

	generate := func(file string) error {
		records, err := ibfile.ExtractFile(file)
		if err != nil {
			return err
		}
		res, err := stringsfile.Generate(ctx, ibtool, file, records, cfg.StringsOutput)
		if err != nil {
			return err
		}
		for _, r := range res.Missing {
			con.Warning(i18n.T("%s (%s) not found in ibtool output"), r.OriginalID, r.ElementKind)
		}
		con.Success(i18n.T("Wrote %s (%d entries)"), res.Path, len(res.Entries))
		return nil
	}

	failed := false
	for _, f := range files {
		if err := generate(f); err != nil {
			con.Error("%v", err)
			failed = true
		}
	}

	if watchMode {
		w, err := watch.New(files, 0)
		if err != nil {
			return err
		}
		w.OnError = func(err error) { con.Warning(i18n.T("watcher: %v"), err) }
		con.Info(i18n.N("Watching %d file, press Ctrl+C to stop", "Watching %d files, press Ctrl+C to stop", len(files)), len(files))
		return w.Run(ctx, func(path string) {
			if err := generate(path); err != nil {
				con.Error("%v", err)
			}
		})
	}

	if failed {
		return errReported
	}
	return nil
}

// ---------------------------------------------------------------------------
// records
// ---------------------------------------------------------------------------

func newRecordsCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "records [path]",
		Short: "List the localization settings found in Interface Builder files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				o.path = args[0]
			}
			cfg, err := loadSettings(cmd.Flags(), &o, ibPath)
			if err != nil {
				return err
			}
			records, err := extractRecords(stderr(), cfg.IBPath)
			if err != nil {
				return err
			}
			stdout().Records(records)
			return nil
		},
	}
	return cmd
}

// ---------------------------------------------------------------------------
// languages
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	var o overrides
	cmd := &cobra.Command{
		Use:   "languages [project]",
		Short: "List the project's languages",
		Long: `List the languages from the project's knownRegions, without Base. These
are the languages export produces files for.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o.project, _ = positional(args)
			cfg, err := loadSettings(cmd.Flags(), &o, nil)
			if err != nil {
				return err
			}
			proj, err := openProject(cfg)
			if err != nil {
				return err
			}
			langs, err := proj.SupportedLanguages()
			if err != nil {
				return err
			}
			stdout().Languages(proj.Name(), langs)
			return nil
		},
	}
	return cmd
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ibkit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}
