// Package config holds ibkit's settings: defaults, the optional
// .ibkit.yaml file and its validation.
package config

import (
	"errors"
	"path/filepath"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"

	"github.com/minios-linux/ibkit/reconcile"
)

// Config is the resolved configuration. Paths are relative to the
// working directory once loaded.
type Config struct {
	// Project is the .xcodeproj bundle. Empty means the single bundle in
	// the working directory.
	Project string `yaml:"project,omitempty"`
	// IBPath is the Interface Builder file or directory to extract from.
	IBPath string `yaml:"ib_path,omitempty"`
	// XLIFFDir is where documents are exported to and imported from.
	XLIFFDir string `yaml:"xliff_dir,omitempty"`
	// Languages overrides the project's known regions.
	Languages []string `yaml:"languages,omitempty"`
	// ExcludeMarkers select file groups dropped from exports. Nil means
	// reconcile.DefaultExcludeMarkers; an empty list drops nothing.
	ExcludeMarkers []string `yaml:"exclude_markers,omitempty"`
	// Jobs is the number of languages exported at once.
	Jobs int `yaml:"jobs,omitempty"`

	Xcodebuild string `yaml:"xcodebuild,omitempty"`
	Xcrun      string `yaml:"xcrun,omitempty"`

	// StringsOutput is the directory for generated .strings catalogs.
	// Empty writes each catalog next to its IB file.
	StringsOutput string `yaml:"strings_output,omitempty"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// Default returns the configuration used without a .ibkit.yaml.
func Default() *Config {
	return &Config{
		IBPath:     ".",
		XLIFFDir:   ".",
		Jobs:       1,
		Xcodebuild: "xcodebuild",
		Xcrun:      "xcrun",
	}
}

// Markers returns the effective file-group exclusion markers.
func (c *Config) Markers() []string {
	if c.ExcludeMarkers == nil {
		return reconcile.DefaultExcludeMarkers
	}
	return c.ExcludeMarkers
}

var projectPattern = regexp.MustCompile(`\.xcodeproj/?$`)

// Validate checks field values.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Project, validation.Match(projectPattern).Error("must be a .xcodeproj bundle")),
		validation.Field(&c.IBPath, validation.Required),
		validation.Field(&c.XLIFFDir, validation.Required),
		validation.Field(&c.Languages, validation.Each(validation.Required, validation.By(languageCode))),
		validation.Field(&c.ExcludeMarkers, validation.Each(validation.Required)),
		validation.Field(&c.Jobs, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.Xcodebuild, validation.Required),
		validation.Field(&c.Xcrun, validation.Required),
	)
}

func languageCode(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if s == "Base" {
		return errors.New("Base is not a translation language")
	}
	if _, err := language.Parse(s); err != nil {
		return errors.New("must be a language code such as de or zh-Hans")
	}
	return nil
}

// resolve makes relative paths from a config file relative to the
// directory holding it.
func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Project, &c.IBPath, &c.XLIFFDir, &c.StringsOutput} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
