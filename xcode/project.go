// Package xcode wraps the Xcode side of the workflow: reading the regions
// a project is localized into, and running xcodebuild / ibtool.
package xcode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"howett.net/plist"

	"github.com/minios-linux/ibkit/apperr"
)

// BaseRegion is the development-region pseudo language, never exported.
const BaseRegion = "Base"

// ProjectExt is the extension of Xcode project bundles.
const ProjectExt = ".xcodeproj"

// Project is an Xcode project bundle on disk.
type Project struct {
	// Path is the .xcodeproj directory.
	Path string
}

// OpenProject validates that path is an Xcode project bundle.
func OpenProject(path string) (*Project, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &apperr.InputNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	if !info.IsDir() || filepath.Ext(path) != ProjectExt {
		return nil, &apperr.UnsupportedFileTypeError{Path: path, Accepted: []string{ProjectExt}}
	}
	return &Project{Path: path}, nil
}

// FindProject returns the single .xcodeproj bundle directly inside dir.
func FindProject(dir string) (*Project, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ProjectExt))
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no %s found in %s: %w", ProjectExt, dir, apperr.ErrInputNotFound)
	case 1:
		return OpenProject(matches[0])
	default:
		sort.Strings(matches)
		return nil, fmt.Errorf("several projects found in %s (%v), pass one explicitly", dir, matches)
	}
}

// PBXProjPath returns the path of the project's project.pbxproj.
func (p *Project) PBXProjPath() string {
	return filepath.Join(p.Path, "project.pbxproj")
}

// Name returns the project name without extension.
func (p *Project) Name() string {
	base := filepath.Base(p.Path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// pbxproj is the subset of project.pbxproj needed to find knownRegions.
type pbxproj struct {
	RootObject string                            `plist:"rootObject"`
	Objects    map[string]map[string]interface{} `plist:"objects"`
}

// KnownRegions returns the knownRegions of the root project object, as
// written in the project file.
func (p *Project) KnownRegions() ([]string, error) {
	data, err := os.ReadFile(p.PBXProjPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &apperr.InputNotFoundError{Path: p.PBXProjPath()}
		}
		return nil, fmt.Errorf("reading %s: %w", p.PBXProjPath(), err)
	}
	return parseKnownRegions(data, p.PBXProjPath())
}

func parseKnownRegions(data []byte, path string) ([]string, error) {
	var proj pbxproj
	if _, err := plist.Unmarshal(data, &proj); err != nil {
		return nil, &apperr.ParseError{Path: path, Err: err}
	}
	root, ok := proj.Objects[proj.RootObject]
	if !ok {
		return nil, &apperr.ParseError{Path: path, Err: fmt.Errorf("root object %q not found", proj.RootObject)}
	}
	raw, _ := root["knownRegions"].([]interface{})

	var regions []string
	for _, r := range raw {
		if s, ok := r.(string); ok && s != "" {
			regions = append(regions, s)
		}
	}
	return regions, nil
}

// SupportedLanguages returns the project's regions without Base,
// deduplicated, in project order.
func (p *Project) SupportedLanguages() ([]string, error) {
	regions, err := p.KnownRegions()
	if err != nil {
		return nil, err
	}
	return withoutBase(regions), nil
}

func withoutBase(regions []string) []string {
	seen := make(map[string]bool)
	var langs []string
	for _, r := range regions {
		if r == BaseRegion || seen[r] {
			continue
		}
		seen[r] = true
		langs = append(langs, r)
	}
	return langs
}
