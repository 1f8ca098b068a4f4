// Package ibfile finds Interface Builder documents (.storyboard, .xib) and
// extracts the elements that were opted into localization through the
// i18n_enabled / i18n_comment user defined runtime attributes.
//
// In Interface Builder the attributes look like:
//
//	<label text="Welcome" id="F4z-Kg-ni6">
//	    <userDefinedRuntimeAttributes>
//	        <userDefinedRuntimeAttribute type="boolean" keyPath="i18n_enabled" value="YES"/>
//	        <userDefinedRuntimeAttribute type="string" keyPath="i18n_comment" value="Welcome text"/>
//	    </userDefinedRuntimeAttributes>
//	</label>
package ibfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/ibkit/apperr"
	"github.com/minios-linux/ibkit/record"
)

// Runtime attribute key paths set by the iOS side of the integration.
const (
	EnabledKeyPath = "i18n_enabled"
	CommentKeyPath = "i18n_comment"
)

// AcceptedExtensions lists the Interface Builder file types.
var AcceptedExtensions = []string{".storyboard", ".xib"}

// skipDirs contains directory names never searched for input files.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"DerivedData":  true,
	"Pods":         true,
	"Carthage":     true,
	"node_modules": true,
}

// ---------------------------------------------------------------------------
// Discovery
// ---------------------------------------------------------------------------

// Discover resolves path to Interface Builder files: a directory is
// searched recursively, a single file must have an accepted extension.
func Discover(path string) ([]string, error) {
	return FindFiles(path, AcceptedExtensions...)
}

// FindFiles resolves path to files with one of exts. A missing path is an
// *apperr.InputNotFoundError, a single file with another extension an
// *apperr.UnsupportedFileTypeError, and a directory without matches
// wraps apperr.ErrInputNotFound.
func FindFiles(path string, exts ...string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &apperr.InputNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasExt(path, exts) {
			return nil, &apperr.UnsupportedFileTypeError{Path: path, Accepted: exts}
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if p != path && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if hasExt(p, exts) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s contains no %s files: %w", path, strings.Join(exts, ", "), apperr.ErrInputNotFound)
	}

	sort.Strings(files)
	return files, nil
}

func hasExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Extraction
// ---------------------------------------------------------------------------

// ExtractFile reads an Interface Builder file and returns its records.
func ExtractFile(path string) ([]record.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &apperr.InputNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	records, err := Extract(data)
	if err != nil {
		return nil, &apperr.ParseError{Path: path, Err: err}
	}
	for i := range records {
		records[i].Source = path
	}
	return records, nil
}

// ExtractAll extracts records from every file, in file order.
func ExtractAll(paths []string) ([]record.Record, error) {
	var all []record.Record
	for _, p := range paths {
		records, err := ExtractFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// element is an open element on the extraction stack.
type element struct {
	local       string
	id          string
	customClass string

	// set while its userDefinedRuntimeAttributes are read
	flagged bool
	enabled bool
	comment string
}

// Extract returns one record per element carrying an i18n_enabled runtime
// attribute, in document order. Elements without it yield nothing.
func Extract(data []byte) ([]record.Record, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		stack   []*element
		records []record.Record
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{
				local:       t.Name.Local,
				id:          attr(t, "id"),
				customClass: attr(t, "customClass"),
			}
			stack = append(stack, el)

			if t.Name.Local != "userDefinedRuntimeAttribute" || len(stack) < 3 {
				continue
			}
			if stack[len(stack)-2].local != "userDefinedRuntimeAttributes" {
				continue
			}
			owner := stack[len(stack)-3]
			switch attr(t, "keyPath") {
			case EnabledKeyPath:
				owner.flagged = true
				owner.enabled = attr(t, "value") == "YES"
			case CommentKeyPath:
				owner.comment = attr(t, "value")
			}

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced </%s>", t.Name.Local)
			}
			closing := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if closing.local != "userDefinedRuntimeAttributes" || len(stack) == 0 {
				continue
			}
			owner := stack[len(stack)-1]
			if !owner.flagged {
				continue
			}
			records = append(records, record.Record{
				OriginalID:  owner.id,
				OwnerName:   ownerName(stack[:len(stack)-1]),
				ElementKind: owner.local,
				Enabled:     owner.enabled,
				Comment:     owner.comment,
			})
			owner.flagged = false
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed <%s>", stack[len(stack)-1].local)
	}
	return records, nil
}

// ownerName returns the custom class of the nearest enclosing controller
// scene object. Controllers without a custom class, and xibs, have none.
func ownerName(ancestors []*element) string {
	for i := len(ancestors) - 1; i >= 0; i-- {
		if strings.HasSuffix(ancestors[i].local, "Controller") {
			return ancestors[i].customClass
		}
	}
	return ""
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
