// Package stringsfile builds .strings catalogs for Interface Builder files,
// containing only the elements opted into localization.
//
// Each entry carries the element's catalog info as comment:
//
//	/* LoginViewController label text: Welcome text */
//	"F4z-Kg-ni6.text" = "Welcome";
package stringsfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/ibkit/record"
	"github.com/minios-linux/ibkit/xcode"
)

// Ext is the extension of generated catalogs.
const Ext = ".strings"

// Entry is one key/value pair of a catalog.
type Entry struct {
	Record   record.Record
	Property string
	Value    string
}

// Key is the catalog key, "<object id>.<property>".
func (e Entry) Key() string {
	return e.Record.OriginalID + "." + e.Property
}

// Comment is the text of the entry's comment line.
func (e Entry) Comment() string {
	return e.Record.CatalogInfo(e.Property)
}

func (e Entry) String() string {
	return fmt.Sprintf("/* %s */\n\"%s\" = \"%s\";", escapeComment(e.Comment()), escape(e.Key()), escape(e.Value))
}

// Build returns the entries of every enabled record that ibtool listed,
// stably sorted by owner name. Enabled records ibtool does not know are
// returned as missing.
func Build(records []record.Record, ls *xcode.LocalizableStrings) (entries []Entry, missing []record.Record) {
	for _, r := range records {
		if !r.Enabled {
			continue
		}
		props, ok := ls.Properties(r.OriginalID)
		if !ok || r.OriginalID == "" {
			missing = append(missing, r)
			continue
		}
		for _, p := range props {
			entries = append(entries, Entry{Record: r, Property: p.Name, Value: p.Value})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Record.OwnerName < entries[j].Record.OwnerName
	})
	return entries, missing
}

// Render joins entries into catalog text, separated by blank lines.
func Render(entries []Entry) []byte {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.String()
	}
	out := strings.Join(parts, "\n\n")
	if out != "" {
		out += "\n"
	}
	return []byte(out)
}

// OutputPath returns where the catalog of ibFile goes: next to it, or in
// dir when set. The name is the IB file's base name with .strings.
func OutputPath(ibFile, dir string) string {
	base := filepath.Base(ibFile)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + Ext
	if dir == "" {
		return filepath.Join(filepath.Dir(ibFile), name)
	}
	return filepath.Join(dir, name)
}

// StringsLister lists the localizable strings of an IB file.
// *xcode.Ibtool implements it.
type StringsLister interface {
	LocalizableStrings(ctx context.Context, file string) (*xcode.LocalizableStrings, error)
}

// Result describes one generated catalog.
type Result struct {
	Path    string
	Entries []Entry
	Missing []record.Record
}

// Generate writes the catalog of ibFile from records extracted from it.
func Generate(ctx context.Context, ibtool StringsLister, ibFile string, records []record.Record, dir string) (*Result, error) {
	ls, err := ibtool.LocalizableStrings(ctx, ibFile)
	if err != nil {
		return nil, fmt.Errorf("listing strings of %s: %w", ibFile, err)
	}

	entries, missing := Build(records, ls)
	res := &Result{Path: OutputPath(ibFile, dir), Entries: entries, Missing: missing}

	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(res.Path, Render(entries), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", res.Path, err)
	}
	return res, nil
}

var escaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escape(s string) string {
	return escaper.Replace(s)
}

// escapeComment keeps a comment from closing itself early.
func escapeComment(s string) string {
	return strings.ReplaceAll(s, "*/", "* /")
}
