// Package langmeta provides language display metadata (native and English
// names, emoji flags) for the region codes found in Xcode projects.
package langmeta

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Code is the code as written in the project.
	Code    string
	Name    string
	English string
	Flag    string
}

// Canonical returns the BCP 47 form of lang ("pt_br" -> "pt-BR"), or lang
// trimmed when it does not parse.
func Canonical(lang string) string {
	tag, ok := parse(lang)
	if !ok {
		return strings.TrimSpace(lang)
	}
	return tag.String()
}

func parse(lang string) (language.Tag, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return language.Und, false
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}

// Resolve returns best-effort metadata for a project language code.
// Unknown codes keep the code as name and get no flag.
func Resolve(lang string) Meta {
	m := Meta{Code: lang, Name: lang, English: lang}
	tag, ok := parse(lang)
	if !ok {
		return m
	}
	if name := display.Self.Name(tag); name != "" {
		m.Name = name
	}
	if name := display.English.Tags().Name(tag); name != "" {
		m.English = name
	}
	if region, conf := tag.Region(); conf != language.No {
		m.Flag = flag(region.String())
	}
	return m
}

// flag turns a two-letter region into its regional indicator pair.
func flag(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range region {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + c - 'A')
	}
	return b.String()
}

// Label renders "Name [code]", the form used in console output.
func (m Meta) Label() string {
	if m.Name == m.Code {
		return m.Code
	}
	return m.Name + " [" + m.Code + "]"
}
