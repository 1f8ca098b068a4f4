// Package record holds the normalized description of one Interface Builder
// element that was opted into localization via runtime attributes.
package record

import "strings"

// NoCommentPlaceholder is written into strings catalog entries for elements
// without an i18n_comment. Interchange notes never use it.
const NoCommentPlaceholder = "No comment provided by engineer."

// Record is one element's localization intent.
type Record struct {
	// OriginalID is the IB object id (e.g. "F4z-Kg-ni6"). It is the join
	// key against translation unit ids and is never rewritten.
	OriginalID string
	// OwnerName is the custom class of the enclosing view controller. Optional.
	OwnerName string
	// ElementKind is the IB element name, e.g. "label" or "switch".
	ElementKind string
	// Enabled reports whether the element's text goes to translators.
	Enabled bool
	// Comment is the engineer's note for translators. Optional.
	Comment string
	// Source is the IB file the record was extracted from.
	Source string
}

// Info joins the owner name and element kind, skipping absent fields.
func (r Record) Info() string {
	return joinPresent(r.OwnerName, r.ElementKind)
}

// FormattedInfo is the text written into interchange notes and shown in
// console reports: the info prefix followed by the comment, if any.
func (r Record) FormattedInfo() string {
	return joinPresent(r.OwnerName, r.ElementKind, r.Comment)
}

// CatalogInfo is the comment line content for a strings catalog entry of
// the given property. Absent comments fall back to NoCommentPlaceholder.
func (r Record) CatalogInfo(property string) string {
	comment := strings.TrimSpace(r.Comment)
	if comment == "" {
		comment = NoCommentPlaceholder
	}
	info := joinPresent(r.OwnerName, r.ElementKind, property)
	if info == "" {
		return comment
	}
	return info + ": " + comment
}

// Matches reports whether a translation unit id belongs to this record.
// Matching is by prefix; an empty OriginalID never matches.
func (r Record) Matches(unitID string) bool {
	if r.OriginalID == "" {
		return false
	}
	return strings.HasPrefix(unitID, r.OriginalID)
}

func joinPresent(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
