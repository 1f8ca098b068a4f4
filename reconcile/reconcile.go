// Package reconcile prunes and annotates an exported interchange document
// so that it matches the localization settings made in Interface Builder.
//
// Reconcile runs in three passes:
//
//  1. File groups whose original path contains an exclusion marker
//     (property lists, test targets) are dropped.
//  2. The remaining translation units are collected once.
//  3. Records are applied in input order. Units whose id starts with the
//     record's original id get the record's formatted info as note when the
//     record is enabled, or are removed when it is disabled.
//
// Running Reconcile again on its own output with the same records changes
// nothing.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/minios-linux/ibkit/record"
	"github.com/minios-linux/ibkit/xliff"
)

// DefaultExcludeMarkers select generated property-list exports and test
// target exports.
var DefaultExcludeMarkers = []string{".plist", "Tests"}

// Action is what happened to the units matched by a record.
type Action string

const (
	ActionUpdated Action = "updated"
	ActionRemoved Action = "removed"
)

// Outcome reports one record that matched at least one unit.
type Outcome struct {
	Record  record.Record
	Matched int
	Action  Action
}

func (o Outcome) String() string {
	s := fmt.Sprintf("%d translation unit(s) %s for %s", o.Matched, o.Action, o.Record.OriginalID)
	if info := o.Record.FormattedInfo(); info != "" {
		s += " " + info
	}
	return s
}

// Result is the report of a reconciliation run.
type Result struct {
	// ExcludedFiles lists the original paths of pruned file groups.
	ExcludedFiles []string
	// Outcomes follow the input record order. Records without matches
	// produce no outcome.
	Outcomes []Outcome
}

// Updated returns the total number of units whose note was set.
func (r Result) Updated() int { return r.count(ActionUpdated) }

// Removed returns the total number of units removed by disabled records.
func (r Result) Removed() int { return r.count(ActionRemoved) }

func (r Result) count(a Action) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == a {
			n += o.Matched
		}
	}
	return n
}

// Options tune a reconciliation run.
type Options struct {
	// ExcludeMarkers overrides DefaultExcludeMarkers when non-nil.
	ExcludeMarkers []string
}

func (o Options) markers() []string {
	if o.ExcludeMarkers == nil {
		return DefaultExcludeMarkers
	}
	return o.ExcludeMarkers
}

// Reconcile mutates doc in place according to records. A structural error
// (an enabled record matching a unit without a note) aborts the run; doc
// must then be discarded, not written.
func Reconcile(doc *xliff.Document, records []record.Record, opts Options) (Result, error) {
	var res Result

	for _, f := range doc.Files() {
		if excluded(f.Original, opts.markers()) {
			doc.RemoveFile(f)
			res.ExcludedFiles = append(res.ExcludedFiles, f.Original)
		}
	}

	live := doc.Units()

	for _, rec := range records {
		if rec.OriginalID == "" {
			continue
		}

		var matched []*xliff.Unit
		for _, u := range live {
			if rec.Matches(u.ID) {
				matched = append(matched, u)
			}
		}
		if len(matched) == 0 {
			continue
		}

		if rec.Enabled {
			info := rec.FormattedInfo()
			for _, u := range matched {
				if !u.HasNote() {
					// SetNote reports the missing slot as a StructuralError.
					return res, u.SetNote(info)
				}
			}
			for _, u := range matched {
				if err := u.SetNote(info); err != nil {
					return res, err
				}
			}
			res.Outcomes = append(res.Outcomes, Outcome{Record: rec, Matched: len(matched), Action: ActionUpdated})
			continue
		}

		for _, u := range matched {
			doc.RemoveUnit(u)
		}
		live = without(live, rec)
		res.Outcomes = append(res.Outcomes, Outcome{Record: rec, Matched: len(matched), Action: ActionRemoved})
	}

	return res, nil
}

func excluded(original string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(original, m) {
			return true
		}
	}
	return false
}

// without returns units not matched by rec, reusing the backing array.
func without(units []*xliff.Unit, rec record.Record) []*xliff.Unit {
	kept := units[:0]
	for _, u := range units {
		if !rec.Matches(u.ID) {
			kept = append(kept, u)
		}
	}
	return kept
}
