// Package report aggregates the findings of a validation run into a single
// ordered result.
package report

import (
	"gruncellka/porto/pkg/integrity/findings"
)

// Report is the immutable result of a validation run. Passed is true iff
// there are no errors; notices never affect it.
type Report struct {
	Passed  bool               `json:"passed"`
	Analyze bool               `json:"analyze"`
	Errors  []findings.Finding `json:"errors"`
	Notices []findings.Finding `json:"notices"`
}

// Build merges the given lists. Identical findings from different checkers
// are reported once. Notices are kept only in analysis mode. The output
// order depends only on the findings, never on the order of lists.
func Build(analyze bool, lists ...*findings.List) Report {
	merged := findings.NewList()
	for _, l := range lists {
		merged.Merge(l)
	}

	r := Report{
		Analyze: analyze,
		Errors:  []findings.Finding{},
		Notices: []findings.Finding{},
	}

	var prev *findings.Finding
	for _, f := range merged.Findings() {
		if prev != nil && equal(*prev, f) {
			continue
		}
		f := f
		prev = &f

		if f.IsError() {
			r.Errors = append(r.Errors, f)
		} else if analyze {
			r.Notices = append(r.Notices, f)
		}
	}

	r.Passed = len(r.Errors) == 0
	return r
}

// ErrorCount returns the number of errors.
func (r Report) ErrorCount() int { return len(r.Errors) }

// NoticeCount returns the number of notices.
func (r Report) NoticeCount() int { return len(r.Notices) }

// ByKind returns the errors and notices of the given kind.
func (r Report) ByKind(kind findings.Kind) []findings.Finding {
	var out []findings.Finding
	for _, f := range r.Errors {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	for _, f := range r.Notices {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// CountsByKind returns the number of findings per kind.
func (r Report) CountsByKind() map[findings.Kind]int {
	counts := make(map[findings.Kind]int)
	for _, f := range r.Errors {
		counts[f.Kind]++
	}
	for _, f := range r.Notices {
		counts[f.Kind]++
	}
	return counts
}

func equal(a, b findings.Finding) bool {
	return !findings.Less(a, b) && !findings.Less(b, a) && a.Severity == b.Severity
}
