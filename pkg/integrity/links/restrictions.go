package links

import (
	"fmt"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
)

// checkRestrictions reports restrictions with inverted date ranges and
// partial restrictions that overlap a non-partial one for the same country
// without a disjoint region scope.
func (c *Checker) checkRestrictions() {
	if !c.require(dataset.KindRestrictions) {
		return
	}

	file := c.m.File(dataset.KindRestrictions)
	all := c.ds.Restrictions.All()

	for _, r := range all {
		if r.Effective().Valid() {
			continue
		}
		c.findings.Add(findings.Finding{
			Kind:     findings.KindRestrictionConflict,
			Severity: findings.SeverityError,
			File:     file,
			ID:       r.ID,
			Field:    "effective_to",
			Expected: fmt.Sprintf("on or after %s", r.EffectiveFrom),
			Found:    r.EffectiveTo.String(),
			Message:  fmt.Sprintf("restriction %s ends %s before it starts %s", r.ID, r.EffectiveTo, r.EffectiveFrom),
		})
	}

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			if !conflicting(a, b) {
				continue
			}
			if b.ID < a.ID {
				a, b = b, a
			}
			c.findings.Add(findings.Finding{
				Kind:       findings.KindRestrictionConflict,
				Severity:   findings.SeverityError,
				File:       file,
				ID:         a.ID,
				Field:      "effective_partial",
				TargetFile: file,
				Target:     b.ID,
				Found:      fmt.Sprintf("%s %s, %s %s", a.ID, a.Effective(), b.ID, b.Effective()),
				Message: fmt.Sprintf("restrictions %s and %s for %s overlap in time and territory but disagree on effective_partial",
					a.ID, b.ID, a.CountryCode),
			})
		}
	}
}

// conflicting reports whether a partial and a non-partial restriction of
// the same country overlap in time on a shared territory. An empty region
// is the whole country.
func conflicting(a, b dataset.Restriction) bool {
	if a.CountryCode != b.CountryCode || a.EffectivePartial == b.EffectivePartial {
		return false
	}
	if !a.Effective().Valid() || !b.Effective().Valid() {
		return false
	}
	if !a.Effective().Overlaps(b.Effective()) {
		return false
	}
	disjoint := a.RegionCode != "" && b.RegionCode != "" && a.RegionCode != b.RegionCode
	return !disjoint
}
