// Package links verifies that the routes declared in the manifest agree with
// what the data files actually price, together with the related service,
// lookup-rule, price and restriction consistency rules.
package links

import (
	"fmt"
	"sort"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/model"
	"gruncellka/porto/pkg/integrity/resolver"
)

// FieldPrice is the field reported for missing or conflicting prices.
const FieldPrice = "price"

// Checker runs the link consistency checks over a resolved model.
type Checker struct {
	m        *model.Model
	ds       *dataset.Dataset
	res      *resolver.Resolution
	findings *findings.List
	noted    map[dataset.Kind]bool
}

// NewChecker creates a link consistency checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Check runs every link check. Analysis notices are always produced; the
// report decides whether to show them.
func (c *Checker) Check(m *model.Model, res *resolver.Resolution) *findings.List {
	c.m = m
	c.ds = m.Dataset
	c.res = res
	c.findings = findings.NewList()
	c.noted = make(map[dataset.Kind]bool)

	actual := c.actualTriples()

	if m.HasManifest() {
		c.checkDeclaredRoutes(actual)
		c.checkMandatoryServices(actual)
		c.checkAvailableServices()
		c.checkLookupRules()
		c.analyzeLinks()
	}
	c.checkCoverage()
	c.checkOverlappingPrices()
	c.checkServiceLifecycle()
	c.checkRestrictions()
	c.analyzeUsage(actual)

	return c.findings
}

// require reports whether every kind is available, noting the first
// missing one.
func (c *Checker) require(kinds ...dataset.Kind) bool {
	missing := c.ds.Unavailable(kinds...)
	if len(missing) == 0 {
		return true
	}
	for _, k := range missing {
		if !c.noted[k] {
			c.noted[k] = true
			c.findings.Add(findings.FileUnavailable(c.m.File(k), "link checks depending on it were skipped"))
		}
	}
	return false
}

// actualTriples returns the routes with at least one price effective on the
// as-of day. Empty price groups do not count.
func (c *Checker) actualTriples() map[dataset.Triple]bool {
	actual := make(map[dataset.Triple]bool)
	if !c.ds.Available(dataset.KindPrices) {
		return actual
	}
	for _, pp := range c.ds.ProductPrices {
		if len(pp.Prices) > 0 && pp.ActiveOn(c.m.AsOf) {
			actual[pp.Key()] = true
		}
	}
	return actual
}

// checkDeclaredRoutes compares the declared and priced route sets.
func (c *Checker) checkDeclaredRoutes(actual map[dataset.Triple]bool) {
	if !c.require(dataset.KindPrices) {
		return
	}

	declared := make(map[dataset.Triple]bool)
	for _, t := range c.m.Manifest.DeclaredLinkTriples() {
		declared[t] = true
		if actual[t] {
			continue
		}
		c.findings.Add(findings.Finding{
			Kind:       findings.KindMissingPrice,
			Severity:   findings.SeverityError,
			File:       c.m.File(dataset.KindPrices),
			ID:         t.String(),
			Field:      FieldPrice,
			TargetFile: c.m.ManifestFile(),
			Expected:   fmt.Sprintf("a price effective on %s", c.m.AsOf),
			Message:    fmt.Sprintf("declared route %s has no price effective on %s", t, c.m.AsOf),
		})
	}

	if c.m.AllowSupplementalRoutes() {
		return
	}
	for _, t := range sortedTriples(actual) {
		if declared[t] {
			continue
		}
		c.findings.Add(findings.Finding{
			Kind:       findings.KindUndeclaredLink,
			Severity:   findings.SeverityError,
			File:       c.m.ManifestFile(),
			ID:         t.String(),
			Field:      resolver.FieldLinks,
			TargetFile: c.m.File(dataset.KindPrices),
			Message:    fmt.Sprintf("route %s is priced but not declared in links", t),
		})
	}
}

// checkCoverage verifies that every product has, for every zone it ships
// to, a price in the zone's currency on a weight tier measured in the
// product's weight unit.
func (c *Checker) checkCoverage() {
	if !c.require(dataset.KindProducts, dataset.KindZones, dataset.KindWeightTiers, dataset.KindPrices) {
		return
	}

	pricesFile := c.m.File(dataset.KindPrices)
	productsFile := c.m.File(dataset.KindProducts)

	for _, p := range c.ds.Products.All() {
		weightUnit, _ := c.ds.ProductWeightUnit(p)

		for _, zoneID := range p.SupportedZones {
			zone, ok := c.ds.Zones.Get(zoneID)
			if !ok || c.res.IsDangling(productsFile, p.ID, resolver.FieldSupportedZones, zoneID) {
				continue
			}
			currency := c.ds.ZoneCurrency(zone)

			if c.covered(p.ID, zoneID, currency, weightUnit) {
				continue
			}
			c.findings.Add(findings.Finding{
				Kind:       findings.KindMissingPrice,
				Severity:   findings.SeverityError,
				File:       pricesFile,
				ID:         dataset.Triple{ProductID: p.ID, ZoneID: zoneID}.String(),
				Field:      FieldPrice,
				TargetFile: productsFile,
				Expected:   fmt.Sprintf("currency %s, weight unit %s", currency, weightUnit),
				Message: fmt.Sprintf("product %s ships to %s but has no price in %s on a weight tier measured in %s",
					p.ID, zoneID, currency, weightUnit),
			})
		}
	}
}

func (c *Checker) covered(productID, zoneID, currency, weightUnit string) bool {
	for _, pp := range c.ds.ProductPrices {
		if pp.ProductID != productID || pp.Zone != zoneID {
			continue
		}
		tier, ok := c.ds.WeightTiers.Get(pp.WeightTier)
		if !ok {
			continue
		}
		if tierUnit, _ := c.ds.WeightTierUnit(tier); tierUnit != weightUnit {
			continue
		}
		for _, item := range pp.Prices {
			if item.Effective().Contains(c.m.AsOf) && c.ds.PriceCurrency(item) == currency {
				return true
			}
		}
	}
	return false
}

func sortedTriples(set map[dataset.Triple]bool) []dataset.Triple {
	out := make([]dataset.Triple, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
