// Package units compares the units a quantity is declared in wherever more
// than one file refers to it. Units are compared as exact strings; nothing
// is converted.
package units

import (
	"fmt"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/model"
)

// Quantities.
const (
	Weight    = "weight"
	Dimension = "dimension"
	Price     = "price"
	Currency  = "currency"
)

// Checker runs the unit consistency checks.
type Checker struct {
	m        *model.Model
	ds       *dataset.Dataset
	findings *findings.List
}

// NewChecker creates a unit consistency checker.
func NewChecker() *Checker {
	return &Checker{}
}

// Check compares declared units across files. References that do not
// resolve are skipped; the resolver reports them.
func (c *Checker) Check(m *model.Model) *findings.List {
	c.m = m
	c.ds = m.Dataset
	c.findings = findings.NewList()

	c.checkFileUnits()
	c.checkProducts()
	c.checkPriceCurrencies()
	c.checkExpected()

	return c.findings
}

// declaration is a file-level unit value.
type declaration struct {
	file  string
	value string
}

// fileUnit returns the file-level unit of a quantity in kind's file. ok is
// false when the file did not load.
func (c *Checker) fileUnit(kind dataset.Kind, quantity string) (declaration, bool) {
	if kind == dataset.KindManifest {
		if !c.m.HasManifest() {
			return declaration{}, false
		}
		return declaration{file: c.m.ManifestFile(), value: pick(c.m.Manifest.Units(), quantity)}, true
	}
	if !c.ds.Available(kind) {
		return declaration{}, false
	}
	return declaration{file: c.m.File(kind), value: pick(c.ds.Units[kind], quantity)}, true
}

// owners maps each quantity to the file that defines it.
var owners = map[string]dataset.Kind{
	Weight:    dataset.KindWeightTiers,
	Dimension: dataset.KindDimensions,
	Price:     dataset.KindPrices,
	Currency:  dataset.KindPrices,
}

// referrers lists the files restating a quantity's file-level unit.
var referrers = map[string][]dataset.Kind{
	Weight:    {dataset.KindManifest, dataset.KindProducts},
	Dimension: {dataset.KindManifest, dataset.KindProducts},
	Price:     {dataset.KindManifest},
	Currency:  {dataset.KindManifest},
}

// checkFileUnits compares every file-level restatement of a quantity with
// the file that owns the quantity.
func (c *Checker) checkFileUnits() {
	for _, quantity := range []string{Weight, Dimension, Price, Currency} {
		owner, ok := c.fileUnit(owners[quantity], quantity)
		if !ok || owner.value == "" {
			continue
		}
		for _, kind := range referrers[quantity] {
			ref, ok := c.fileUnit(kind, quantity)
			if !ok || ref.value == "" || ref.value == owner.value {
				continue
			}
			c.findings.Add(findings.UnitMismatch(quantity, "", ref.file, ref.value, owner.file, owner.value))
		}
	}
}

// checkProducts compares each product's weight and dimension units with the
// weight tier and dimensions it references. File-level defaults on both
// sides were already compared, so a pair is only compared when one side
// overrides its file's unit.
func (c *Checker) checkProducts() {
	if !c.ds.Available(dataset.KindProducts) {
		return
	}
	productsFile := c.m.File(dataset.KindProducts)

	if c.ds.Available(dataset.KindWeightTiers) {
		tiersFile := c.m.File(dataset.KindWeightTiers)
		for _, p := range c.ds.Products.All() {
			tier, ok := c.ds.WeightTiers.Get(p.WeightTier)
			if !ok {
				continue
			}
			pu, pExplicit := c.ds.ProductWeightUnit(p)
			tu, tExplicit := c.ds.WeightTierUnit(tier)
			if !pExplicit && !tExplicit {
				continue
			}
			if pu == "" || tu == "" || pu == tu {
				continue
			}
			f := findings.UnitMismatch(Weight, p.ID, productsFile, pu, tiersFile, tu)
			f.Target = tier.ID
			c.findings.Add(f)
		}
	}

	if c.ds.Available(dataset.KindDimensions) {
		dimensionsFile := c.m.File(dataset.KindDimensions)
		for _, p := range c.ds.Products.All() {
			pu, pExplicit := c.ds.ProductDimensionUnit(p)
			for _, id := range p.Dimensions {
				dim, ok := c.ds.Dimensions.Get(id)
				if !ok {
					continue
				}
				du, dExplicit := c.ds.DimensionUnit(dim)
				if !pExplicit && !dExplicit {
					continue
				}
				if pu == "" || du == "" || pu == du {
					continue
				}
				f := findings.UnitMismatch(Dimension, p.ID, productsFile, pu, dimensionsFile, du)
				f.Target = dim.ID
				c.findings.Add(f)
			}
		}
	}
}

// checkPriceCurrencies compares the currency of every price item with the
// currency its zone expects. Each distinct currency is reported once per
// price group.
func (c *Checker) checkPriceCurrencies() {
	if !c.ds.Available(dataset.KindPrices, dataset.KindZones) {
		return
	}
	pricesFile := c.m.File(dataset.KindPrices)
	zonesFile := c.m.File(dataset.KindZones)

	for _, pp := range c.ds.ProductPrices {
		zone, ok := c.ds.Zones.Get(pp.Zone)
		if !ok || zone.Currency == "" {
			continue
		}
		reported := make(map[string]bool)
		for _, item := range pp.Prices {
			cur := c.ds.PriceCurrency(item)
			if cur == "" || cur == zone.Currency || reported[cur] {
				continue
			}
			reported[cur] = true
			f := findings.UnitMismatch(Currency, pp.Key().String(), pricesFile, cur, zonesFile, zone.Currency)
			f.Target = zone.ID
			c.findings.Add(f)
		}
	}
}

// checkExpected notes file-level units that are consistent but differ from
// the configured expected units.
func (c *Checker) checkExpected() {
	kinds := []dataset.Kind{
		dataset.KindManifest,
		dataset.KindProducts,
		dataset.KindWeightTiers,
		dataset.KindDimensions,
		dataset.KindPrices,
	}
	for _, kind := range kinds {
		for _, quantity := range []string{Weight, Dimension, Price, Currency} {
			decl, ok := c.fileUnit(kind, quantity)
			if !ok || decl.value == "" {
				continue
			}
			expected := pick(c.m.ExpectedUnits, quantity)
			if decl.value == expected {
				continue
			}
			c.findings.Add(findings.Finding{
				Kind:     findings.KindUnexpectedUnit,
				Severity: findings.SeverityNotice,
				File:     decl.file,
				Field:    "unit." + quantity,
				Expected: expected,
				Found:    decl.value,
				Message:  fmt.Sprintf("%s unit %q differs from the expected %q", quantity, decl.value, expected),
			})
		}
	}
}

func pick(u dataset.UnitDecl, quantity string) string {
	switch quantity {
	case Weight:
		return u.Weight
	case Dimension:
		return u.Dimension
	case Price:
		return u.Price
	case Currency:
		return u.Currency
	}
	return ""
}
