package links

import (
	"fmt"
	"strings"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/manifest"
)

// Fields reported by lookup rule findings.
const (
	FieldLookupFile  = "file"
	FieldLookupArray = "array"
	FieldLookupMatch = "match"
	FieldLookupRules = "lookup_rules"
	FieldPriceSource = "global_settings.price_source"
)

// participatingKinds are the files a declared link triple is resolved
// through.
var participatingKinds = []dataset.Kind{
	dataset.KindProducts,
	dataset.KindZones,
	dataset.KindWeightTiers,
	dataset.KindPrices,
}

// checkLookupRules verifies the lookup configuration against the loaded
// files: referenced files are loaded, array paths exist, match keys exist in
// price entries, every file taking part in declared links is named by a rule
// and the price source is the prices file.
func (c *Checker) checkLookupRules() {
	reg := c.ds.Registry
	named := make(map[dataset.Kind]bool)

	for _, rule := range c.m.Manifest.LookupRules() {
		for _, ref := range rule.ReferencedFiles() {
			kind, _ := reg.KindOf(ref)
			named[kind] = true
			if kind == dataset.KindManifest || c.ds.Available(kind) {
				continue
			}
			c.lookupError(rule.Name, FieldLookupFile, "", ref,
				fmt.Sprintf("lookup rule %s references %s which was not loaded", rule.Name, ref))
		}

		if rule.File == "" {
			continue
		}
		kind, _ := reg.KindOf(rule.File)
		if !c.ds.Available(kind) {
			continue
		}
		c.checkLookupArray(rule, kind)
		c.checkLookupMatch(rule, kind)
	}

	if len(c.m.Manifest.DeclaredLinkTriples()) > 0 {
		for _, kind := range participatingKinds {
			if named[kind] {
				continue
			}
			file := c.m.File(kind)
			c.lookupError(file, FieldLookupRules, file, "",
				fmt.Sprintf("%s takes part in declared links but no lookup rule names it", file))
		}
	}

	source := c.m.Manifest.GlobalSettings().PriceSource
	if source == "" {
		return
	}
	if kind, ok := reg.KindOf(source); !ok || kind != dataset.KindPrices {
		c.lookupError("", FieldPriceSource, c.m.File(dataset.KindPrices), source,
			fmt.Sprintf("price_source %q should be %s", source, c.m.File(dataset.KindPrices)))
	}
}

func (c *Checker) checkLookupArray(rule manifest.LookupRule, kind dataset.Kind) {
	if rule.Array == "" || c.ds.Paths[kind][rule.Array] {
		return
	}
	c.lookupError(rule.Name, FieldLookupArray, "", rule.Array,
		fmt.Sprintf("lookup rule %s array path %q does not exist in %s", rule.Name, rule.Array, c.m.File(kind)))
}

func (c *Checker) checkLookupMatch(rule manifest.LookupRule, kind dataset.Kind) {
	if kind != dataset.KindPrices || len(rule.Match) == 0 || len(c.ds.PriceKeys) == 0 {
		return
	}

	available := make(map[string]bool, len(c.ds.PriceKeys))
	for _, k := range c.ds.PriceKeys {
		available[k] = true
	}

	var missing []string
	for _, k := range rule.Match {
		if !available[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return
	}
	c.lookupError(rule.Name, FieldLookupMatch, strings.Join(c.ds.PriceKeys, ","), strings.Join(missing, ","),
		fmt.Sprintf("lookup rule %s match keys %v do not exist in price entries (available: %v)", rule.Name, missing, c.ds.PriceKeys))
}

func (c *Checker) lookupError(id, field, expected, found, message string) {
	c.findings.Add(findings.Finding{
		Kind:     findings.KindLookupRule,
		Severity: findings.SeverityError,
		File:     c.m.ManifestFile(),
		ID:       id,
		Field:    field,
		Expected: expected,
		Found:    found,
		Message:  message,
	})
}
