package links

import (
	"fmt"
	"sort"
	"strings"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/resolver"
)

// analyzeLinks compares each product's link declaration with the product
// itself and notes products the manifest does not link.
func (c *Checker) analyzeLinks() {
	if !c.ds.Available(dataset.KindProducts) {
		return
	}
	file := c.m.ManifestFile()

	linked := make(map[string]bool)
	for _, l := range c.m.Manifest.Links() {
		linked[l.ProductID] = true

		p, ok := c.ds.Products.Get(l.ProductID)
		if !ok {
			continue
		}

		linkZones, productZones := sortedSet(l.Zones), sortedSet(p.SupportedZones)
		if strings.Join(linkZones, ",") != strings.Join(productZones, ",") {
			c.findings.Add(findings.Finding{
				Kind:     findings.KindZoneMismatch,
				Severity: findings.SeverityNotice,
				File:     file,
				ID:       p.ID,
				Field:    resolver.FieldLinkZones,
				Expected: strings.Join(productZones, ","),
				Found:    strings.Join(linkZones, ","),
				Message:  fmt.Sprintf("links for %s list zones %v but the product supports %v", p.ID, linkZones, productZones),
			})
		}

		if p.WeightTier != "" && !contains(l.WeightTiers, p.WeightTier) {
			c.findings.Add(findings.Finding{
				Kind:     findings.KindWeightTierMismatch,
				Severity: findings.SeverityNotice,
				File:     file,
				ID:       p.ID,
				Field:    resolver.FieldLinkWeightTiers,
				Expected: p.WeightTier,
				Found:    strings.Join(sortedSet(l.WeightTiers), ","),
				Message:  fmt.Sprintf("weight tier %s of product %s is not in its links", p.WeightTier, p.ID),
			})
		}
	}

	for _, p := range c.ds.Products.All() {
		if linked[p.ID] {
			continue
		}
		c.findings.Add(findings.Finding{
			Kind:     findings.KindUnlinkedProduct,
			Severity: findings.SeverityNotice,
			File:     file,
			ID:       p.ID,
			Field:    resolver.FieldLinks,
			Message:  fmt.Sprintf("product %s is not in links", p.ID),
		})
	}
}

// analyzeUsage notes features no service offers and zones without any
// priced route.
func (c *Checker) analyzeUsage(actual map[dataset.Triple]bool) {
	if c.ds.Available(dataset.KindFeatures, dataset.KindServices) {
		used := make(map[string]bool)
		for _, s := range c.ds.Services.All() {
			for _, f := range s.Features {
				used[f] = true
			}
		}
		for _, f := range c.ds.Features.All() {
			if used[f.ID] {
				continue
			}
			c.findings.Add(findings.Finding{
				Kind:     findings.KindUnusedFeature,
				Severity: findings.SeverityNotice,
				File:     c.m.File(dataset.KindFeatures),
				ID:       f.ID,
				Message:  fmt.Sprintf("feature %s is not offered by any service", f.ID),
			})
		}
	}

	if c.ds.Available(dataset.KindZones, dataset.KindPrices) {
		priced := make(map[string]bool)
		for t := range actual {
			priced[t.ZoneID] = true
		}
		for _, z := range c.ds.Zones.All() {
			if priced[z.ID] {
				continue
			}
			c.findings.Add(findings.Finding{
				Kind:     findings.KindUnpricedZone,
				Severity: findings.SeverityNotice,
				File:     c.m.File(dataset.KindZones),
				ID:       z.ID,
				Message:  fmt.Sprintf("zone %s has no priced products on %s", z.ID, c.m.AsOf),
			})
		}
	}
}

func sortedSet(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
