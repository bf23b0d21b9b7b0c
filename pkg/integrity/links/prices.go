package links

import (
	"fmt"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
)

// checkOverlappingPrices requires a price key to be unique among items with
// overlapping effective ranges. Items of the same key may be split across
// several groups.
func (c *Checker) checkOverlappingPrices() {
	if !c.require(dataset.KindPrices) {
		return
	}

	var keys []string
	items := make(map[string][]dataset.PriceItem)
	add := func(key string, prices []dataset.PriceItem) {
		if _, ok := items[key]; !ok {
			keys = append(keys, key)
		}
		items[key] = append(items[key], prices...)
	}

	for _, pp := range c.ds.ProductPrices {
		add(pp.Key().String(), pp.Prices)
	}
	for _, sp := range c.ds.ServicePrices {
		add(sp.ID(), sp.Prices)
	}

	file := c.m.File(dataset.KindPrices)
	for _, key := range keys {
		list := items[key]
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				a, b := list[i].Effective(), list[j].Effective()
				if !a.Overlaps(b) {
					continue
				}
				c.findings.Add(findings.Finding{
					Kind:     findings.KindOverlappingPrice,
					Severity: findings.SeverityError,
					File:     file,
					ID:       key,
					Field:    FieldPrice,
					Found:    fmt.Sprintf("%s and %s", a, b),
					Message:  fmt.Sprintf("%s has prices with overlapping effective ranges %s and %s", key, a, b),
				})
			}
		}
	}
}
