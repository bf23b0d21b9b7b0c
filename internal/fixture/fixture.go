// Package fixture writes a small, fully consistent dataset into a temporary
// directory for tests. Tests start from the valid files and override the
// ones a scenario needs to break.
package fixture

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"gruncellka/porto/pkg/dataset"
)

// AsOf is the evaluation day every fixture price and service is valid on.
var AsOf = dataset.NewDate(2025, 1, 1)

// Missing as an override value leaves the file out of the directory.
const Missing = "\x00missing"

// Products is products.json: one letter sold in both zones.
const Products = `{
  "unit": {"weight": "g", "dimension": "mm"},
  "products": [
    {
      "id": "letter_standard",
      "dimensions": ["letter_c5"],
      "weight_tier": "w_0_20",
      "supported_zones": ["zone_de", "zone_eu"]
    }
  ]
}
`

// Zones is zones.json.
const Zones = `{
  "zones": [
    {"id": "zone_de", "countries": ["DE"], "currency": "EUR"},
    {"id": "zone_eu", "countries": ["FR", "IT"], "currency": "EUR"}
  ]
}
`

// WeightTiers is weight_tiers.json, keyed by tier id.
const WeightTiers = `{
  "unit": {"weight": "g"},
  "weight_tiers": {
    "w_0_20": {"min": 0, "max": 20},
    "w_21_50": {"min": 21, "max": 50}
  }
}
`

// Dimensions is dimensions.json, keyed by dimension id.
const Dimensions = `{
  "unit": {"dimension": "mm"},
  "dimensions": {
    "letter_c5": {"length": 229, "width": 162, "height": 5}
  }
}
`

// Features is features.json, keyed by feature id.
const Features = `{
  "features": {
    "tracking": {"name": "Tracking"},
    "insurance": {"name": "Insurance"}
  }
}
`

// Restrictions is restrictions.json: one framework and one partial regional
// restriction issued under it.
const Restrictions = `{
  "frameworks": {
    "EU_SANCTIONS_2014": {"name": "EU sanctions 2014"}
  },
  "restrictions": [
    {
      "id": "CRIMEA_2014",
      "country_code": "UA",
      "region_code": "43",
      "framework_id": "EU_SANCTIONS_2014",
      "effective_from": "2014-06-23",
      "effective_to": null,
      "effective_partial": true
    }
  ]
}
`

// Services is services.json.
const Services = `{
  "services": [
    {
      "id": "registered_mail",
      "features": ["tracking", "insurance"],
      "products": ["letter_standard"],
      "coverage": 5000,
      "active": true
    }
  ]
}
`

// Prices is prices.json: every declared route and the registered mail
// service, all effective from 2024-01-01.
const Prices = `{
  "unit": {"price": "cents", "currency": "EUR"},
  "prices": {
    "product_prices": [
      {"product_id": "letter_standard", "zone": "zone_de", "weight_tier": "w_0_20",
       "price": [{"price": 85, "effective_from": "2024-01-01", "effective_to": null}]},
      {"product_id": "letter_standard", "zone": "zone_de", "weight_tier": "w_21_50",
       "price": [{"price": 100, "effective_from": "2024-01-01", "effective_to": null}]},
      {"product_id": "letter_standard", "zone": "zone_eu", "weight_tier": "w_0_20",
       "price": [{"price": 125, "effective_from": "2024-01-01", "effective_to": null}]},
      {"product_id": "letter_standard", "zone": "zone_eu", "weight_tier": "w_21_50",
       "price": [{"price": 170, "effective_from": "2024-01-01", "effective_to": null}]}
    ],
    "service_prices": [
      {"service_id": "registered_mail",
       "price": [{"price": 250, "effective_from": "2024-01-01", "effective_to": null}]}
    ]
  }
}
`

// DataLinks is data_links.json.
const DataLinks = `{
  "schema_version": "1.0",
  "unit": {"weight": "g", "dimension": "mm", "price": "cents", "currency": "EUR"},
  "dependencies": {
    "prices": ["products", "zones", "weight_tiers"],
    "products": ["dimensions", "weight_tiers", "zones"],
    "services": ["features", "products"],
    "restrictions": []
  },
  "links": {
    "letter_standard": {
      "zones": ["zone_de", "zone_eu"],
      "weight_tiers": ["w_0_20", "w_21_50"]
    }
  },
  "lookup_rules": {
    "price_by_route": {
      "file": "prices.json",
      "files": ["products.json", "zones.json", "weight_tiers.json"],
      "array": "prices.product_prices",
      "match": {"product_id": "products.id", "zone": "zones.id", "weight_tier": "weight_tiers.id"}
    }
  },
  "global_settings": {
    "price_source": "prices.json",
    "available_services": ["registered_mail"],
    "mandatory_services": {"zone_de": ["registered_mail"]}
  }
}
`

// Files returns the valid dataset keyed by file name.
func Files() map[string]string {
	return map[string]string{
		"products.json":     Products,
		"zones.json":        Zones,
		"weight_tiers.json": WeightTiers,
		"dimensions.json":   Dimensions,
		"features.json":     Features,
		"restrictions.json": Restrictions,
		"services.json":     Services,
		"prices.json":       Prices,
		"data_links.json":   DataLinks,
	}
}

// WriteDir writes the valid dataset with overrides applied into a new
// temporary directory and returns it. An override replaces a file's content,
// adds a file, or, when it is Missing, leaves the file out.
func WriteDir(tb testing.TB, overrides map[string]string) string {
	tb.Helper()

	files := Files()
	for name, content := range overrides {
		files[name] = content
	}

	dir := tb.TempDir()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content := files[name]
		if content == Missing {
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("fixture: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			tb.Fatalf("fixture: %v", err)
		}
	}
	return dir
}

// Replace returns content with the single occurrence of old replaced by
// repl. It fails tb when old does not occur exactly once, so a fixture
// edit cannot silently stop applying.
func Replace(tb testing.TB, content, old, repl string) string {
	tb.Helper()
	if n := strings.Count(content, old); n != 1 {
		tb.Fatalf("fixture: %q occurs %d times", old, n)
	}
	return strings.Replace(content, old, repl, 1)
}
