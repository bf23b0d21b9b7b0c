package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gruncellka/porto/internal/fixture"
	"gruncellka/porto/internal/fixture/fixturemodel"
	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/model"
	"gruncellka/porto/pkg/integrity/resolver"
)

// Price entries of the fixture, each with the separator before it.
const (
	routeEU20 = `,
      {"product_id": "letter_standard", "zone": "zone_eu", "weight_tier": "w_0_20",
       "price": [{"price": 125, "effective_from": "2024-01-01", "effective_to": null}]}`
	routeEU50 = `,
      {"product_id": "letter_standard", "zone": "zone_eu", "weight_tier": "w_21_50",
       "price": [{"price": 170, "effective_from": "2024-01-01", "effective_to": null}]}`
)

func check(t *testing.T, overrides map[string]string) *findings.List {
	t.Helper()
	return checkWith(t, overrides, model.Options{AsOf: fixture.AsOf})
}

func checkWith(t *testing.T, overrides map[string]string, opts model.Options) *findings.List {
	t.Helper()
	m := fixturemodel.LoadWith(t, overrides, opts)
	return NewChecker().Check(m, resolver.Resolve(m))
}

func errorsOf(list *findings.List) []findings.Finding {
	var out []findings.Finding
	for _, f := range list.Findings() {
		if f.IsError() {
			out = append(out, f)
		}
	}
	return out
}

func TestCheck_Valid(t *testing.T) {
	assert.Zero(t, check(t, nil).Count())
}

func TestCheck_MissingPrice(t *testing.T) {
	prices := fixture.Replace(t, fixture.Prices, routeEU50, "")
	list := check(t, map[string]string{"prices.json": prices})

	errs := errorsOf(list)
	require.Len(t, errs, 1)
	f := errs[0]
	assert.Equal(t, findings.KindMissingPrice, f.Kind)
	assert.Equal(t, "prices.json", f.File)
	assert.Equal(t, "letter_standard/zone_eu/w_21_50", f.ID)
	assert.Equal(t, FieldPrice, f.Field)
	assert.Equal(t, "data_links.json", f.TargetFile)
}

func TestCheck_PriceNotYetEffective(t *testing.T) {
	prices := fixture.Replace(t, fixture.Prices,
		`{"price": 170, "effective_from": "2024-01-01", "effective_to": null}`,
		`{"price": 170, "effective_from": "2025-06-01", "effective_to": null}`)
	overrides := map[string]string{"prices.json": prices}

	errs := errorsOf(check(t, overrides))
	require.Len(t, errs, 1)
	assert.Equal(t, "letter_standard/zone_eu/w_21_50", errs[0].ID)

	later := checkWith(t, overrides, model.Options{AsOf: dataset.NewDate(2025, 6, 1)})
	assert.Empty(t, errorsOf(later))
}

func TestCheck_UndeclaredLink(t *testing.T) {
	links := fixture.Replace(t, fixture.DataLinks,
		`"weight_tiers": ["w_0_20", "w_21_50"]`,
		`"weight_tiers": ["w_0_20"]`)
	overrides := map[string]string{"data_links.json": links}

	undeclared := check(t, overrides).ByKind(findings.KindUndeclaredLink)
	require.Len(t, undeclared, 2)
	assert.Equal(t, "letter_standard/zone_de/w_21_50", undeclared[0].ID)
	assert.Equal(t, "letter_standard/zone_eu/w_21_50", undeclared[1].ID)
	assert.Equal(t, "data_links.json", undeclared[0].File)
	assert.Equal(t, resolver.FieldLinks, undeclared[0].Field)

	allowed := checkWith(t, overrides, model.Options{AsOf: fixture.AsOf, AllowSupplementalRoutes: true})
	assert.Empty(t, allowed.ByKind(findings.KindUndeclaredLink))

	links = fixture.Replace(t, links,
		`"price_source": "prices.json",`,
		`"price_source": "prices.json", "allow_supplemental_routes": true,`)
	assert.Empty(t, check(t, map[string]string{"data_links.json": links}).ByKind(findings.KindUndeclaredLink))
}

func TestCheck_Coverage(t *testing.T) {
	prices := fixture.Replace(t, fixture.Prices, routeEU20, "")
	prices = fixture.Replace(t, prices, routeEU50, "")
	links := fixture.Replace(t, fixture.DataLinks,
		`"zones": ["zone_de", "zone_eu"]`,
		`"zones": ["zone_de"]`)
	list := check(t, map[string]string{"prices.json": prices, "data_links.json": links})

	errs := errorsOf(list)
	require.Len(t, errs, 1)
	f := errs[0]
	assert.Equal(t, findings.KindMissingPrice, f.Kind)
	assert.Equal(t, "letter_standard/zone_eu/", f.ID, "coverage findings carry no weight tier")
	assert.Equal(t, "products.json", f.TargetFile)
	assert.Equal(t, "currency EUR, weight unit g", f.Expected)

	zone := list.ByKind(findings.KindZoneMismatch)
	require.Len(t, zone, 1)
	assert.Equal(t, "zone_de,zone_eu", zone[0].Expected)
	assert.Equal(t, "zone_de", zone[0].Found)

	unpriced := list.ByKind(findings.KindUnpricedZone)
	require.Len(t, unpriced, 1)
	assert.Equal(t, "zone_eu", unpriced[0].ID)
}

func TestCheck_CoverageCurrency(t *testing.T) {
	zones := fixture.Replace(t, fixture.Zones,
		`{"id": "zone_eu", "countries": ["FR", "IT"], "currency": "EUR"}`,
		`{"id": "zone_eu", "countries": ["FR", "IT"], "currency": "CHF"}`)
	errs := errorsOf(check(t, map[string]string{"zones.json": zones}))

	require.Len(t, errs, 1)
	assert.Equal(t, findings.KindMissingPrice, errs[0].Kind)
	assert.Equal(t, "letter_standard/zone_eu/", errs[0].ID)
	assert.Equal(t, "currency CHF, weight unit g", errs[0].Expected)
}

func TestCheck_MandatoryServices(t *testing.T) {
	t.Run("inactive", func(t *testing.T) {
		services := fixture.Replace(t, fixture.Services, `"active": true`, `"active": false`)
		list := check(t, map[string]string{"services.json": services})

		missing := list.ByKind(findings.KindMissingService)
		require.Len(t, missing, 1, "reported once per product and zone")
		assert.Equal(t, "letter_standard/zone_de", missing[0].ID)
		assert.Equal(t, "registered_mail", missing[0].Target)
		assert.Contains(t, missing[0].Message, "is inactive")

		inactive := list.ByKind(findings.KindInactiveService)
		require.Len(t, inactive, 1)
		assert.Equal(t, "registered_mail", inactive[0].ID)
		assert.Equal(t, "data_links.json", inactive[0].File)
	})

	t.Run("product not listed", func(t *testing.T) {
		services := fixture.Replace(t, fixture.Services, `"products": ["letter_standard"]`, `"products": []`)
		errs := errorsOf(check(t, map[string]string{"services.json": services}))

		require.Len(t, errs, 1)
		assert.Equal(t, findings.KindMissingService, errs[0].Kind)
		assert.Contains(t, errs[0].Message, "does not list product letter_standard")
	})
}

func TestCheck_UnpricedService(t *testing.T) {
	prices := fixture.Replace(t, fixture.Prices, `"service_prices": [
      {"service_id": "registered_mail",
       "price": [{"price": 250, "effective_from": "2024-01-01", "effective_to": null}]}
    ]`, `"service_prices": []`)
	list := check(t, map[string]string{"prices.json": prices})

	assert.Empty(t, errorsOf(list))
	unpriced := list.ByKind(findings.KindUnpricedService)
	require.Len(t, unpriced, 1)
	assert.Equal(t, "registered_mail", unpriced[0].ID)
}

func TestCheck_LookupRules(t *testing.T) {
	tests := []struct {
		name  string
		old   string
		new   string
		id    string
		field string
		found string
	}{
		{
			name:  "array path",
			old:   `"array": "prices.product_prices"`,
			new:   `"array": "prices.parcel_prices"`,
			id:    "price_by_route",
			field: FieldLookupArray,
			found: "prices.parcel_prices",
		},
		{
			name:  "match key",
			old:   `"zone": "zones.id"`,
			new:   `"zone_id": "zones.id"`,
			id:    "price_by_route",
			field: FieldLookupMatch,
			found: "zone_id",
		},
		{
			name:  "participating file not named",
			old:   `"files": ["products.json", "zones.json", "weight_tiers.json"]`,
			new:   `"files": ["products.json", "zones.json"]`,
			id:    "weight_tiers.json",
			field: FieldLookupRules,
		},
		{
			name:  "price source",
			old:   `"price_source": "prices.json"`,
			new:   `"price_source": "zones.json"`,
			id:    "",
			field: FieldPriceSource,
			found: "zones.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := fixture.Replace(t, fixture.DataLinks, tt.old, tt.new)
			errs := errorsOf(check(t, map[string]string{"data_links.json": links}))

			require.Len(t, errs, 1)
			f := errs[0]
			assert.Equal(t, findings.KindLookupRule, f.Kind)
			assert.Equal(t, "data_links.json", f.File)
			assert.Equal(t, tt.id, f.ID)
			assert.Equal(t, tt.field, f.Field)
			assert.Equal(t, tt.found, f.Found)
		})
	}
}

func TestCheck_LookupRuleFileNotLoaded(t *testing.T) {
	list := check(t, map[string]string{"zones.json": `{"zones": "zone_de"}`})

	errs := errorsOf(list)
	require.Len(t, errs, 1)
	assert.Equal(t, findings.KindLookupRule, errs[0].Kind)
	assert.Equal(t, FieldLookupFile, errs[0].Field)
	assert.Equal(t, "zones.json", errs[0].Found)

	unavailable := list.ByKind(findings.KindFileUnavailable)
	require.Len(t, unavailable, 1)
	assert.Equal(t, "zones.json", unavailable[0].File)
}

func TestCheck_OverlappingPrices(t *testing.T) {
	prices := fixture.Replace(t, fixture.Prices,
		`{"price": 85, "effective_from": "2024-01-01", "effective_to": null}`,
		`{"price": 85, "effective_from": "2024-01-01", "effective_to": "2024-06-30"}, {"price": 90, "effective_from": "2024-06-30", "effective_to": null}`)
	errs := errorsOf(check(t, map[string]string{"prices.json": prices}))

	require.Len(t, errs, 1)
	assert.Equal(t, findings.KindOverlappingPrice, errs[0].Kind)
	assert.Equal(t, "letter_standard/zone_de/w_0_20", errs[0].ID)

	prices = fixture.Replace(t, fixture.Prices,
		`{"price": 85, "effective_from": "2024-01-01", "effective_to": null}`,
		`{"price": 85, "effective_from": "2024-01-01", "effective_to": "2024-06-29"}, {"price": 90, "effective_from": "2024-06-30", "effective_to": null}`)
	assert.Empty(t, errorsOf(check(t, map[string]string{"prices.json": prices})), "adjacent ranges do not overlap")
}

func TestCheck_ServiceLifecycle(t *testing.T) {
	prices := fixture.Replace(t, fixture.Prices,
		`{"price": 250, "effective_from": "2024-01-01", "effective_to": null}`,
		`{"price": 250, "effective_from": "2024-01-01", "effective_to": "2025-06-30"}`)

	errs := errorsOf(check(t, map[string]string{"prices.json": prices}))
	require.Len(t, errs, 1)
	assert.Equal(t, findings.KindServiceLifecycle, errs[0].Kind)
	assert.Equal(t, "registered_mail", errs[0].ID)
	assert.Equal(t, "2025-06-30", errs[0].Expected)

	services := fixture.Replace(t, fixture.Services, `"active": true`, `"active": true, "effective_to": "2025-06-30"`)
	assert.Empty(t, errorsOf(check(t, map[string]string{"prices.json": prices, "services.json": services})))

	services = fixture.Replace(t, fixture.Services, `"active": true`, `"active": true, "effective_to": "2025-12-31"`)
	errs = errorsOf(check(t, map[string]string{"prices.json": prices, "services.json": services}))
	require.Len(t, errs, 1)
	assert.Equal(t, "2025-12-31", errs[0].Found)
}

func TestCheck_Restrictions(t *testing.T) {
	const whole = `"effective_partial": true
    },
    {
      "id": "UKRAINE_2022",
      "country_code": "UA",
      "framework_id": "EU_SANCTIONS_2014",
      "effective_from": "2022-02-24",
      "effective_partial": false
    }`

	t.Run("partial overlaps whole country", func(t *testing.T) {
		restrictions := fixture.Replace(t, fixture.Restrictions, "\"effective_partial\": true\n    }", whole)
		errs := errorsOf(check(t, map[string]string{"restrictions.json": restrictions}))

		require.Len(t, errs, 1)
		f := errs[0]
		assert.Equal(t, findings.KindRestrictionConflict, f.Kind)
		assert.Equal(t, "CRIMEA_2014", f.ID)
		assert.Equal(t, "UKRAINE_2022", f.Target)
		assert.Equal(t, "effective_partial", f.Field)
	})

	t.Run("disjoint regions", func(t *testing.T) {
		disjoint := fixture.Replace(t, whole, `"country_code": "UA",`, `"country_code": "UA", "region_code": "14",`)
		restrictions := fixture.Replace(t, fixture.Restrictions, "\"effective_partial\": true\n    }", disjoint)
		assert.Empty(t, errorsOf(check(t, map[string]string{"restrictions.json": restrictions})))
	})

	t.Run("inverted range", func(t *testing.T) {
		restrictions := fixture.Replace(t, fixture.Restrictions, `"effective_to": null`, `"effective_to": "2014-01-01"`)
		errs := errorsOf(check(t, map[string]string{"restrictions.json": restrictions}))

		require.Len(t, errs, 1)
		assert.Equal(t, "effective_to", errs[0].Field)
		assert.Equal(t, "2014-01-01", errs[0].Found)
	})
}

func TestCheck_Analysis(t *testing.T) {
	t.Run("unused feature", func(t *testing.T) {
		features := fixture.Replace(t, fixture.Features,
			`"insurance": {"name": "Insurance"}`,
			`"insurance": {"name": "Insurance"},
    "signature": {"name": "Signature"}`)
		unused := check(t, map[string]string{"features.json": features}).ByKind(findings.KindUnusedFeature)
		require.Len(t, unused, 1)
		assert.Equal(t, "signature", unused[0].ID)
	})

	t.Run("weight tier not linked", func(t *testing.T) {
		links := fixture.Replace(t, fixture.DataLinks,
			`"weight_tiers": ["w_0_20", "w_21_50"]`,
			`"weight_tiers": ["w_21_50"]`)
		mismatch := check(t, map[string]string{"data_links.json": links}).ByKind(findings.KindWeightTierMismatch)
		require.Len(t, mismatch, 1)
		assert.Equal(t, "w_0_20", mismatch[0].Expected)
	})

	t.Run("unlinked product", func(t *testing.T) {
		links := fixture.Replace(t, fixture.DataLinks, `"letter_standard": {`, `"letter_express": {`)
		unlinked := check(t, map[string]string{"data_links.json": links}).ByKind(findings.KindUnlinkedProduct)
		require.Len(t, unlinked, 1)
		assert.Equal(t, "letter_standard", unlinked[0].ID)
	})
}

func TestCheck_WithoutManifest(t *testing.T) {
	prices := fixture.Replace(t, fixture.Prices, routeEU50, "")
	list := check(t, map[string]string{
		"data_links.json": `{"links": 1}`,
		"prices.json":     prices,
	})
	assert.Empty(t, list.ByKind(findings.KindMissingPrice), "declared routes need a manifest")
}
