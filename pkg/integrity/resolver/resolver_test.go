package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gruncellka/porto/internal/fixture"
	"gruncellka/porto/internal/fixture/fixturemodel"
	"gruncellka/porto/pkg/integrity/findings"
)

func TestResolve_Valid(t *testing.T) {
	res := Resolve(fixturemodel.Load(t, nil))
	assert.Zero(t, res.Findings().Count())
}

func TestResolve_DanglingZone(t *testing.T) {
	products := fixture.Replace(t, fixture.Products,
		`"supported_zones": ["zone_de", "zone_eu"]`,
		`"supported_zones": ["zone_de", "zone_eu", "zone_xx", "Zone_DE"]`)
	res := Resolve(fixturemodel.Load(t, map[string]string{"products.json": products}))

	dangling := res.Findings().ByKind(findings.KindDanglingReference)
	require.Len(t, dangling, 2)
	assert.Equal(t, "Zone_DE", dangling[0].Target, "ids match case-sensitively")
	assert.Equal(t, "zone_xx", dangling[1].Target)
	for _, f := range dangling {
		assert.Equal(t, "products.json", f.File)
		assert.Equal(t, "letter_standard", f.ID)
		assert.Equal(t, FieldSupportedZones, f.Field)
		assert.Equal(t, "zones.json", f.TargetFile)
	}

	assert.True(t, res.IsDangling("products.json", "letter_standard", FieldSupportedZones, "zone_xx"))
	assert.False(t, res.IsDangling("products.json", "letter_standard", FieldSupportedZones, "zone_de"))
}

func TestResolve_UnknownFramework(t *testing.T) {
	restrictions := `{
  "frameworks": {
    "EU_SANCTIONS_2014": {"name": "EU sanctions 2014"}
  },
  "restrictions": [
    {"id": "CRIMEA_2014", "country_code": "UA", "region_code": "43", "framework_id": "EU_SANCTIONS_2014",
     "effective_from": "2014-06-23", "effective_to": null, "effective_partial": true},
    {"id": "YEMEN_2015", "country_code": "YE", "framework_id": "UN_YEMEN_2015",
     "effective_from": "2015-04-14", "effective_to": null, "effective_partial": false}
  ]
}`
	res := Resolve(fixturemodel.Load(t, map[string]string{"restrictions.json": restrictions}))

	all := res.Findings().Findings()
	require.Len(t, all, 1)
	f := all[0]
	assert.Equal(t, findings.KindDanglingReference, f.Kind)
	assert.Equal(t, "restrictions.json", f.File)
	assert.Equal(t, "YEMEN_2015", f.ID)
	assert.Equal(t, FieldFrameworkID, f.Field)
	assert.Equal(t, "UN_YEMEN_2015", f.Target)
}

func TestResolve_PricesAndServices(t *testing.T) {
	prices := fixture.Replace(t, fixture.Prices,
		`{"service_id": "registered_mail",`,
		`{"service_id": "express_mail",`)
	services := fixture.Replace(t, fixture.Services,
		`"features": ["tracking", "insurance"]`,
		`"features": ["tracking", "gift_wrap"]`)
	res := Resolve(fixturemodel.Load(t, map[string]string{
		"prices.json":   prices,
		"services.json": services,
	}))

	dangling := res.Findings().ByKind(findings.KindDanglingReference)
	require.Len(t, dangling, 2)

	assert.Equal(t, "prices.json", dangling[0].File)
	assert.Equal(t, "express_mail", dangling[0].ID)
	assert.Equal(t, FieldServiceID, dangling[0].Field)

	assert.Equal(t, "services.json", dangling[1].File)
	assert.Equal(t, "registered_mail", dangling[1].ID)
	assert.Equal(t, FieldFeatures, dangling[1].Field)
	assert.Equal(t, "gift_wrap", dangling[1].Target)
}

func TestResolve_ManifestReferences(t *testing.T) {
	links := fixture.Replace(t, fixture.DataLinks,
		`"weight_tiers": ["w_0_20", "w_21_50"]`,
		`"weight_tiers": ["w_0_20", "w_21_50", "w_51_100"]`)
	links = fixture.Replace(t, links,
		`"available_services": ["registered_mail"]`,
		`"available_services": ["registered_mail", "express_mail"]`)
	links = fixture.Replace(t, links,
		`"mandatory_services": {"zone_de": ["registered_mail"]}`,
		`"mandatory_services": {"zone_de": ["registered_mail"], "zone_us": ["registered_mail"]}`)
	res := Resolve(fixturemodel.Load(t, map[string]string{"data_links.json": links}))

	dangling := res.Findings().ByKind(findings.KindDanglingReference)
	require.Len(t, dangling, 3)

	assert.Equal(t, "", dangling[0].ID)
	assert.Equal(t, FieldAvailableServices, dangling[0].Field)
	assert.Equal(t, "express_mail", dangling[0].Target)

	assert.Equal(t, "letter_standard", dangling[1].ID)
	assert.Equal(t, FieldLinkWeightTiers, dangling[1].Field)
	assert.Equal(t, "w_51_100", dangling[1].Target)

	assert.Equal(t, "zone_us", dangling[2].ID)
	assert.Equal(t, FieldMandatoryZones, dangling[2].Field)

	for _, f := range dangling {
		assert.Equal(t, "data_links.json", f.File)
	}
}

func TestResolve_UnavailableTarget(t *testing.T) {
	res := Resolve(fixturemodel.Load(t, map[string]string{"zones.json": `{"zones": 7}`}))

	assert.Empty(t, res.Findings().ByKind(findings.KindDanglingReference))
	notices := res.Findings().ByKind(findings.KindFileUnavailable)
	require.Len(t, notices, 1, "one notice per unavailable file")
	assert.Equal(t, "zones.json", notices[0].File)
}

func TestResolve_WithoutManifest(t *testing.T) {
	links := fixture.Replace(t, fixture.DataLinks, `"schema_version": "1.0"`, `"schema_version": "9.0"`)
	m := fixturemodel.Load(t, map[string]string{"data_links.json": links})
	require.False(t, m.HasManifest())

	res := Resolve(m)
	assert.Zero(t, res.Findings().Count())
}
