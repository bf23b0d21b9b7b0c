package loader

import (
	"context"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gruncellka/porto/internal/fixture"
	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/telemetry/logging"
)

type loadRecord struct {
	file string
	err  error
}

type recordingObserver struct {
	mu    sync.Mutex
	loads []loadRecord
}

func (o *recordingObserver) ObserveLoad(file string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loads = append(o.loads, loadRecord{file: file, err: err})
}

func load(t *testing.T, overrides map[string]string, opts ...Option) *Result {
	t.Helper()
	dir := fixture.WriteDir(t, overrides)
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	res, err := New(dir, nil, opts...).Load(context.Background())
	require.NoError(t, err)
	return res
}

func TestLoad_Valid(t *testing.T) {
	res := load(t, nil)
	require.Empty(t, res.Failures)

	ds := res.Dataset
	for _, k := range dataset.EntityKinds() {
		assert.True(t, ds.Available(k), k)
	}

	assert.Equal(t, []string{"letter_standard"}, ds.Products.IDs())
	assert.Equal(t, []string{"zone_de", "zone_eu"}, ds.Zones.IDs())
	assert.Equal(t, []string{"w_0_20", "w_21_50"}, ds.WeightTiers.IDs(), "keyed objects keep file order")
	assert.Equal(t, []string{"tracking", "insurance"}, ds.Features.IDs())
	assert.Equal(t, []string{"EU_SANCTIONS_2014"}, ds.Frameworks.IDs())
	assert.Equal(t, []string{"CRIMEA_2014"}, ds.Restrictions.IDs())
	assert.Len(t, ds.ProductPrices, 4)
	assert.Len(t, ds.ServicePrices, 1)

	tier, ok := ds.WeightTiers.Get("w_21_50")
	require.True(t, ok)
	assert.Equal(t, 21.0, tier.Min)
	assert.Equal(t, 50.0, tier.Max)

	assert.Equal(t, "g", ds.Units[dataset.KindProducts].Weight)
	assert.Equal(t, "EUR", ds.Units[dataset.KindPrices].Currency)
	assert.Equal(t, []string{"price", "product_id", "weight_tier", "zone"}, ds.PriceKeys)
	assert.True(t, ds.Paths[dataset.KindPrices]["prices.product_prices"])

	r, _ := ds.Restrictions.Get("CRIMEA_2014")
	assert.Equal(t, "2014-06-23", r.EffectiveFrom.String())
	assert.True(t, r.EffectiveTo.IsZero())
	assert.True(t, r.EffectivePartial)
}

func TestLoad_MalformedFileIsIsolated(t *testing.T) {
	res := load(t, map[string]string{"zones.json": `{"zones": [`})

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "zones.json", res.Failures[0].File)
	assert.False(t, res.Dataset.Available(dataset.KindZones))
	assert.Nil(t, res.Dataset.Zones)

	assert.True(t, res.Dataset.Available(dataset.KindProducts))
	assert.True(t, res.Dataset.Available(dataset.KindPrices))
}

func TestLoad_MissingFile(t *testing.T) {
	res := load(t, map[string]string{"features.json": fixture.Missing})

	require.Len(t, res.Failures, 1)
	failure := res.Failures[0]
	assert.Equal(t, "features.json", failure.File)
	assert.Equal(t, int64(-1), failure.Offset)
	assert.Empty(t, failure.Position())
	assert.ErrorIs(t, failure, fs.ErrNotExist)
	assert.False(t, res.Dataset.Available(dataset.KindFeatures))
}

func TestLoad_SectionErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		section string
	}{
		{
			name:    "section of wrong type",
			file:    "products.json",
			content: `{"products": 42}`,
			section: "products",
		},
		{
			name:    "duplicate ids",
			file:    "zones.json",
			content: `{"zones": [{"id": "zone_de"}, {"id": "zone_de"}]}`,
			section: "zones",
		},
		{
			name:    "entity without id",
			file:    "services.json",
			content: `{"services": [{"features": []}]}`,
			section: "services",
		},
		{
			name:    "bad date",
			file:    "restrictions.json",
			content: `{"frameworks": {}, "restrictions": [{"id": "R1", "effective_from": "23.06.2014"}]}`,
			section: "restrictions",
		},
		{
			name:    "service price without service",
			file:    "prices.json",
			content: `{"prices": {"service_prices": [{"price": []}]}}`,
			section: "prices.service_prices",
		},
		{
			name:    "unit of wrong type",
			file:    "dimensions.json",
			content: `{"unit": "mm", "dimensions": {}}`,
			section: "unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := load(t, map[string]string{tt.file: tt.content})

			require.Len(t, res.Failures, 1)
			assert.Equal(t, tt.file, res.Failures[0].File)
			assert.Equal(t, tt.section, res.Failures[0].Section)
			kind, _ := res.Dataset.Registry.KindOf(tt.file)
			assert.False(t, res.Dataset.Available(kind))
		})
	}
}

func TestLoad_NotAnObject(t *testing.T) {
	res := load(t, map[string]string{"features.json": `null`})
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0].Error(), "not a JSON object")
}

func TestLoad_MissingSectionIsEmpty(t *testing.T) {
	res := load(t, map[string]string{"features.json": `{}`})
	require.Empty(t, res.Failures)
	assert.True(t, res.Dataset.Available(dataset.KindFeatures))
	assert.Zero(t, res.Dataset.Features.Len())
}

func TestLoad_Observer(t *testing.T) {
	obs := &recordingObserver{}
	load(t, map[string]string{"zones.json": `[`}, WithObserver(obs))

	require.Len(t, obs.loads, 8)
	failed := 0
	for _, l := range obs.loads {
		if l.err != nil {
			failed++
			assert.Equal(t, "zones.json", l.file)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestLoad_CustomRegistry(t *testing.T) {
	dir := fixture.WriteDir(t, map[string]string{
		"prices.json":  fixture.Missing,
		"tariffs.json": fixture.Prices,
	})
	reg, err := dataset.NewRegistry(map[string]string{"prices": "tariffs.json"})
	require.NoError(t, err)

	res, err := New(dir, reg, WithLogger(logging.Discard())).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.Len(t, res.Dataset.ProductPrices, 4)
	assert.Equal(t, "tariffs.json", res.Dataset.File(dataset.KindPrices))
}

func TestLineColumn(t *testing.T) {
	data := []byte("{\n  \"a\": x\n}")
	line, col := lineColumn(data, 9)
	assert.Equal(t, 2, line)
	assert.Equal(t, 8, col)

	line, col = lineColumn(data, 0)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)
}

func TestMalformedDocumentError(t *testing.T) {
	e := &MalformedDocumentError{File: "zones.json", Section: "zones", Offset: 12, Line: 2, Column: 5, Err: assert.AnError}
	assert.Equal(t, "malformed document zones.json:2:5 (zones): "+assert.AnError.Error(), e.Error())
	assert.Equal(t, "2:5", e.Position())
	assert.ErrorIs(t, e, assert.AnError)

	timeout := &LoadTimeoutError{Timeout: time.Second, Pending: []string{"prices.json"}}
	assert.Contains(t, timeout.Error(), "1s")
	assert.Contains(t, timeout.Error(), "prices.json")
}
