// Package fixturemodel loads fixture directories into integrity models for
// checker tests.
package fixturemodel

import (
	"context"
	"errors"
	"testing"

	"gruncellka/porto/internal/fixture"
	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/dataset/loader"
	"gruncellka/porto/pkg/integrity/model"
	"gruncellka/porto/pkg/manifest"
	"gruncellka/porto/pkg/telemetry/logging"
)

// Load writes the fixture with overrides applied and builds a model from it
// as of fixture.AsOf. Files that fail to load are left unavailable, as in
// a real run; the manifest is nil when it is unusable.
func Load(tb testing.TB, overrides map[string]string) *model.Model {
	tb.Helper()
	return LoadWith(tb, overrides, model.Options{AsOf: fixture.AsOf})
}

// LoadWith is Load with explicit options.
func LoadWith(tb testing.TB, overrides map[string]string, opts model.Options) *model.Model {
	tb.Helper()

	dir := fixture.WriteDir(tb, overrides)
	reg := dataset.DefaultRegistry()
	ctx := context.Background()

	res, err := loader.New(dir, reg, loader.WithLogger(logging.Discard())).Load(ctx)
	if err != nil {
		tb.Fatalf("fixturemodel: load: %v", err)
	}

	m, err := manifest.Load(ctx, dir, reg)
	if err != nil {
		var shapeErr *manifest.ManifestShapeError
		if !errors.As(err, &shapeErr) {
			tb.Fatalf("fixturemodel: manifest: %v", err)
		}
		m = nil
	}

	if opts.AsOf.IsZero() {
		opts.AsOf = fixture.AsOf
	}
	mdl, err := model.New(res.Dataset, m, opts)
	if err != nil {
		tb.Fatalf("fixturemodel: model: %v", err)
	}
	return mdl
}
