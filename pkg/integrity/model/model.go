// Package model holds the immutable input every integrity checker runs on:
// the loaded dataset, the parsed manifest and the run options.
package model

import (
	"errors"
	"time"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/manifest"
)

// ErrDatasetNotLoaded is returned when a model is built without a dataset.
// Checkers never run against an unloaded model.
var ErrDatasetNotLoaded = errors.New("integrity model requires a loaded dataset")

// DefaultExpectedUnits are the units the dataset is expected to use.
var DefaultExpectedUnits = dataset.UnitDecl{
	Weight:    "g",
	Dimension: "mm",
	Price:     "cents",
	Currency:  "EUR",
}

// Options tune a validation run.
type Options struct {
	// AsOf is the day prices must be effective on. Zero means today (UTC).
	AsOf dataset.Date

	// AllowSupplementalRoutes accepts priced routes the manifest does not
	// declare. The manifest's own setting is honoured as well.
	AllowSupplementalRoutes bool

	// ExpectedUnits are compared against declared units in analysis mode.
	// Empty fields fall back to DefaultExpectedUnits.
	ExpectedUnits dataset.UnitDecl
}

// Model is the read-only view shared by all checkers.
type Model struct {
	Dataset *dataset.Dataset

	// Manifest is nil when the manifest failed to load.
	Manifest *manifest.Manifest

	AsOf          dataset.Date
	ExpectedUnits dataset.UnitDecl

	allowSupplemental bool
}

// New builds a model. The dataset is required; a nil manifest means the
// manifest was unusable and manifest-driven checks are skipped.
func New(ds *dataset.Dataset, m *manifest.Manifest, opts Options) (*Model, error) {
	if ds == nil {
		return nil, ErrDatasetNotLoaded
	}

	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = dataset.DateOf(time.Now())
	}

	expected := opts.ExpectedUnits
	if expected.Weight == "" {
		expected.Weight = DefaultExpectedUnits.Weight
	}
	if expected.Dimension == "" {
		expected.Dimension = DefaultExpectedUnits.Dimension
	}
	if expected.Price == "" {
		expected.Price = DefaultExpectedUnits.Price
	}
	if expected.Currency == "" {
		expected.Currency = DefaultExpectedUnits.Currency
	}

	return &Model{
		Dataset:           ds,
		Manifest:          m,
		AsOf:              asOf,
		ExpectedUnits:     expected,
		allowSupplemental: opts.AllowSupplementalRoutes,
	}, nil
}

// HasManifest reports whether a usable manifest was loaded.
func (m *Model) HasManifest() bool {
	return m.Manifest != nil
}

// AllowSupplementalRoutes reports whether undeclared priced routes are
// accepted, either by option or by the manifest's global settings.
func (m *Model) AllowSupplementalRoutes() bool {
	if m.allowSupplemental {
		return true
	}
	return m.Manifest != nil && m.Manifest.GlobalSettings().AllowSupplementalRoutes
}

// File returns the file name of kind k.
func (m *Model) File(k dataset.Kind) string {
	return m.Dataset.File(k)
}

// ManifestFile returns the manifest's file name.
func (m *Model) ManifestFile() string {
	return m.Dataset.File(dataset.KindManifest)
}
