// Package resolver resolves every id reference of the dataset and the
// manifest against the collections that own the referenced ids.
//
// Matching is exact and case-sensitive. Every unresolved reference becomes
// one DanglingReferenceError; resolution never stops at the first problem.
// References into a file that did not load are skipped and noted once per
// file.
package resolver

import (
	"fmt"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/model"
)

// Reference field names used in findings.
const (
	FieldDimensions        = "dimensions"
	FieldWeightTier        = "weight_tier"
	FieldSupportedZones    = "supported_zones"
	FieldProductID         = "product_id"
	FieldZone              = "zone"
	FieldServiceID         = "service_id"
	FieldFeatures          = "features"
	FieldProducts          = "products"
	FieldFrameworkID       = "framework_id"
	FieldLinks             = "links"
	FieldLinkZones         = "links.zones"
	FieldLinkWeightTiers   = "links.weight_tiers"
	FieldAvailableServices = "global_settings.available_services"
	FieldMandatoryZones    = "global_settings.mandatory_services"
	FieldMandatoryServices = "global_settings.mandatory_services.services"
)

// Resolution is the outcome of resolving a model.
type Resolution struct {
	findings *findings.List
	dangling map[reference]bool
}

type reference struct {
	file   string
	id     string
	field  string
	target string
}

// Findings returns the dangling references and unavailability notices.
func (r *Resolution) Findings() *findings.List {
	return r.findings
}

// IsDangling reports whether the reference from (file, id, field) to target
// failed to resolve.
func (r *Resolution) IsDangling(file, id, field, target string) bool {
	return r.dangling[reference{file: file, id: id, field: field, target: target}]
}

type resolver struct {
	m        *model.Model
	ds       *dataset.Dataset
	res      *Resolution
	reported map[dataset.Kind]bool
}

// Resolve checks every reference in m.
func Resolve(m *model.Model) *Resolution {
	r := &resolver{
		m:  m,
		ds: m.Dataset,
		res: &Resolution{
			findings: findings.NewList(),
			dangling: make(map[reference]bool),
		},
		reported: make(map[dataset.Kind]bool),
	}

	r.products()
	r.productPrices()
	r.servicePrices()
	r.services()
	r.restrictions()
	if m.HasManifest() {
		r.manifestLinks()
		r.manifestServices()
	}

	return r.res
}

func (r *resolver) products() {
	file := r.m.File(dataset.KindProducts)
	for _, p := range r.ds.Products.All() {
		for _, dim := range p.Dimensions {
			r.check(file, p.ID, FieldDimensions, dataset.KindDimensions, dim)
		}
		if p.WeightTier != "" {
			r.check(file, p.ID, FieldWeightTier, dataset.KindWeightTiers, p.WeightTier)
		}
		for _, z := range p.SupportedZones {
			r.check(file, p.ID, FieldSupportedZones, dataset.KindZones, z)
		}
	}
}

func (r *resolver) productPrices() {
	file := r.m.File(dataset.KindPrices)
	for _, pp := range r.ds.ProductPrices {
		id := pp.Key().String()
		r.check(file, id, FieldProductID, dataset.KindProducts, pp.ProductID)
		r.check(file, id, FieldZone, dataset.KindZones, pp.Zone)
		r.check(file, id, FieldWeightTier, dataset.KindWeightTiers, pp.WeightTier)
	}
}

func (r *resolver) servicePrices() {
	file := r.m.File(dataset.KindPrices)
	for _, sp := range r.ds.ServicePrices {
		r.check(file, sp.ID(), FieldServiceID, dataset.KindServices, sp.ServiceID)
		if sp.Zone != "" {
			r.check(file, sp.ID(), FieldZone, dataset.KindZones, sp.Zone)
		}
	}
}

func (r *resolver) services() {
	file := r.m.File(dataset.KindServices)
	for _, s := range r.ds.Services.All() {
		for _, f := range s.Features {
			r.check(file, s.ID, FieldFeatures, dataset.KindFeatures, f)
		}
		for _, p := range s.Products {
			r.check(file, s.ID, FieldProducts, dataset.KindProducts, p)
		}
	}
}

func (r *resolver) restrictions() {
	file := r.m.File(dataset.KindRestrictions)
	for _, rs := range r.ds.Restrictions.All() {
		r.checkFramework(file, rs.ID, rs.FrameworkID)
	}
}

func (r *resolver) manifestLinks() {
	file := r.m.ManifestFile()
	for _, l := range r.m.Manifest.Links() {
		r.check(file, l.ProductID, FieldLinks, dataset.KindProducts, l.ProductID)
		for _, z := range l.Zones {
			r.check(file, l.ProductID, FieldLinkZones, dataset.KindZones, z)
		}
		for _, w := range l.WeightTiers {
			r.check(file, l.ProductID, FieldLinkWeightTiers, dataset.KindWeightTiers, w)
		}
	}
}

func (r *resolver) manifestServices() {
	file := r.m.ManifestFile()
	settings := r.m.Manifest.GlobalSettings()

	for _, s := range settings.AvailableServices {
		r.check(file, "", FieldAvailableServices, dataset.KindServices, s)
	}
	for _, zone := range settings.MandatoryZones() {
		r.check(file, zone, FieldMandatoryZones, dataset.KindZones, zone)
		for _, s := range settings.MandatoryServices[zone] {
			r.check(file, zone, FieldMandatoryServices, dataset.KindServices, s)
		}
	}
}

// check resolves one reference against the collection owned by target.
func (r *resolver) check(file, id, field string, target dataset.Kind, targetID string) {
	if !r.ds.Available(target) {
		r.unavailable(target)
		return
	}
	if r.exists(target, targetID) {
		return
	}
	r.dangle(file, id, field, r.m.File(target), targetID)
}

// checkFramework resolves a framework id. Frameworks live in the
// restrictions file, which is always available when restrictions are.
func (r *resolver) checkFramework(file, id, frameworkID string) {
	if r.ds.Frameworks.Has(frameworkID) {
		return
	}
	r.dangle(file, id, FieldFrameworkID, r.m.File(dataset.KindRestrictions), frameworkID)
}

func (r *resolver) dangle(file, id, field, targetFile, targetID string) {
	ref := reference{file: file, id: id, field: field, target: targetID}
	if r.res.dangling[ref] {
		return
	}
	r.res.dangling[ref] = true
	r.res.findings.Add(findings.DanglingReference(file, id, field, targetFile, targetID))
}

func (r *resolver) unavailable(kind dataset.Kind) {
	if r.reported[kind] {
		return
	}
	r.reported[kind] = true
	r.res.findings.Add(findings.FileUnavailable(r.m.File(kind), fmt.Sprintf("references into %s were not resolved", kind)))
}

func (r *resolver) exists(kind dataset.Kind, id string) bool {
	switch kind {
	case dataset.KindProducts:
		return r.ds.Products.Has(id)
	case dataset.KindZones:
		return r.ds.Zones.Has(id)
	case dataset.KindWeightTiers:
		return r.ds.WeightTiers.Has(id)
	case dataset.KindDimensions:
		return r.ds.Dimensions.Has(id)
	case dataset.KindFeatures:
		return r.ds.Features.Has(id)
	case dataset.KindServices:
		return r.ds.Services.Has(id)
	}
	return false
}
