package dataset

import "fmt"

// UnitDecl is the "unit" object carried by data files and, as an override,
// by individual entities.
type UnitDecl struct {
	Weight    string `json:"weight,omitempty" yaml:"weight"`
	Dimension string `json:"dimension,omitempty" yaml:"dimension"`
	Price     string `json:"price,omitempty" yaml:"price"`
	Currency  string `json:"currency,omitempty" yaml:"currency"`
}

// Product is a shippable item. Owned by products.json.
type Product struct {
	ID             string    `json:"id"`
	Dimensions     []string  `json:"dimensions"`
	WeightTier     string    `json:"weight_tier"`
	SupportedZones []string  `json:"supported_zones"`
	Unit           *UnitDecl `json:"unit,omitempty"`
}

func (p Product) EntityID() string { return p.ID }

// Zone is a set of destination countries priced alike. Owned by zones.json.
type Zone struct {
	ID        string   `json:"id"`
	Countries []string `json:"countries"`
	Regions   []string `json:"regions,omitempty"`
	// Currency is the currency prices for this zone are expected in.
	Currency string `json:"currency,omitempty"`
}

func (z Zone) EntityID() string { return z.ID }

// WeightTier is a mass bracket. Owned by weight_tiers.json, keyed by id.
type WeightTier struct {
	ID   string  `json:"-"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit,omitempty"`
}

func (w WeightTier) EntityID() string { return w.ID }

// Dimension is a size envelope. Owned by dimensions.json, keyed by id.
type Dimension struct {
	ID     string  `json:"-"`
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit,omitempty"`
}

func (d Dimension) EntityID() string { return d.ID }

// Feature is a service capability. Owned by features.json, keyed by id.
type Feature struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (f Feature) EntityID() string { return f.ID }

// Framework is a legal framework restrictions are issued under. Owned by
// restrictions.json, keyed by id.
type Framework struct {
	ID   string `json:"-"`
	Name string `json:"name"`
}

func (f Framework) EntityID() string { return f.ID }

// Restriction limits shipping to a country or a region of it.
type Restriction struct {
	ID               string `json:"id"`
	CountryCode      string `json:"country_code"`
	RegionCode       string `json:"region_code,omitempty"`
	FrameworkID      string `json:"framework_id"`
	EffectiveFrom    Date   `json:"effective_from"`
	EffectiveTo      Date   `json:"effective_to"`
	EffectivePartial bool   `json:"effective_partial"`
}

func (r Restriction) EntityID() string { return r.ID }

// Effective returns the restriction's validity window.
func (r Restriction) Effective() Range {
	return Range{From: r.EffectiveFrom, To: r.EffectiveTo}
}

// Service is an optional add-on sold with products.
type Service struct {
	ID          string   `json:"id"`
	Features    []string `json:"features"`
	Products    []string `json:"products"`
	Coverage    int64    `json:"coverage,omitempty"`
	Active      *bool    `json:"active,omitempty"`
	EffectiveTo Date     `json:"effective_to"`
}

func (s Service) EntityID() string { return s.ID }

// IsActive reports the service's active flag. A service without the flag is
// active.
func (s Service) IsActive() bool {
	return s.Active == nil || *s.Active
}

// AppliesTo reports whether the service lists productID.
func (s Service) AppliesTo(productID string) bool {
	for _, p := range s.Products {
		if p == productID {
			return true
		}
	}
	return false
}

// Triple is a (product, zone, weight tier) route.
type Triple struct {
	ProductID    string `json:"product_id"`
	ZoneID       string `json:"zone_id"`
	WeightTierID string `json:"weight_tier_id"`
}

// String renders the triple as "product/zone/tier".
func (t Triple) String() string {
	return fmt.Sprintf("%s/%s/%s", t.ProductID, t.ZoneID, t.WeightTierID)
}

// Less orders triples by product, zone, then weight tier.
func (t Triple) Less(o Triple) bool {
	if t.ProductID != o.ProductID {
		return t.ProductID < o.ProductID
	}
	if t.ZoneID != o.ZoneID {
		return t.ZoneID < o.ZoneID
	}
	return t.WeightTierID < o.WeightTierID
}

// PriceItem is one dated amount inside a price list.
type PriceItem struct {
	// Amount is in minor currency units.
	Amount        int64  `json:"price"`
	Currency      string `json:"currency,omitempty"`
	EffectiveFrom Date   `json:"effective_from"`
	EffectiveTo   Date   `json:"effective_to"`
}

// Effective returns the item's validity window.
func (p PriceItem) Effective() Range {
	return Range{From: p.EffectiveFrom, To: p.EffectiveTo}
}

// ProductPrice is the price list of one route.
type ProductPrice struct {
	ProductID  string      `json:"product_id"`
	Zone       string      `json:"zone"`
	WeightTier string      `json:"weight_tier"`
	Prices     []PriceItem `json:"price"`
}

// Key returns the route this price list belongs to.
func (p ProductPrice) Key() Triple {
	return Triple{ProductID: p.ProductID, ZoneID: p.Zone, WeightTierID: p.WeightTier}
}

// ActiveOn reports whether at least one item is effective on day.
func (p ProductPrice) ActiveOn(day Date) bool {
	for _, item := range p.Prices {
		if item.Effective().Contains(day) {
			return true
		}
	}
	return false
}

// ServicePrice is the price list of a service, optionally per zone.
type ServicePrice struct {
	ServiceID string      `json:"service_id"`
	Zone      string      `json:"zone,omitempty"`
	Prices    []PriceItem `json:"price"`
}

// ID identifies the service price in findings.
func (s ServicePrice) ID() string {
	if s.Zone == "" {
		return s.ServiceID
	}
	return s.ServiceID + "/" + s.Zone
}
