package dataset

import (
	"context"
	"fmt"
	"os"
	"sort"
)

// Entity is implemented by every record that is addressed by id.
type Entity interface {
	EntityID() string
}

// Collection is an ordered, id-indexed set of entities.
type Collection[T Entity] struct {
	items []T
	index map[string]int
}

// NewCollection builds a collection in the given order. It fails on the
// first duplicate id.
func NewCollection[T Entity](items []T) (*Collection[T], error) {
	c := &Collection[T]{
		items: make([]T, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, item := range items {
		id := item.EntityID()
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("duplicate id %q", id)
		}
		c.index[id] = len(c.items)
		c.items = append(c.items, item)
	}
	return c, nil
}

// Get returns the entity with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	i, ok := c.index[id]
	if !ok {
		return zero, false
	}
	return c.items[i], true
}

// Has reports whether id exists.
func (c *Collection[T]) Has(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[id]
	return ok
}

// All returns the entities in file order. The slice must not be modified.
func (c *Collection[T]) All() []T {
	if c == nil {
		return nil
	}
	return c.items
}

// Len returns the number of entities.
func (c *Collection[T]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// IDs returns the entity ids in file order.
func (c *Collection[T]) IDs() []string {
	ids := make([]string, 0, c.Len())
	for _, item := range c.All() {
		ids = append(ids, item.EntityID())
	}
	return ids
}

// Dataset is the immutable result of loading every entity file.
// A kind whose file failed to load is unavailable and its collection is nil.
type Dataset struct {
	Registry *Registry

	Products     *Collection[Product]
	Zones        *Collection[Zone]
	WeightTiers  *Collection[WeightTier]
	Dimensions   *Collection[Dimension]
	Features     *Collection[Feature]
	Frameworks   *Collection[Framework]
	Restrictions *Collection[Restriction]
	Services     *Collection[Service]

	ProductPrices []ProductPrice
	ServicePrices []ServicePrice

	// Units holds the file-level unit declaration of each loaded file.
	Units map[Kind]UnitDecl

	// Paths holds, per loaded file, the dotted object-key paths of the
	// document up to two levels deep ("prices", "prices.product_prices").
	Paths map[Kind]map[string]bool

	// PriceKeys are the JSON keys of the first product price entry.
	PriceKeys []string

	available map[Kind]bool
}

// NewDataset returns an empty dataset in which no kind is available yet.
func NewDataset(reg *Registry) *Dataset {
	return &Dataset{
		Registry:  reg,
		Units:     make(map[Kind]UnitDecl),
		Paths:     make(map[Kind]map[string]bool),
		available: make(map[Kind]bool),
	}
}

// MarkAvailable records that kind k was loaded completely.
func (d *Dataset) MarkAvailable(k Kind) {
	d.available[k] = true
}

// Available reports whether every file of the given kinds loaded.
func (d *Dataset) Available(kinds ...Kind) bool {
	for _, k := range kinds {
		if !d.available[k] {
			return false
		}
	}
	return true
}

// Unavailable returns the subset of kinds that did not load, sorted.
func (d *Dataset) Unavailable(kinds ...Kind) []Kind {
	var out []Kind
	for _, k := range kinds {
		if !d.available[k] {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// File returns the file name of kind k.
func (d *Dataset) File(k Kind) string {
	return d.Registry.File(k)
}

// ProductWeightUnit returns the weight unit a product is declared in and
// whether the product overrides the file-level unit.
func (d *Dataset) ProductWeightUnit(p Product) (string, bool) {
	if p.Unit != nil && p.Unit.Weight != "" {
		return p.Unit.Weight, true
	}
	return d.Units[KindProducts].Weight, false
}

// ProductDimensionUnit returns the dimension unit a product is declared in
// and whether the product overrides the file-level unit.
func (d *Dataset) ProductDimensionUnit(p Product) (string, bool) {
	if p.Unit != nil && p.Unit.Dimension != "" {
		return p.Unit.Dimension, true
	}
	return d.Units[KindProducts].Dimension, false
}

// WeightTierUnit returns a tier's mass unit and whether it overrides the
// file-level unit.
func (d *Dataset) WeightTierUnit(w WeightTier) (string, bool) {
	if w.Unit != "" {
		return w.Unit, true
	}
	return d.Units[KindWeightTiers].Weight, false
}

// DimensionUnit returns a dimension's length unit and whether it overrides
// the file-level unit.
func (d *Dataset) DimensionUnit(dim Dimension) (string, bool) {
	if dim.Unit != "" {
		return dim.Unit, true
	}
	return d.Units[KindDimensions].Dimension, false
}

// PriceCurrency returns the currency of a price item, falling back to the
// prices file currency.
func (d *Dataset) PriceCurrency(item PriceItem) string {
	if item.Currency != "" {
		return item.Currency
	}
	return d.Units[KindPrices].Currency
}

// ZoneCurrency returns the currency prices for a zone are expected in,
// falling back to the prices file currency.
func (d *Dataset) ZoneCurrency(z Zone) string {
	if z.Currency != "" {
		return z.Currency
	}
	return d.Units[KindPrices].Currency
}

// ReadFile reads a whole file, giving up when ctx is done. The read itself
// cannot be interrupted; on cancellation its result is discarded.
func ReadFile(ctx context.Context, path string) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan result, 1)
	go func() {
		data, err := os.ReadFile(path)
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.data, r.err
	}
}
