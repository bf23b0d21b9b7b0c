package loader

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"gruncellka/porto/pkg/dataset"
)

// document is the decoded contribution of one file. Either failure is set
// or the entity fields are.
type document struct {
	kind    dataset.Kind
	failure *MalformedDocumentError

	unit      dataset.UnitDecl
	paths     map[string]bool
	priceKeys []string

	products      []dataset.Product
	zones         []dataset.Zone
	weightTiers   []dataset.WeightTier
	dimensions    []dataset.Dimension
	features      []dataset.Feature
	frameworks    []dataset.Framework
	restrictions  []dataset.Restriction
	services      []dataset.Service
	productPrices []dataset.ProductPrice
	servicePrices []dataset.ServicePrice
}

// sectionError is a decode failure inside one top-level section.
type sectionError struct {
	section string
	raw     json.RawMessage
	err     error
}

func (e *sectionError) Error() string { return e.err.Error() }
func (e *sectionError) Unwrap() error { return e.err }

func fail(section string, raw json.RawMessage, err error) error {
	return &sectionError{section: section, raw: raw, err: err}
}

type decodeFunc func(doc *document, top map[string]json.RawMessage) error

var decoders = map[dataset.Kind]decodeFunc{
	dataset.KindProducts:     decodeProducts,
	dataset.KindZones:        decodeZones,
	dataset.KindWeightTiers:  decodeWeightTiers,
	dataset.KindDimensions:   decodeDimensions,
	dataset.KindFeatures:     decodeFeatures,
	dataset.KindRestrictions: decodeRestrictions,
	dataset.KindServices:     decodeServices,
	dataset.KindPrices:       decodePrices,
}

// decodeDocument turns the bytes of one file into a document. It never
// returns a partially decoded document.
func decodeDocument(kind dataset.Kind, file string, data []byte) *document {
	doc := &document{kind: kind}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		doc.failure = malformed(file, "", data, nil, err)
		return doc
	}
	if top == nil {
		doc.failure = malformed(file, "", data, nil, errors.New("document is not a JSON object"))
		return doc
	}

	doc.paths = objectPaths(top)

	if raw, ok := top["unit"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &doc.unit); err != nil {
			doc.failure = malformed(file, "unit", data, raw, err)
			return doc
		}
	}

	decode, ok := decoders[kind]
	if !ok {
		doc.failure = malformed(file, "", data, nil, fmt.Errorf("no decoder for kind %q", kind))
		return doc
	}
	if err := decode(doc, top); err != nil {
		var se *sectionError
		if errors.As(err, &se) {
			doc.failure = malformed(file, se.section, data, se.raw, se.err)
		} else {
			doc.failure = malformed(file, "", data, nil, err)
		}
	}
	return doc
}

// apply copies a successfully decoded document into ds. Collections were
// already checked for duplicate ids during decoding.
func (doc *document) apply(ds *dataset.Dataset) {
	ds.Units[doc.kind] = doc.unit
	ds.Paths[doc.kind] = doc.paths

	switch doc.kind {
	case dataset.KindProducts:
		ds.Products, _ = dataset.NewCollection(doc.products)
	case dataset.KindZones:
		ds.Zones, _ = dataset.NewCollection(doc.zones)
	case dataset.KindWeightTiers:
		ds.WeightTiers, _ = dataset.NewCollection(doc.weightTiers)
	case dataset.KindDimensions:
		ds.Dimensions, _ = dataset.NewCollection(doc.dimensions)
	case dataset.KindFeatures:
		ds.Features, _ = dataset.NewCollection(doc.features)
	case dataset.KindRestrictions:
		ds.Frameworks, _ = dataset.NewCollection(doc.frameworks)
		ds.Restrictions, _ = dataset.NewCollection(doc.restrictions)
	case dataset.KindServices:
		ds.Services, _ = dataset.NewCollection(doc.services)
	case dataset.KindPrices:
		ds.ProductPrices = doc.productPrices
		ds.ServicePrices = doc.servicePrices
		ds.PriceKeys = doc.priceKeys
	}

	ds.MarkAvailable(doc.kind)
}

func decodeProducts(doc *document, top map[string]json.RawMessage) error {
	items, err := decodeEntities(top, "products", func(p *dataset.Product, id string) { p.ID = id })
	doc.products = items
	return err
}

func decodeZones(doc *document, top map[string]json.RawMessage) error {
	items, err := decodeEntities(top, "zones", func(z *dataset.Zone, id string) { z.ID = id })
	doc.zones = items
	return err
}

func decodeWeightTiers(doc *document, top map[string]json.RawMessage) error {
	items, err := decodeEntities(top, "weight_tiers", func(w *dataset.WeightTier, id string) { w.ID = id })
	doc.weightTiers = items
	return err
}

func decodeDimensions(doc *document, top map[string]json.RawMessage) error {
	items, err := decodeEntities(top, "dimensions", func(d *dataset.Dimension, id string) { d.ID = id })
	doc.dimensions = items
	return err
}

func decodeFeatures(doc *document, top map[string]json.RawMessage) error {
	items, err := decodeEntities(top, "features", func(f *dataset.Feature, id string) { f.ID = id })
	doc.features = items
	return err
}

func decodeRestrictions(doc *document, top map[string]json.RawMessage) error {
	frameworks, err := decodeEntities(top, "frameworks", func(f *dataset.Framework, id string) { f.ID = id })
	if err != nil {
		return err
	}
	doc.frameworks = frameworks

	restrictions, err := decodeEntities(top, "restrictions", func(r *dataset.Restriction, id string) { r.ID = id })
	doc.restrictions = restrictions
	return err
}

func decodeServices(doc *document, top map[string]json.RawMessage) error {
	items, err := decodeEntities(top, "services", func(s *dataset.Service, id string) { s.ID = id })
	doc.services = items
	return err
}

func decodePrices(doc *document, top map[string]json.RawMessage) error {
	raw, ok := top["prices"]
	if !ok || isNull(raw) {
		return nil
	}

	var section struct {
		ProductPrices []json.RawMessage `json:"product_prices"`
		ServicePrices []json.RawMessage `json:"service_prices"`
	}
	if err := json.Unmarshal(raw, &section); err != nil {
		return fail("prices", raw, err)
	}

	for i, item := range section.ProductPrices {
		if i == 0 {
			var keys map[string]json.RawMessage
			if err := json.Unmarshal(item, &keys); err != nil {
				return fail("prices.product_prices", item, err)
			}
			for k := range keys {
				doc.priceKeys = append(doc.priceKeys, k)
			}
			sort.Strings(doc.priceKeys)
		}

		var pp dataset.ProductPrice
		if err := json.Unmarshal(item, &pp); err != nil {
			return fail("prices.product_prices", item, err)
		}
		doc.productPrices = append(doc.productPrices, pp)
	}

	for _, item := range section.ServicePrices {
		var sp dataset.ServicePrice
		if err := json.Unmarshal(item, &sp); err != nil {
			return fail("prices.service_prices", item, err)
		}
		if sp.ServiceID == "" {
			return fail("prices.service_prices", item, errors.New("service price without service_id"))
		}
		doc.servicePrices = append(doc.servicePrices, sp)
	}

	return nil
}

// decodeEntities decodes top[section] into entities. The section may be a
// list of objects carrying "id", or an object keyed by id; object key order
// is preserved. A missing section yields no entities. Duplicate or empty ids
// make the section malformed.
func decodeEntities[T dataset.Entity](top map[string]json.RawMessage, section string, setID func(*T, string)) ([]T, error) {
	raw, ok := top[section]
	if !ok || isNull(raw) {
		return nil, nil
	}

	var items []T
	switch firstByte(raw) {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fail(section, raw, err)
		}
		for _, elem := range elems {
			var head struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(elem, &head); err != nil {
				return nil, fail(section, elem, err)
			}
			var item T
			if err := json.Unmarshal(elem, &item); err != nil {
				return nil, fail(section, elem, err)
			}
			setID(&item, head.ID)
			items = append(items, item)
		}
	case '{':
		entries, err := orderedObject(raw)
		if err != nil {
			return nil, fail(section, raw, err)
		}
		for _, e := range entries {
			var item T
			if err := json.Unmarshal(e.value, &item); err != nil {
				return nil, fail(section, e.value, err)
			}
			setID(&item, e.key)
			items = append(items, item)
		}
	default:
		return nil, fail(section, raw, fmt.Errorf("section %q must be a list or an object", section))
	}

	for _, item := range items {
		if item.EntityID() == "" {
			return nil, fail(section, raw, errors.New("entity without id"))
		}
	}
	if _, err := dataset.NewCollection(items); err != nil {
		return nil, fail(section, raw, err)
	}
	return items, nil
}

type objectEntry struct {
	key   string
	value json.RawMessage
}

// orderedObject decodes a JSON object keeping its key order.
func orderedObject(raw json.RawMessage) ([]objectEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var entries []objectEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		entries = append(entries, objectEntry{key: key, value: value})
	}
	return entries, nil
}

// objectPaths returns the dotted object-key paths of a document, two levels
// deep.
func objectPaths(top map[string]json.RawMessage) map[string]bool {
	paths := make(map[string]bool, len(top))
	for key, raw := range top {
		paths[key] = true
		if firstByte(raw) != '{' {
			continue
		}
		var sub map[string]json.RawMessage
		if err := json.Unmarshal(raw, &sub); err != nil {
			continue
		}
		for subKey := range sub {
			paths[key+"."+subKey] = true
		}
	}
	return paths
}

// malformed builds the error for a failed file. section is the raw bytes
// the failing decode ran on; its position in data turns relative offsets
// into absolute ones.
func malformed(file, section string, data []byte, sectionRaw []byte, err error) *MalformedDocumentError {
	offset := errorOffset(err)
	if offset >= 0 && sectionRaw != nil {
		base := bytes.Index(data, sectionRaw)
		if base < 0 {
			offset = -1
		} else {
			offset += int64(base)
		}
	}

	e := &MalformedDocumentError{File: file, Section: section, Offset: offset, Err: err}
	if offset >= 0 {
		e.Line, e.Column = lineColumn(data, offset)
	}
	return e
}

func errorOffset(err error) int64 {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Offset
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return typeErr.Offset
	}
	return -1
}

// lineColumn converts a byte offset into a 1-based line and column.
func lineColumn(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func firstByte(raw []byte) byte {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b
	}
	return 0
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
