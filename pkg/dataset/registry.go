package dataset

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Kind identifies an entity kind and, through the Registry, the file that
// owns it.
type Kind string

const (
	KindManifest     Kind = "data_links"
	KindProducts     Kind = "products"
	KindZones        Kind = "zones"
	KindWeightTiers  Kind = "weight_tiers"
	KindDimensions   Kind = "dimensions"
	KindFeatures     Kind = "features"
	KindRestrictions Kind = "restrictions"
	KindServices     Kind = "services"
	KindPrices       Kind = "prices"
)

// entityKinds lists the entity files in load order.
var entityKinds = []Kind{
	KindProducts,
	KindZones,
	KindWeightTiers,
	KindDimensions,
	KindFeatures,
	KindRestrictions,
	KindServices,
	KindPrices,
}

// EntityKinds returns every entity kind (the manifest excluded).
func EntityKinds() []Kind {
	out := make([]Kind, len(entityKinds))
	copy(out, entityKinds)
	return out
}

// ParseKind converts a kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k == KindManifest {
		return k, nil
	}
	for _, known := range entityKinds {
		if known == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// NodeName returns the dependency-graph node name of a file reference:
// the base name without the .json suffix.
func NodeName(file string) string {
	return strings.TrimSuffix(path.Base(file), ".json")
}

// Registry maps entity kinds to the file names that own them.
type Registry struct {
	files map[Kind]string
	kinds map[string]Kind // node name -> kind
}

// DefaultRegistry returns the registry where every kind is stored in
// "<kind>.json".
func DefaultRegistry() *Registry {
	r, _ := NewRegistry(nil)
	return r
}

// NewRegistry builds a registry from kind -> file name overrides. Kinds not
// present in overrides use "<kind>.json".
func NewRegistry(overrides map[string]string) (*Registry, error) {
	r := &Registry{
		files: make(map[Kind]string),
		kinds: make(map[string]Kind),
	}

	for _, k := range append([]Kind{KindManifest}, entityKinds...) {
		r.files[k] = string(k) + ".json"
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		k, err := ParseKind(name)
		if err != nil {
			return nil, err
		}
		file := path.Base(overrides[name])
		if file == "" || file == "." {
			return nil, fmt.Errorf("empty file name for kind %q", name)
		}
		r.files[k] = file
	}

	for k, file := range r.files {
		node := NodeName(file)
		if other, dup := r.kinds[node]; dup {
			return nil, fmt.Errorf("kinds %q and %q map to the same file %q", other, k, file)
		}
		r.kinds[node] = k
	}

	return r, nil
}

// File returns the file name owning kind k.
func (r *Registry) File(k Kind) string {
	return r.files[k]
}

// KindOf resolves a file reference ("prices", "prices.json" or
// "data/prices.json") to its kind.
func (r *Registry) KindOf(ref string) (Kind, bool) {
	k, ok := r.kinds[NodeName(ref)]
	return k, ok
}

// Known reports whether ref names a file in the registry.
func (r *Registry) Known(ref string) bool {
	_, ok := r.KindOf(ref)
	return ok
}

// DataFiles returns the entity file names in load order.
func (r *Registry) DataFiles() []string {
	out := make([]string, 0, len(entityKinds))
	for _, k := range entityKinds {
		out = append(out, r.files[k])
	}
	return out
}

// RegistryFromMappings reads a mappings.json document ({"mappings":
// {"schemas/products.schema.json": "data/products.json", ...}}) and builds
// a registry from it. Entity kinds are derived from the schema file names.
func RegistryFromMappings(mappingsPath string) (*Registry, error) {
	data, err := os.ReadFile(mappingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read mappings file %q: %w", mappingsPath, err)
	}

	var doc struct {
		Mappings map[string]string `json:"mappings"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse mappings file %q: %w", mappingsPath, err)
	}
	if len(doc.Mappings) == 0 {
		return nil, fmt.Errorf("no mappings found in %q", mappingsPath)
	}

	overrides := make(map[string]string, len(doc.Mappings))
	for schemaPath, dataPath := range doc.Mappings {
		kind := strings.TrimSuffix(NodeName(schemaPath), ".schema")
		overrides[kind] = dataPath
	}

	return NewRegistry(overrides)
}
