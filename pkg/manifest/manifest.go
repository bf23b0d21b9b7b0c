// Package manifest parses the links manifest (data_links.json): the file
// dependency graph, the declared link triples, the lookup rules and the
// global settings.
//
// A Manifest is immutable once parsed. Every file it names has been checked
// against the dataset registry; a manifest naming an unknown file is rejected
// as a whole with a *ManifestShapeError.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/blang/semver/v4"
	"github.com/goccy/go-json"

	"gruncellka/porto/pkg/dataset"
)

// SupportedMajor is the manifest schema_version major this package reads.
const SupportedMajor = 1

// Edge is a dependency of one file on another, by node name.
type Edge struct {
	From string
	To   string
}

// Link is the declared reachability of one product.
type Link struct {
	ProductID   string
	Zones       []string
	WeightTiers []string
}

// LookupRule describes how a consumer resolves a price.
type LookupRule struct {
	Name  string
	File  string
	Files []string
	Array string
	Match []string
}

// ReferencedFiles returns File followed by Files, skipping empty names.
func (r LookupRule) ReferencedFiles() []string {
	var out []string
	if r.File != "" {
		out = append(out, r.File)
	}
	for _, f := range r.Files {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// GlobalSettings holds the manifest's global_settings section.
type GlobalSettings struct {
	AvailableServices []string
	// MandatoryServices maps a zone id to the services every priced route in
	// that zone must offer.
	MandatoryServices       map[string][]string
	PriceSource             string
	PriceLookup             string
	AllowSupplementalRoutes bool
}

// MandatoryZones returns the zone ids with mandatory services, sorted.
func (g GlobalSettings) MandatoryZones() []string {
	zones := make([]string, 0, len(g.MandatoryServices))
	for z := range g.MandatoryServices {
		zones = append(zones, z)
	}
	sort.Strings(zones)
	return zones
}

// Manifest is the parsed links manifest.
type Manifest struct {
	file     string
	version  *semver.Version
	units    dataset.UnitDecl
	edges    []Edge
	nodes    []string
	links    []Link
	triples  []dataset.Triple
	rules    []LookupRule
	settings GlobalSettings
}

// File returns the manifest's file name.
func (m *Manifest) File() string { return m.file }

// Version returns the parsed schema_version, or nil when absent.
func (m *Manifest) Version() *semver.Version { return m.version }

// Units returns the manifest's unit declaration.
func (m *Manifest) Units() dataset.UnitDecl { return m.units }

// DependencyEdges returns every declared edge, sorted by (From, To).
func (m *Manifest) DependencyEdges() []Edge { return m.edges }

// Nodes returns every node named in the dependency section, sorted.
func (m *Manifest) Nodes() []string { return m.nodes }

// Roots returns the nodes no other node depends on, sorted.
func (m *Manifest) Roots() []string {
	incoming := make(map[string]bool)
	for _, e := range m.edges {
		incoming[e.To] = true
	}
	var roots []string
	for _, n := range m.nodes {
		if !incoming[n] {
			roots = append(roots, n)
		}
	}
	return roots
}

// Links returns the per-product link declarations in manifest order.
func (m *Manifest) Links() []Link { return m.links }

// DeclaredLinkTriples returns the distinct declared triples, sorted.
func (m *Manifest) DeclaredLinkTriples() []dataset.Triple { return m.triples }

// LookupRules returns the lookup rules sorted by name.
func (m *Manifest) LookupRules() []LookupRule { return m.rules }

// GlobalSettings returns the global settings.
func (m *Manifest) GlobalSettings() GlobalSettings { return m.settings }

// Load reads and parses the manifest from dir.
func Load(ctx context.Context, dir string, reg *dataset.Registry) (*Manifest, error) {
	file := reg.File(dataset.KindManifest)
	data, err := dataset.ReadFile(ctx, filepath.Join(dir, file))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ManifestShapeError{File: file, Err: err}
	}
	return Parse(data, file, reg)
}

type rawManifest struct {
	SchemaVersion  string             `json:"schema_version"`
	Unit           *dataset.UnitDecl  `json:"unit"`
	Dependencies   json.RawMessage    `json:"dependencies"`
	Links          json.RawMessage    `json:"links"`
	LookupRules    map[string]rawRule `json:"lookup_rules"`
	GlobalSettings rawSettings        `json:"global_settings"`
}

type rawRule struct {
	File  string          `json:"file"`
	Files []string        `json:"files"`
	Array string          `json:"array"`
	Match json.RawMessage `json:"match"`
}

type rawSettings struct {
	AvailableServices       []string            `json:"available_services"`
	MandatoryServices       map[string][]string `json:"mandatory_services"`
	PriceSource             string              `json:"price_source"`
	PriceLookup             string              `json:"price_lookup"`
	LookupMethod            *rawRule            `json:"lookup_method"`
	AllowSupplementalRoutes bool                `json:"allow_supplemental_routes"`
}

type rawTriple struct {
	ProductID    string `json:"product_id"`
	ZoneID       string `json:"zone_id"`
	WeightTierID string `json:"weight_tier_id"`
}

type rawLink struct {
	Zones       []string `json:"zones"`
	WeightTiers []string `json:"weight_tiers"`
}

type rawDependency struct {
	File      string   `json:"file"`
	DependsOn []string `json:"depends_on"`
}

// parser accumulates shape problems while building a Manifest.
type parser struct {
	reg      *dataset.Registry
	problems []ShapeProblem
}

func (p *parser) problem(path, value, reason string) {
	p.problems = append(p.problems, ShapeProblem{Path: path, Value: value, Reason: reason})
}

// node resolves a file reference to its node name, recording a problem when
// the registry does not know the file.
func (p *parser) node(path, ref string) (string, bool) {
	if ref == "" {
		p.problem(path, ref, "empty file reference")
		return "", false
	}
	if !p.reg.Known(ref) {
		p.problem(path, ref, "unknown file")
		return "", false
	}
	return dataset.NodeName(ref), true
}

// Parse parses manifest bytes. All shape problems are collected before the
// manifest is rejected.
func Parse(data []byte, file string, reg *dataset.Registry) (*Manifest, error) {
	if reg == nil {
		reg = dataset.DefaultRegistry()
	}

	var raw rawManifest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ManifestShapeError{File: file, Err: err}
	}

	p := &parser{reg: reg}
	m := &Manifest{file: file}

	if raw.SchemaVersion != "" {
		v, err := semver.ParseTolerant(raw.SchemaVersion)
		switch {
		case err != nil:
			p.problem("schema_version", raw.SchemaVersion, "not a semantic version")
		case v.Major != SupportedMajor:
			p.problem("schema_version", raw.SchemaVersion, fmt.Sprintf("unsupported major version, expected %d.x", SupportedMajor))
		default:
			m.version = &v
		}
	}
	if raw.Unit != nil {
		m.units = *raw.Unit
	}

	p.parseDependencies(m, raw.Dependencies)
	p.parseLinks(m, raw.Links)
	p.parseRules(m, raw.LookupRules, raw.GlobalSettings.LookupMethod)

	s := raw.GlobalSettings
	m.settings = GlobalSettings{
		AvailableServices:       s.AvailableServices,
		MandatoryServices:       s.MandatoryServices,
		PriceSource:             s.PriceSource,
		PriceLookup:             s.PriceLookup,
		AllowSupplementalRoutes: s.AllowSupplementalRoutes,
	}

	if len(p.problems) > 0 {
		return nil, &ManifestShapeError{File: file, Problems: p.problems}
	}
	return m, nil
}

func (p *parser) parseDependencies(m *Manifest, raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}

	var section map[string]json.RawMessage
	if err := json.Unmarshal(raw, &section); err != nil {
		p.problem("dependencies", "", "must be an object")
		return
	}

	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nodes := make(map[string]bool)
	edges := make(map[Edge]bool)

	for _, key := range keys {
		path := "dependencies." + key

		var dep rawDependency
		var list []string
		if err := json.Unmarshal(section[key], &list); err == nil {
			dep = rawDependency{File: key, DependsOn: list}
		} else if err := json.Unmarshal(section[key], &dep); err != nil {
			p.problem(path, "", "must be a list of files or an object with file and depends_on")
			continue
		}
		if dep.File == "" {
			dep.File = key
		}

		from, ok := p.node(path, dep.File)
		if !ok {
			continue
		}
		nodes[from] = true

		for i, ref := range dep.DependsOn {
			to, ok := p.node(fmt.Sprintf("%s.depends_on[%d]", path, i), ref)
			if !ok {
				continue
			}
			nodes[to] = true
			edges[Edge{From: from, To: to}] = true
		}
	}

	for n := range nodes {
		m.nodes = append(m.nodes, n)
	}
	sort.Strings(m.nodes)

	for e := range edges {
		m.edges = append(m.edges, e)
	}
	sort.Slice(m.edges, func(i, j int) bool {
		if m.edges[i].From != m.edges[j].From {
			return m.edges[i].From < m.edges[j].From
		}
		return m.edges[i].To < m.edges[j].To
	})
}

func (p *parser) parseLinks(m *Manifest, raw json.RawMessage) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}

	var list []rawTriple
	if err := json.Unmarshal(raw, &list); err == nil {
		m.links = linksFromTriples(list)
		for _, t := range list {
			m.triples = append(m.triples, dataset.Triple{ProductID: t.ProductID, ZoneID: t.ZoneID, WeightTierID: t.WeightTierID})
		}
		m.triples = sortedTriples(m.triples)
		return
	}

	entries, err := orderedObject(raw)
	if err != nil {
		p.problem("links", "", "must be an object keyed by product id or a list of triples")
		return
	}
	for _, e := range entries {
		var l rawLink
		if err := json.Unmarshal(e.value, &l); err != nil {
			p.problem("links."+e.key, "", "must be an object with zones and weight_tiers")
			continue
		}
		m.links = append(m.links, Link{ProductID: e.key, Zones: l.Zones, WeightTiers: l.WeightTiers})
		for _, z := range l.Zones {
			for _, w := range l.WeightTiers {
				m.triples = append(m.triples, dataset.Triple{ProductID: e.key, ZoneID: z, WeightTierID: w})
			}
		}
	}
	m.triples = sortedTriples(m.triples)
}

func (p *parser) parseRules(m *Manifest, rules map[string]rawRule, legacy *rawRule) {
	all := make(map[string]rawRule, len(rules)+1)
	for name, r := range rules {
		all[name] = r
	}
	if legacy != nil {
		if _, dup := all["lookup_method"]; dup {
			p.problem("global_settings.lookup_method", "", "conflicts with lookup_rules.lookup_method")
		} else {
			all["lookup_method"] = *legacy
		}
	}

	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r := all[name]
		path := "lookup_rules." + name

		match, err := matchKeys(r.Match)
		if err != nil {
			p.problem(path+".match", "", err.Error())
			continue
		}

		rule := LookupRule{Name: name, File: r.File, Files: r.Files, Array: r.Array, Match: match}
		valid := true
		for _, ref := range rule.ReferencedFiles() {
			if !p.reg.Known(ref) {
				p.problem(path+".file", ref, "unknown file")
				valid = false
			}
		}
		if valid {
			m.rules = append(m.rules, rule)
		}
	}
}

// matchKeys accepts either a list of keys or an object whose keys are the
// match keys. A "description" key is documentation, not a match key.
func matchKeys(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.New("must be a list of keys or an object")
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		if k == "description" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
