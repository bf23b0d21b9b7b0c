// Package cycles checks the manifest's file dependency graph: it must be
// acyclic, and every data file must be reachable from a root.
package cycles

import (
	"fmt"
	"sort"
	"strings"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/model"
	"gruncellka/porto/pkg/manifest"
)

// FieldDependencies is the field reported for graph findings.
const FieldDependencies = "dependencies"

// Detector finds dependency cycles and uncovered files.
type Detector struct {
	graph    map[string][]string
	nodes    []string
	findings *findings.List
	file     string
}

// NewDetector creates a cycle detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Check analyses the dependency graph of m. Without a manifest there is
// nothing to check.
func (d *Detector) Check(m *model.Model) *findings.List {
	d.findings = findings.NewList()
	if !m.HasManifest() {
		return d.findings
	}

	d.file = m.ManifestFile()
	d.build(m.Manifest)

	cycles := d.Cycles()
	for _, c := range cycles {
		d.findings.Add(findings.Finding{
			Kind:     findings.KindCircularDependency,
			Severity: findings.SeverityError,
			File:     d.file,
			ID:       c[0],
			Field:    FieldDependencies,
			Path:     c,
			Found:    FormatCycle(c),
			Message:  fmt.Sprintf("circular dependency %s", FormatCycle(c)),
		})
	}

	if len(cycles) == 0 {
		d.checkCoverage(m)
	}
	return d.findings
}

func (d *Detector) build(man *manifest.Manifest) {
	d.graph = make(map[string][]string)
	seen := make(map[manifest.Edge]bool)
	for _, e := range man.DependencyEdges() {
		if seen[e] {
			continue
		}
		seen[e] = true
		d.graph[e.From] = append(d.graph[e.From], e.To)
	}
	for _, targets := range d.graph {
		sort.Strings(targets)
	}
	d.nodes = man.Nodes()
}

// Cycles returns every elementary cycle exactly once, rotated to start at
// its smallest node and closed by repeating it ("a", "b", "a"). Each cycle
// is found from its smallest node through larger nodes only, so the result
// does not depend on the rest of the graph. Cycles are sorted by their
// rendered path.
func (d *Detector) Cycles() [][]string {
	var cycles [][]string
	for _, start := range d.nodes {
		onPath := map[string]bool{start: true}
		cycles = d.walk(start, start, []string{start}, onPath, cycles)
	}

	sort.Slice(cycles, func(i, j int) bool {
		return FormatCycle(cycles[i]) < FormatCycle(cycles[j])
	})
	return cycles
}

// walk extends path from node, recording a cycle whenever an edge returns
// to start. Only nodes greater than start are entered.
func (d *Detector) walk(start, node string, path []string, onPath map[string]bool, cycles [][]string) [][]string {
	for _, next := range d.graph[node] {
		switch {
		case next == start:
			c := make([]string, 0, len(path)+1)
			c = append(c, path...)
			cycles = append(cycles, append(c, start))
		case next > start && !onPath[next]:
			onPath[next] = true
			cycles = d.walk(start, next, append(path, next), onPath, cycles)
			onPath[next] = false
		}
	}
	return cycles
}

// checkCoverage reports registered data files not reachable from a root.
func (d *Detector) checkCoverage(m *model.Model) {
	reached := make(map[string]bool)
	queue := append([]string(nil), m.Manifest.Roots()...)
	for _, r := range queue {
		reached[r] = true
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, next := range d.graph[n] {
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}

	for _, file := range m.Dataset.Registry.DataFiles() {
		node := dataset.NodeName(file)
		if reached[node] {
			continue
		}
		d.findings.Add(findings.Finding{
			Kind:     findings.KindUncoveredFile,
			Severity: findings.SeverityError,
			File:     d.file,
			ID:       file,
			Field:    FieldDependencies,
			Message:  fmt.Sprintf("%s is not reachable from any root of the dependency graph", file),
		})
	}
}

// FormatCycle renders a closed cycle path as "a→b→c→a".
func FormatCycle(path []string) string {
	return strings.Join(path, "→")
}
