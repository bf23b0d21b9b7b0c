package manifest

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"

	"gruncellka/porto/pkg/dataset"
)

// linksFromTriples groups list-form triples per product, keeping first-seen
// order of products, zones and weight tiers.
func linksFromTriples(list []rawTriple) []Link {
	var links []Link
	index := make(map[string]int)
	for _, t := range list {
		i, ok := index[t.ProductID]
		if !ok {
			i = len(links)
			index[t.ProductID] = i
			links = append(links, Link{ProductID: t.ProductID})
		}
		links[i].Zones = appendUnique(links[i].Zones, t.ZoneID)
		links[i].WeightTiers = appendUnique(links[i].WeightTiers, t.WeightTierID)
	}
	return links
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func sortedTriples(triples []dataset.Triple) []dataset.Triple {
	seen := make(map[dataset.Triple]bool, len(triples))
	out := make([]dataset.Triple, 0, len(triples))
	for _, t := range triples {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

type objectEntry struct {
	key   string
	value json.RawMessage
}

// orderedObject decodes a JSON object keeping its key order.
func orderedObject(raw json.RawMessage) ([]objectEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object, got %v", tok)
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
