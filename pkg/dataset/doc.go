// Package dataset defines the in-memory model of the porto data files.
//
// # Overview
//
// The dataset is a small relational model spread across independent JSON
// documents: products, zones, weight tiers, dimensions, features,
// restrictions (with their legal frameworks), services and prices. A links
// manifest (data_links.json) describes how these documents reference each
// other; it is modelled by package manifest, not here.
//
// # File Registry
//
// Every entity kind is owned by exactly one file. The Registry maps kinds to
// file names and back:
//
//	reg := dataset.DefaultRegistry()
//	reg.File(dataset.KindPrices)        // "prices.json"
//	reg.KindOf("products")              // KindProducts, true
//	dataset.NodeName("weight_tiers.json") // "weight_tiers"
//
// # Immutability
//
// A Dataset is produced once per validation run by the loader and is never
// mutated afterwards, so checkers may read it concurrently without locking.
// Collections preserve the order in which entities appear in their file.
package dataset
