// Porto checks the referential integrity of a postal tariff dataset.
//
// The dataset is a directory of JSON files (products, zones, weight tiers,
// dimensions, features, restrictions, services, prices) plus the
// data_links.json manifest describing how they relate. Porto loads every
// file, resolves every cross-file reference and reports all problems in one
// pass.
//
// Usage:
//
//	# Check links, dependencies and units in ./data
//	porto validate --type links
//
//	# Include informational notices, as JSON
//	porto validate --type links --analyze --format json
//
//	# Run the configured JSON Schema command, then the link checks
//	porto validate --config porto.yaml
//
//	# Show archived runs
//	porto history --limit 10
//
// The exit status is 0 when the report passes and 1 otherwise.
package main

func main() {
	Execute()
}
