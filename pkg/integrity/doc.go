// Package integrity is the cross-document referential-integrity validator.
//
// A validation run is a single batch pass:
//
//	Load (files and manifest, in parallel)
//	  → Resolve references
//	  → {link consistency, dependency cycles, unit consistency} concurrently
//	  → Report
//
// Every data problem is collected as a finding so that one run reports all
// of them. A file that cannot be parsed is reported once and the checks that
// need it are skipped; the rest of the dataset is still validated. The only
// run-level failure is a load timeout.
//
// # Usage
//
//	v, err := integrity.NewValidator(integrity.Config{
//		DataDir:     "data",
//		LoadTimeout: 10 * time.Second,
//		Analyze:     true,
//	}, integrity.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	rep, err := v.Validate(ctx)
//	if err != nil {
//		return err // *loader.LoadTimeoutError
//	}
//	if !rep.Passed {
//		// rep.Errors lists every problem, sorted by file, id and field.
//	}
//
// Reports are deterministic: two runs over the same files on the same as-of
// day produce identical reports.
package integrity
