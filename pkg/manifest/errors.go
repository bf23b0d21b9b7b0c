package manifest

import (
	"fmt"
	"strings"
)

// ShapeProblem is one structural problem found in the manifest.
type ShapeProblem struct {
	// Path is the dotted location inside the manifest ("dependencies.prices").
	Path string

	// Value is the offending value, if any.
	Value string

	Reason string
}

func (p ShapeProblem) String() string {
	if p.Value == "" {
		return fmt.Sprintf("%s: %s", p.Path, p.Reason)
	}
	return fmt.Sprintf("%s: %s (%q)", p.Path, p.Reason, p.Value)
}

// ManifestShapeError reports a manifest that cannot be used: malformed JSON,
// unknown files or kinds, or an unsupported schema version. It is fatal for
// the manifest only; data files are still validated.
type ManifestShapeError struct {
	File     string
	Problems []ShapeProblem
	Err      error
}

func (e *ManifestShapeError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("invalid manifest %s: %v", e.File, e.Err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid manifest %s: %d problem(s)", e.File, len(e.Problems))
	for _, p := range e.Problems {
		sb.WriteString("\n  - ")
		sb.WriteString(p.String())
	}
	return sb.String()
}

func (e *ManifestShapeError) Unwrap() error {
	return e.Err
}
