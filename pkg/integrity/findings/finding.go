// Package findings defines the typed findings produced by the integrity
// checkers and the List they accumulate into.
package findings

import (
	"fmt"
	"sort"
	"strings"
)

// Kind names a class of finding.
type Kind string

// Error kinds. Any of these makes a report fail.
const (
	KindMalformedDocument   Kind = "MalformedDocumentError"
	KindManifestShape       Kind = "ManifestShapeError"
	KindDanglingReference   Kind = "DanglingReferenceError"
	KindMissingPrice        Kind = "MissingPriceError"
	KindUndeclaredLink      Kind = "UndeclaredLinkError"
	KindUnitMismatch        Kind = "UnitMismatchError"
	KindMissingService      Kind = "MissingServiceError"
	KindInactiveService     Kind = "InactiveServiceError"
	KindLookupRule          Kind = "LookupRuleError"
	KindOverlappingPrice    Kind = "OverlappingPriceError"
	KindServiceLifecycle    Kind = "ServiceLifecycleError"
	KindRestrictionConflict Kind = "RestrictionConflictError"
	KindCircularDependency  Kind = "CircularDependencyError"
	KindUncoveredFile       Kind = "UncoveredFileError"
)

// Notice kinds. Informational only.
const (
	KindFileUnavailable    Kind = "FileUnavailable"
	KindZoneMismatch       Kind = "ZoneMismatch"
	KindWeightTierMismatch Kind = "WeightTierMismatch"
	KindUnlinkedProduct    Kind = "UnlinkedProduct"
	KindUnusedFeature      Kind = "UnusedFeature"
	KindUnpricedZone       Kind = "UnpricedZone"
	KindUnpricedService    Kind = "UnpricedService"
	KindUnexpectedUnit     Kind = "UnexpectedUnit"
	KindChecksumMismatch   Kind = "ChecksumMismatch"
)

// Severity separates errors from informational notices.
type Severity string

const (
	SeverityError  Severity = "error"
	SeverityNotice Severity = "notice"
)

// Finding is a single integrity problem or notice. Fields that do not apply
// to a kind are left empty.
type Finding struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`

	// File, ID and Field locate the source of the finding.
	File  string `json:"file"`
	ID    string `json:"id,omitempty"`
	Field string `json:"field,omitempty"`

	// TargetFile and Target name what the source points at.
	TargetFile string `json:"target_file,omitempty"`
	Target     string `json:"target,omitempty"`

	Expected string `json:"expected,omitempty"`
	Found    string `json:"found,omitempty"`

	// Path is the node sequence of a dependency cycle.
	Path []string `json:"path,omitempty"`

	Message string `json:"message"`
}

// IsError reports whether the finding affects the pass/fail outcome.
func (f Finding) IsError() bool {
	return f.Severity == SeverityError
}

// Location renders "file:id.field" with empty parts omitted.
func (f Finding) Location() string {
	var sb strings.Builder
	sb.WriteString(f.File)
	if f.ID != "" {
		sb.WriteString(":")
		sb.WriteString(f.ID)
	}
	if f.Field != "" {
		if f.ID != "" {
			sb.WriteString(".")
		} else {
			sb.WriteString(":")
		}
		sb.WriteString(f.Field)
	}
	return sb.String()
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Kind, f.Location(), f.Message)
}

// Less orders findings by (file, id, field), then by kind and the remaining
// fields so the order never depends on how findings were produced.
func Less(a, b Finding) bool {
	keysA := [...]string{a.File, a.ID, a.Field, string(a.Kind), a.TargetFile, a.Target, a.Expected, a.Found, strings.Join(a.Path, "\x00"), a.Message}
	keysB := [...]string{b.File, b.ID, b.Field, string(b.Kind), b.TargetFile, b.Target, b.Expected, b.Found, strings.Join(b.Path, "\x00"), b.Message}
	for i := range keysA {
		if keysA[i] != keysB[i] {
			return keysA[i] < keysB[i]
		}
	}
	return false
}

// Sort sorts findings in place by Less.
func Sort(list []Finding) {
	sort.SliceStable(list, func(i, j int) bool { return Less(list[i], list[j]) })
}

// DanglingReference reports an id that does not exist in its owning file.
func DanglingReference(sourceFile, sourceID, field, targetFile, targetID string) Finding {
	return Finding{
		Kind:       KindDanglingReference,
		Severity:   SeverityError,
		File:       sourceFile,
		ID:         sourceID,
		Field:      field,
		TargetFile: targetFile,
		Target:     targetID,
		Message:    fmt.Sprintf("%q does not exist in %s", targetID, targetFile),
	}
}

// UnitMismatch reports a quantity declared with different units in two
// places. id names the entity involved, empty for file-level units.
func UnitMismatch(quantity, id, fileA, valueA, fileB, valueB string) Finding {
	return Finding{
		Kind:       KindUnitMismatch,
		Severity:   SeverityError,
		File:       fileA,
		ID:         id,
		Field:      quantity,
		TargetFile: fileB,
		Expected:   valueB,
		Found:      valueA,
		Message:    fmt.Sprintf("%s unit %q in %s does not match %q in %s", quantity, valueA, fileA, valueB, fileB),
	}
}

// FileUnavailable notes that checks depending on file were skipped.
func FileUnavailable(file, reason string) Finding {
	return Finding{
		Kind:     KindFileUnavailable,
		Severity: SeverityNotice,
		File:     file,
		Message:  fmt.Sprintf("file unavailable, dependent checks skipped: %s", reason),
	}
}
