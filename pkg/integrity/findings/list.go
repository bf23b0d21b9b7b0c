package findings

// List accumulates findings. A List is owned by a single checker and is not
// safe for concurrent use; lists are merged once checkers are done.
type List struct {
	items []Finding
}

// NewList creates an empty list.
func NewList() *List {
	return &List{items: make([]Finding, 0)}
}

// Add appends a finding.
func (l *List) Add(f Finding) {
	l.items = append(l.items, f)
}

// AddError appends an error finding of the given kind.
func (l *List) AddError(kind Kind, file, id, field, message string) {
	l.Add(Finding{Kind: kind, Severity: SeverityError, File: file, ID: id, Field: field, Message: message})
}

// AddNotice appends a notice of the given kind.
func (l *List) AddNotice(kind Kind, file, id, field, message string) {
	l.Add(Finding{Kind: kind, Severity: SeverityNotice, File: file, ID: id, Field: field, Message: message})
}

// Merge appends every finding of other.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}

// Findings returns a sorted copy of the findings.
func (l *List) Findings() []Finding {
	if l == nil {
		return nil
	}
	out := make([]Finding, len(l.items))
	copy(out, l.items)
	Sort(out)
	return out
}

// Count returns the number of findings.
func (l *List) Count() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// HasErrors reports whether the list holds at least one error.
func (l *List) HasErrors() bool {
	if l == nil {
		return false
	}
	for _, f := range l.items {
		if f.IsError() {
			return true
		}
	}
	return false
}

// ByKind returns the findings of the given kind, sorted.
func (l *List) ByKind(kind Kind) []Finding {
	var out []Finding
	for _, f := range l.Findings() {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}
