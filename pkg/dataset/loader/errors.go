package loader

import (
	"fmt"
	"time"
)

// MalformedDocumentError reports a file whose contents could not be turned
// into entities. The whole file is discarded.
type MalformedDocumentError struct {
	// File is the file name relative to the data directory.
	File string

	// Section is the top-level key being decoded, empty for whole-document
	// failures.
	Section string

	// Offset is the byte offset of the failure, or -1 when unknown.
	Offset int64

	// Line and Column locate Offset (1-based); zero when unknown.
	Line   int
	Column int

	Err error
}

func (e *MalformedDocumentError) Error() string {
	loc := e.File
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	}
	if e.Section != "" {
		return fmt.Sprintf("malformed document %s (%s): %v", loc, e.Section, e.Err)
	}
	return fmt.Sprintf("malformed document %s: %v", loc, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// Position returns a "line:column" string, or "" when unknown.
func (e *MalformedDocumentError) Position() string {
	if e.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", e.Line, e.Column)
}

// LoadTimeoutError is returned when the files could not be read within the
// load timeout. No partial dataset is returned with it.
type LoadTimeoutError struct {
	Timeout time.Duration

	// Pending lists the files still loading when the deadline expired.
	Pending []string
}

func (e *LoadTimeoutError) Error() string {
	return fmt.Sprintf("loading data files timed out after %s (pending: %v)", e.Timeout, e.Pending)
}
