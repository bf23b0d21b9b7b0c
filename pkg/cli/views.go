package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"gruncellka/porto/pkg/history"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/report"
)

// ReportView renders a validation report. Its JSON form is the report
// itself.
type ReportView report.Report

// WriteText writes a summary line followed by one line per finding.
func (v ReportView) WriteText(w io.Writer) error {
	status := "PASS"
	if !v.Passed {
		status = "FAIL"
	}
	summary := fmt.Sprintf("%s: %d error(s)", status, len(v.Errors))
	if v.Analyze {
		summary += fmt.Sprintf(", %d notice(s)", len(v.Notices))
	}
	if _, err := fmt.Fprintln(w, summary); err != nil {
		return err
	}

	if len(v.Errors)+len(v.Notices) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw)
	for _, list := range [][]findings.Finding{v.Errors, v.Notices} {
		for _, f := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Severity, f.Kind, f.Location(), describe(f))
		}
	}
	return tw.Flush()
}

// describe renders a finding's message with its expected and found values.
func describe(f findings.Finding) string {
	var parts []string
	if f.Expected != "" {
		parts = append(parts, "expected "+strconv.Quote(f.Expected))
	}
	if f.Found != "" {
		parts = append(parts, "found "+strconv.Quote(f.Found))
	}
	if len(parts) == 0 {
		return f.Message
	}
	return fmt.Sprintf("%s (%s)", f.Message, strings.Join(parts, ", "))
}

// Header returns the CSV column names.
func (v ReportView) Header() []string {
	return []string{"severity", "kind", "file", "id", "field", "target_file", "target", "expected", "found", "message"}
}

// Rows returns one row per finding, errors first.
func (v ReportView) Rows() [][]string {
	rows := make([][]string, 0, len(v.Errors)+len(v.Notices))
	for _, list := range [][]findings.Finding{v.Errors, v.Notices} {
		for _, f := range list {
			rows = append(rows, []string{
				string(f.Severity), string(f.Kind), f.File, f.ID, f.Field,
				f.TargetFile, f.Target, f.Expected, f.Found, f.Message,
			})
		}
	}
	return rows
}

// HistoryView renders archived run summaries.
type HistoryView []history.Run

// WriteText writes the runs as an aligned table.
func (v HistoryView) WriteText(w io.Writer) error {
	if len(v) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(v.Header(), "\t")))
	for _, row := range v.Rows() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// MarshalJSON encodes an empty history as an empty array.
func (v HistoryView) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]history.Run(v))
}

// Header returns the column names.
func (v HistoryView) Header() []string {
	return []string{"id", "started_at", "result", "errors", "notices", "duration", "as_of", "data_dir"}
}

// Rows returns one row per run.
func (v HistoryView) Rows() [][]string {
	rows := make([][]string, 0, len(v))
	for _, run := range v {
		result := "fail"
		if run.Passed {
			result = "pass"
		}
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.UTC().Format(time.RFC3339),
			result,
			strconv.Itoa(run.Errors),
			strconv.Itoa(run.Notices),
			run.Duration.String(),
			run.AsOf,
			run.DataDir,
		})
	}
	return rows
}
