package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gruncellka/porto/internal/fixture"
	"gruncellka/porto/pkg/cli"
	"gruncellka/porto/pkg/history"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/report"
)

// executeCommand runs the root command with args and returns its stdout,
// stderr and error. Flags are reset first so runs do not leak into each
// other.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	for _, c := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		c.Flags().VisitAll(reset)
		c.PersistentFlags().VisitAll(reset)
	}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "porto "+Version)
	assert.Contains(t, out, "Manifest schema: 1.x")
	assert.Contains(t, out, "Go Version:")
}

func TestValidateLinks_Pass(t *testing.T) {
	dir := fixture.WriteDir(t, nil)

	out, _, err := executeCommand(t, "validate", "--type", "links", "--data-dir", dir, "--as-of", "2025-01-01", "--analyze")
	require.NoError(t, err)
	assert.Equal(t, "PASS: 0 error(s), 0 notice(s)\n", out)
}

func TestValidateLinks_Fail(t *testing.T) {
	prices := fixture.Replace(t, fixture.Prices,
		`{"price": 170, "effective_from": "2024-01-01"`,
		`{"price": 170, "effective_from": "2026-01-01"`)
	dir := fixture.WriteDir(t, map[string]string{"prices.json": prices})

	out, _, err := executeCommand(t, "validate", "--type", "links", "--data-dir", dir, "--as-of", "2025-01-01")

	var failed *cli.ValidationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "links", failed.Step)
	assert.Equal(t, 1, failed.Errors)
	assert.Equal(t, cli.ExitFailed, cli.ExitCode(err))

	assert.True(t, strings.HasPrefix(out, "FAIL: 1 error(s)\n"))
	assert.Contains(t, out, "MissingPriceError")
	assert.Contains(t, out, "prices.json:letter_standard/zone_eu/w_21_50.price")
}

func TestValidateLinks_JSON(t *testing.T) {
	dir := fixture.WriteDir(t, map[string]string{"features.json": `{
  "features": {
    "tracking": {"name": "Tracking"},
    "insurance": {"name": "Insurance"},
    "signature": {"name": "Signature"}
  }
}`})

	out, _, err := executeCommand(t, "validate", "--type", "links", "--data-dir", dir,
		"--as-of", "2025-01-01", "--analyze", "--format", "json")
	require.NoError(t, err)

	var rep report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.Passed)
	require.Len(t, rep.Notices, 1)
	assert.Equal(t, findings.KindUnusedFeature, rep.Notices[0].Kind)
	assert.Equal(t, "signature", rep.Notices[0].ID)
}

func TestValidate_InvalidFlags(t *testing.T) {
	dir := fixture.WriteDir(t, nil)

	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"unknown type", []string{"--type", "prices"}, "type"},
		{"bad as-of", []string{"--as-of", "01.01.2025"}, "as-of"},
		{"bad format", []string{"--format", "xml"}, "format"},
		{"negative timeout", []string{"--timeout=-1s"}, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"validate", "--data-dir", dir}, tt.args...)
			_, _, err := executeCommand(t, args...)

			var cfgErr *cli.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Equal(t, cli.ExitUsage, cli.ExitCode(err))
		})
	}
}

func TestValidateSchema(t *testing.T) {
	dir := fixture.WriteDir(t, nil)

	t.Run("no command configured", func(t *testing.T) {
		t.Setenv("PORTO_SCHEMA_COMMAND", "")
		_, _, err := executeCommand(t, "validate", "--type", "schema", "--data-dir", dir)

		var cmdErr *cli.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.ErrorIs(t, err, errNoSchemaCommand)
	})

	t.Run("command succeeds", func(t *testing.T) {
		t.Setenv("PORTO_SCHEMA_COMMAND", "true")
		_, _, err := executeCommand(t, "validate", "--type", "schema", "--data-dir", dir)
		assert.NoError(t, err)
	})

	t.Run("command fails", func(t *testing.T) {
		t.Setenv("PORTO_SCHEMA_COMMAND", "false")
		_, _, err := executeCommand(t, "validate", "--type", "schema", "--data-dir", dir)

		var cmdErr *cli.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Equal(t, "schema", cmdErr.Command)
		assert.Equal(t, cli.ExitFailed, cli.ExitCode(err))
	})

	t.Run("failing schema stops the run", func(t *testing.T) {
		t.Setenv("PORTO_SCHEMA_COMMAND", "false")
		out, _, err := executeCommand(t, "validate", "--data-dir", dir, "--as-of", "2025-01-01")

		var cmdErr *cli.CommandError
		require.ErrorAs(t, err, &cmdErr)
		assert.Empty(t, out)
	})
}

func TestValidate_RecordAndHistory(t *testing.T) {
	dir := fixture.WriteDir(t, nil)
	t.Setenv("PORTO_HISTORY_PATH", filepath.Join(t.TempDir(), "runs.db"))

	_, _, err := executeCommand(t, "validate", "--type", "links", "--data-dir", dir, "--as-of", "2025-01-01", "--record")
	require.NoError(t, err)

	out, _, err := executeCommand(t, "history", "--format", "json")
	require.NoError(t, err)

	var runs []history.Run
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Passed)
	assert.Equal(t, "2025-01-01", runs[0].AsOf)
	assert.Equal(t, dir, runs[0].DataDir)
	assert.NotEmpty(t, runs[0].ID)
}

func TestHistory_NoDatabase(t *testing.T) {
	t.Setenv("PORTO_HISTORY_PATH", filepath.Join(t.TempDir(), "absent.db"))

	out, _, err := executeCommand(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "no runs recorded\n", out)
}

func TestHistory_NoDatabaseJSON(t *testing.T) {
	out, _, err := executeCommand(t, "history", "--format", "json", "--db", filepath.Join(t.TempDir(), "absent.db"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestValidate_MetricsFile(t *testing.T) {
	dir := fixture.WriteDir(t, nil)
	path := filepath.Join(t.TempDir(), "porto.prom")

	_, _, err := executeCommand(t, "validate", "--type", "links", "--data-dir", dir, "--as-of", "2025-01-01", "--metrics-file", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `porto_validation_runs_total{result="passed"} 1`)
	assert.Contains(t, string(data), `porto_loader_file_loads_total{file="prices.json",status="ok"} 1`)
}
