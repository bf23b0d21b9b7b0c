package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/report"
)

func newTestStore(t *testing.T, keep int) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "history.db"), Keep: keep})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRun(id string, started time.Time, passed bool) Run {
	r := report.Report{Passed: passed, Errors: []findings.Finding{}, Notices: []findings.Finding{}}
	if !passed {
		r.Errors = append(r.Errors,
			findings.Finding{Kind: findings.KindMissingPrice, Severity: findings.SeverityError},
			findings.Finding{Kind: findings.KindMissingPrice, Severity: findings.SeverityError, ID: "x"},
		)
	}
	return NewRun(id, "data", "2025-01-01", started, 1500*time.Millisecond, r)
}

func TestNewRun(t *testing.T) {
	started := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	run := testRun("run-1", started, false)

	assert.Equal(t, "run-1", run.ID)
	assert.False(t, run.Passed)
	assert.Equal(t, 2, run.Errors)
	assert.Equal(t, 0, run.Notices)
	assert.Equal(t, map[string]int{"MissingPriceError": 2}, run.Counts)
	assert.Equal(t, started, run.StartedAt)
}

func TestStore_RecordAndGet(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	started := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	run := testRun("run-1", started, false)
	require.NoError(t, s.Record(ctx, run))

	got, err := s.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestStore_Get_NotFound(t *testing.T) {
	s := newTestStore(t, 0)

	_, err := s.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_Record_Validation(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	assert.Error(t, s.Record(ctx, Run{}))

	run := testRun("dup", time.Now(), true)
	require.NoError(t, s.Record(ctx, run))
	assert.Error(t, s.Record(ctx, run), "duplicate ids are rejected")
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Record(ctx, testRun(id, base.Add(time.Duration(i)*time.Hour), i%2 == 0)))
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
	assert.True(t, runs[0].Passed)
	assert.False(t, runs[1].Passed)

	runs, err = s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_Keep(t *testing.T) {
	s := newTestStore(t, 2)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Record(ctx, testRun(id, base.Add(time.Duration(i)*time.Minute), true)))
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "d", runs[0].ID)
	assert.Equal(t, "c", runs[1].ID)
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, testRun("kept", time.Now(), true)))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer s.Close()

	run, err := s.Get(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, run.Passed)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)

	_, err = Open(Config{Path: filepath.Join(t.TempDir(), "h.db"), Keep: -1})
	assert.Error(t, err)
}
