// Package history archives a summary of every validation run in a local
// SQLite database so that trends can be inspected with "porto history".
//
// Only summaries are stored: the run id, when and where it ran, whether it
// passed, and the number of findings per kind. Reports themselves are not
// archived.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite" // SQLite driver

	"gruncellka/porto/pkg/integrity/report"
)

// ErrNotFound is returned by Get when no run has the requested id.
var ErrNotFound = errors.New("run not found")

// Run is the archived summary of one validation run.
type Run struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	DataDir   string        `json:"data_dir"`
	AsOf      string        `json:"as_of"`
	Passed    bool          `json:"passed"`
	Errors    int           `json:"errors"`
	Notices   int           `json:"notices"`
	// Counts is the number of findings per kind.
	Counts map[string]int `json:"counts"`
}

// NewRun summarizes a report.
func NewRun(id, dataDir, asOf string, started time.Time, duration time.Duration, r report.Report) Run {
	counts := make(map[string]int)
	for kind, n := range r.CountsByKind() {
		counts[string(kind)] = n
	}
	return Run{
		ID:        id,
		StartedAt: started.UTC(),
		Duration:  duration,
		DataDir:   dataDir,
		AsOf:      asOf,
		Passed:    r.Passed,
		Errors:    r.ErrorCount(),
		Notices:   r.NoticeCount(),
		Counts:    counts,
	}
}

// Config configures the store.
type Config struct {
	// Path is the SQLite database file.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// Keep is the number of most recent runs retained. Zero keeps all.
	Keep int
}

// Store is the SQLite-backed run archive.
type Store struct {
	db        *sql.DB
	keep      int
	closeOnce sync.Once
}

// Open opens or creates the archive at cfg.Path.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Keep < 0 {
		return nil, fmt.Errorf("keep cannot be negative")
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, keep: cfg.Keep}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		data_dir TEXT NOT NULL,
		as_of TEXT NOT NULL,
		passed INTEGER NOT NULL,
		errors INTEGER NOT NULL,
		notices INTEGER NOT NULL,
		counts TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Record stores a run and prunes runs beyond the retention limit.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id cannot be empty")
	}

	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return fmt.Errorf("failed to encode finding counts: %w", err)
	}

	passed := 0
	if run.Passed {
		passed = 1
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, duration_ms, data_dir, as_of, passed, errors, notices, counts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(), run.DataDir, run.AsOf,
		passed, run.Errors, run.Notices, string(counts))
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}

	if s.keep > 0 {
		if _, err := s.prune(ctx, s.keep); err != nil {
			return err
		}
	}
	return nil
}

// prune deletes all but the keep most recent runs.
func (s *Store) prune(ctx context.Context, keep int) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM runs
		WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// List returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, started_at, duration_ms, data_dir, as_of, passed, errors, notices, counts
		FROM runs
		ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ms, data_dir, as_of, passed, errors, notices, counts
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// Close releases the database. Close is idempotent.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run        Run
		startedAt  int64
		durationMS int64
		passed     int
		counts     string
	)
	err := sc.Scan(&run.ID, &startedAt, &durationMS, &run.DataDir, &run.AsOf,
		&passed, &run.Errors, &run.Notices, &counts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartedAt = time.UnixMilli(startedAt).UTC()
	run.Duration = time.Duration(durationMS) * time.Millisecond
	run.Passed = passed == 1
	if err := json.Unmarshal([]byte(counts), &run.Counts); err != nil {
		return Run{}, fmt.Errorf("failed to decode finding counts of run %s: %w", run.ID, err)
	}
	return run, nil
}
