package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gruncellka/porto/pkg/dataset"
)

// Observer receives the outcome of every file load.
type Observer interface {
	ObserveLoad(file string, duration time.Duration, err error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithObserver registers an observer for per-file load outcomes.
func WithObserver(o Observer) Option {
	return func(l *Loader) { l.observer = o }
}

// WithTimeout bounds the whole load. Zero disables the loader's own
// deadline; a deadline already on the caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// Loader reads every entity file of a data directory in parallel.
type Loader struct {
	dir      string
	registry *dataset.Registry
	timeout  time.Duration
	logger   *slog.Logger
	observer Observer
}

// New creates a loader for the data directory dir.
func New(dir string, reg *dataset.Registry, opts ...Option) *Loader {
	l := &Loader{
		dir:      dir,
		registry: reg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.registry == nil {
		l.registry = dataset.DefaultRegistry()
	}
	l.logger = l.logger.With("component", "dataset.loader")
	return l
}

// Result is the outcome of a load: the dataset and the files that could not
// be used. A failed file's kind is unavailable in the dataset.
type Result struct {
	Dataset  *dataset.Dataset
	Failures []*MalformedDocumentError
}

// Load reads and decodes every entity file. Each file is loaded on its own
// goroutine; Load returns once all of them finished. Per-file failures are
// collected in Result.Failures. If the deadline expires first, Load returns
// a *LoadTimeoutError and no result.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	kinds := dataset.EntityKinds()
	docs := make([]*document, len(kinds))
	tracker := newPendingTracker()

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		file := l.registry.File(kind)
		tracker.add(file)

		g.Go(func() error {
			start := time.Now()
			doc, err := l.loadFile(gctx, kind, file)
			if err != nil {
				return err
			}
			tracker.done(file)
			docs[i] = doc

			if l.observer != nil {
				var loadErr error
				if doc.failure != nil {
					loadErr = doc.failure
				}
				l.observer.ObserveLoad(file, time.Since(start), loadErr)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			timeoutErr := &LoadTimeoutError{Timeout: l.timeout, Pending: tracker.pending()}
			l.logger.ErrorContext(ctx, "data file load timed out", "timeout", l.timeout, "pending", timeoutErr.Pending)
			return nil, timeoutErr
		}
		return nil, fmt.Errorf("failed to load data files: %w", err)
	}

	ds := dataset.NewDataset(l.registry)
	result := &Result{Dataset: ds}
	for _, doc := range docs {
		if doc.failure != nil {
			l.logger.WarnContext(ctx, "data file unavailable", "file", doc.failure.File, "error", doc.failure.Err)
			result.Failures = append(result.Failures, doc.failure)
			continue
		}
		doc.apply(ds)
	}

	return result, nil
}

// loadFile reads and decodes one file. It only returns an error when the
// context ended; everything else is recorded on the document.
func (l *Loader) loadFile(ctx context.Context, kind dataset.Kind, file string) (*document, error) {
	path := filepath.Join(l.dir, file)

	data, err := dataset.ReadFile(ctx, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return &document{kind: kind, failure: &MalformedDocumentError{
			File:   file,
			Offset: -1,
			Err:    err,
		}}, nil
	}

	doc := decodeDocument(kind, file, data)
	if doc.failure == nil {
		l.logger.DebugContext(ctx, "data file loaded", "file", file, "bytes", len(data))
	}
	return doc, nil
}

type pendingTracker struct {
	mu    sync.Mutex
	files map[string]bool
}

func newPendingTracker() *pendingTracker {
	return &pendingTracker{files: make(map[string]bool)}
}

func (p *pendingTracker) add(file string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[file] = true
}

func (p *pendingTracker) done(file string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.files, file)
}

func (p *pendingTracker) pending() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.files))
	for f := range p.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
