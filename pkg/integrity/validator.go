package integrity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"gruncellka/porto/pkg/dataset"
	"gruncellka/porto/pkg/dataset/loader"
	"gruncellka/porto/pkg/integrity/cycles"
	"gruncellka/porto/pkg/integrity/findings"
	"gruncellka/porto/pkg/integrity/links"
	"gruncellka/porto/pkg/integrity/model"
	"gruncellka/porto/pkg/integrity/report"
	"gruncellka/porto/pkg/integrity/resolver"
	"gruncellka/porto/pkg/integrity/units"
	"gruncellka/porto/pkg/manifest"
	"gruncellka/porto/pkg/metadata"
)

// ErrNoDataDir is returned when the validator is configured without a data
// directory.
var ErrNoDataDir = errors.New("data directory is required")

// Recorder observes a validation run. It is implemented by the metrics
// package.
type Recorder interface {
	loader.Observer
	ObserveRun(r report.Report, duration time.Duration)
}

// Config configures a Validator.
type Config struct {
	// DataDir holds the data files and the manifest.
	DataDir string

	// Registry maps entity kinds to file names. Nil uses the defaults.
	Registry *dataset.Registry

	// LoadTimeout bounds reading all files. Zero means no bound.
	LoadTimeout time.Duration

	// Analyze keeps informational notices in the report.
	Analyze bool

	// MetadataFile, when set, is checked for stale checksums.
	MetadataFile string

	Options model.Options
}

// Option configures optional Validator collaborators.
type Option func(*Validator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Validator) { v.logger = logger }
}

// WithRecorder sets the run recorder.
func WithRecorder(r Recorder) Option {
	return func(v *Validator) { v.recorder = r }
}

// Validator runs the integrity pipeline:
// Load → Resolve → {links, cycles, units} → Report.
type Validator struct {
	cfg      Config
	logger   *slog.Logger
	recorder Recorder
}

// NewValidator creates a validator.
func NewValidator(cfg Config, opts ...Option) (*Validator, error) {
	if cfg.DataDir == "" {
		return nil, ErrNoDataDir
	}
	if cfg.Registry == nil {
		cfg.Registry = dataset.DefaultRegistry()
	}

	v := &Validator{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate runs one validation pass. The only error it returns is a
// *loader.LoadTimeoutError or a cancellation of ctx; every data problem is
// a finding in the report.
func (v *Validator) Validate(ctx context.Context) (report.Report, error) {
	start := time.Now()

	loaded, err := v.load(ctx)
	if err != nil {
		return report.Report{}, err
	}

	m, err := model.New(loaded.dataset, loaded.manifest, v.cfg.Options)
	if err != nil {
		return report.Report{}, err
	}

	res := resolver.Resolve(m)

	var linkFindings, cycleFindings, unitFindings, metaFindings *findings.List
	var g errgroup.Group
	g.Go(func() error {
		linkFindings = links.NewChecker().Check(m, res)
		return nil
	})
	g.Go(func() error {
		cycleFindings = cycles.NewDetector().Check(m)
		return nil
	})
	g.Go(func() error {
		unitFindings = units.NewChecker().Check(m)
		return nil
	})
	g.Go(func() error {
		if v.cfg.MetadataFile != "" {
			metaFindings = metadata.NewVerifier(v.cfg.MetadataFile).Verify(ctx)
		}
		return nil
	})
	_ = g.Wait()

	rep := report.Build(v.cfg.Analyze,
		loaded.findings,
		res.Findings(),
		linkFindings,
		cycleFindings,
		unitFindings,
		metaFindings,
	)

	duration := time.Since(start)
	v.logger.InfoContext(ctx, "validation finished",
		"passed", rep.Passed,
		"errors", rep.ErrorCount(),
		"notices", rep.NoticeCount(),
		"as_of", m.AsOf.String(),
		"duration", duration,
	)
	if v.recorder != nil {
		v.recorder.ObserveRun(rep, duration)
	}

	return rep, nil
}

type loadResult struct {
	dataset  *dataset.Dataset
	manifest *manifest.Manifest
	findings *findings.List
}

// load reads the data files and the manifest concurrently under the load
// timeout. Per-file failures become findings; only the timeout is fatal.
func (v *Validator) load(ctx context.Context) (*loadResult, error) {
	if v.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.cfg.LoadTimeout)
		defer cancel()
	}

	opts := []loader.Option{
		loader.WithLogger(v.logger),
		loader.WithTimeout(v.cfg.LoadTimeout),
	}
	if v.recorder != nil {
		opts = append(opts, loader.WithObserver(v.recorder))
	}
	l := loader.New(v.cfg.DataDir, v.cfg.Registry, opts...)

	var (
		data     *loader.Result
		man      *manifest.Manifest
		shapeErr *manifest.ManifestShapeError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = l.Load(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		man, err = manifest.Load(gctx, v.cfg.DataDir, v.cfg.Registry)
		if err == nil {
			return nil
		}
		if errors.As(err, &shapeErr) {
			v.logger.WarnContext(gctx, "manifest unusable", "file", shapeErr.File, "error", err)
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return &loader.LoadTimeoutError{
				Timeout: v.cfg.LoadTimeout,
				Pending: []string{v.cfg.Registry.File(dataset.KindManifest)},
			}
		}
		return fmt.Errorf("failed to load manifest: %w", err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	list := findings.NewList()
	for _, failure := range data.Failures {
		list.Add(malformedFinding(failure))
	}
	if shapeErr != nil {
		for _, f := range shapeFindings(shapeErr) {
			list.Add(f)
		}
	}

	return &loadResult{dataset: data.Dataset, manifest: man, findings: list}, nil
}

func malformedFinding(e *loader.MalformedDocumentError) findings.Finding {
	return findings.Finding{
		Kind:     findings.KindMalformedDocument,
		Severity: findings.SeverityError,
		File:     e.File,
		Field:    e.Section,
		Found:    e.Position(),
		Message:  e.Error(),
	}
}

func shapeFindings(e *manifest.ManifestShapeError) []findings.Finding {
	if len(e.Problems) == 0 {
		return []findings.Finding{{
			Kind:     findings.KindManifestShape,
			Severity: findings.SeverityError,
			File:     e.File,
			Message:  e.Error(),
		}}
	}

	out := make([]findings.Finding, 0, len(e.Problems))
	for _, p := range e.Problems {
		out = append(out, findings.Finding{
			Kind:     findings.KindManifestShape,
			Severity: findings.SeverityError,
			File:     e.File,
			Field:    p.Path,
			Found:    p.Value,
			Message:  p.Reason,
		})
	}
	return out
}
