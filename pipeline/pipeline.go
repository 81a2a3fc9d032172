package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/katalvlaran/qpot/decompose"
	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/drift"
	"github.com/katalvlaran/qpot/oum"
	"github.com/katalvlaran/qpot/stitch"
	"github.com/katalvlaran/qpot/surface"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoEquilibria indicates a problem without stable equilibria.
	ErrNoEquilibria = errors.New("pipeline: no equilibria")

	// ErrBadOption indicates invalid pipeline options.
	ErrBadOption = errors.New("pipeline: invalid option")
)

var tracer = otel.Tracer("qpot.pipeline")

// Problem is one quasi-potential computation.
type Problem struct {
	Domain     domain.Domain
	Field      drift.Field
	Equilibria [][2]float64 // stable equilibria; index k is basin k
	Saddles    []stitch.Saddle
}

// Result collects every stage's output.
type Result struct {
	Locals   []*oum.Local
	Global   *stitch.Global
	Fields   *decompose.Fields // nil when decomposition is disabled
	Warnings []error           // *decompose.NumericalWarning values
}

// Options configures Run.
type Options struct {
	MaxParallel   int // concurrent local solves; default GOMAXPROCS
	Solve         []oum.Option
	Stitch        []stitch.Option
	Decompose     []decompose.Option
	SkipDecompose bool
	Logger        *slog.Logger
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns GOMAXPROCS parallelism and slog.Default().
func DefaultOptions() Options {
	return Options{MaxParallel: runtime.GOMAXPROCS(0), Logger: slog.Default()}
}

// WithMaxParallel bounds the number of concurrent local solves.
func WithMaxParallel(n int) Option { return func(o *Options) { o.MaxParallel = n } }

// WithSolveOptions appends options for every local solve.
func WithSolveOptions(opts ...oum.Option) Option {
	return func(o *Options) { o.Solve = append(o.Solve, opts...) }
}

// WithStitchOptions appends options for the stitch stage.
func WithStitchOptions(opts ...stitch.Option) Option {
	return func(o *Options) { o.Stitch = append(o.Stitch, opts...) }
}

// WithDecomposeOptions appends options for the decomposition stage.
func WithDecomposeOptions(opts ...decompose.Option) Option {
	return func(o *Options) { o.Decompose = append(o.Decompose, opts...) }
}

// WithoutDecompose stops after stitching.
func WithoutDecompose() Option { return func(o *Options) { o.SkipDecompose = true } }

// WithLogger sets the logger handed to every stage. Stage options given
// explicitly still take precedence.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Run solves p. Any local solve error cancels the remaining solves and is
// returned wrapped with the basin index. Numerical warnings never fail the
// run; they are collected in Result.Warnings.
func Run(ctx context.Context, p Problem, opts ...Option) (*Result, error) {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := tracer.Start(ctx, "pipeline.Run",
		trace.WithAttributes(
			attribute.Int("pipeline.basins", len(p.Equilibria)),
			attribute.Int("pipeline.saddles", len(p.Saddles)),
			attribute.Int("pipeline.nx", p.Domain.NX),
			attribute.Int("pipeline.ny", p.Domain.NY),
		),
	)
	defer span.End()

	res, err := run(ctx, p, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("pipeline.warnings", len(res.Warnings)))

	return res, nil
}

func run(ctx context.Context, p Problem, cfg Options) (*Result, error) {
	// 1) Validate.
	if cfg.MaxParallel < 1 {
		return nil, fmt.Errorf("%w: max parallel %d < 1", ErrBadOption, cfg.MaxParallel)
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: nil logger", ErrBadOption)
	}
	if p.Field == nil {
		return nil, drift.ErrNilDrift
	}
	if len(p.Equilibria) == 0 {
		return nil, ErrNoEquilibria
	}
	if err := p.Domain.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	log := cfg.Logger
	res := &Result{Locals: make([]*oum.Local, len(p.Equilibria))}

	// 2) One local solve per basin, each into its own slot.
	started := time.Now()
	solveOpts := append([]oum.Option{oum.WithLogger(log)}, cfg.Solve...)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxParallel)
	for k, eq := range p.Equilibria {
		g.Go(func() error {
			l, err := oum.Solve(gctx, p.Field, eq[0], eq[1], p.Domain, solveOpts...)
			if err != nil {
				return fmt.Errorf("pipeline: basin %d at (%g, %g): %w", k, eq[0], eq[1], err)
			}
			res.Locals[k] = l

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	half := 0.5 * math.Min(p.Domain.HX(), p.Domain.HY())
	for k, l := range res.Locals {
		if l.Approximate {
			res.Warnings = append(res.Warnings, &decompose.NumericalWarning{
				Stage:  "oum",
				Detail: fmt.Sprintf("basin %d equilibrium lies off-grid, seeded at node (%d,%d)", k, l.Seed.I, l.Seed.J),
				Value:  l.SeedOffset,
				Limit:  half,
			})
		}
	}
	log.Debug("pipeline: local solves finished", "basins", len(res.Locals), "duration", time.Since(started))

	// 3) Stitch.
	surfaces := make([]*surface.Scalar, len(res.Locals))
	for k, l := range res.Locals {
		surfaces[k] = l.Surface
	}
	stitchOpts := append([]stitch.Option{stitch.WithLogger(log)}, cfg.Stitch...)
	global, err := stitch.Stitch(ctx, surfaces, p.Saddles, p.Domain, stitchOpts...)
	if err != nil {
		return nil, err
	}
	res.Global = global
	log.Debug("pipeline: stitched", "offsets", global.Offsets, "policy", global.Policy)

	// 4) Decompose.
	if !cfg.SkipDecompose {
		decOpts := append([]decompose.Option{decompose.WithLogger(log)}, cfg.Decompose...)
		fields, err := decompose.Decompose(ctx, global.Surface, p.Field, p.Domain, decOpts...)
		if err != nil {
			return nil, err
		}
		res.Fields = fields
		res.Warnings = append(res.Warnings, fields.Warnings...)
	}
	log.Debug("pipeline: finished", "warnings", len(res.Warnings), "duration", time.Since(started))

	return res, nil
}
