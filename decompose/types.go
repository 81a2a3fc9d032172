package decompose

import (
	"log/slog"
	"runtime"

	"github.com/katalvlaran/qpot/surface"
)

// Options configures Decompose.
type Options struct {
	// Epsilon is the relative orthogonality tolerance. Default 0.1.
	Epsilon float64

	// Delta is the absolute slack; a negative value selects h², where h is
	// the larger mesh spacing. Default -1.
	Delta float64

	// MaxViolationFraction is the share of checked nodes that may violate
	// orthogonality before a warning is raised. Default 0.05.
	MaxViolationFraction float64

	// Workers bounds row parallelism. Default GOMAXPROCS.
	Workers int

	Logger *slog.Logger
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the defaults documented on Options.
func DefaultOptions() Options {
	return Options{
		Epsilon:              0.1,
		Delta:                -1,
		MaxViolationFraction: 0.05,
		Workers:              runtime.GOMAXPROCS(0),
		Logger:               slog.Default(),
	}
}

// WithEpsilon sets the relative orthogonality tolerance.
func WithEpsilon(eps float64) Option { return func(o *Options) { o.Epsilon = eps } }

// WithDelta sets the absolute slack. Negative selects h².
func WithDelta(delta float64) Option { return func(o *Options) { o.Delta = delta } }

// WithViolationFraction sets the warning threshold.
func WithViolationFraction(f float64) Option {
	return func(o *Options) { o.MaxViolationFraction = f }
}

// WithWorkers bounds row parallelism.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Report summarises the orthogonality check.
type Report struct {
	Checked    int     // nodes with centred differences on both axes
	Violations int     // nodes failing |g·r| < ε(|g||r|+δ)
	Scored     int     // checked nodes with |g||r| > δ
	MaxCosine  float64 // max |g·r|/(|g||r|) over scored nodes
	MeanCosine float64 // mean of the same
}

// Fraction returns Violations/Checked, or 0 when nothing was checked.
func (r Report) Fraction() float64 {
	if r.Checked == 0 {
		return 0
	}

	return float64(r.Violations) / float64(r.Checked)
}

// Fields holds the three vector fields of the decomposition.
type Fields struct {
	Drift     *surface.VectorField // b sampled at every node
	Gradient  *surface.VectorField // −∇Φ where Φ is differentiable
	Remainder *surface.VectorField // b − (−∇Φ)
	Report    Report
	Warnings  []error
}
