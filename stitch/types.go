package stitch

import (
	"log/slog"
	"runtime"

	"github.com/katalvlaran/qpot/surface"
)

// Saddle is a separatrix point used to align two basins. Basins optionally
// names the two local-surface indices it joins; empty means auto-detect.
type Saddle struct {
	X, Y   float64
	Basins []int
}

// Constraint is a resolved saddle: o_A + PhiA = o_B + PhiB.
type Constraint struct {
	Saddle     int
	A, B       int
	PhiA, PhiB float64
}

// Barrier returns the mean raw barrier height of the constraint.
func (c Constraint) Barrier() float64 { return 0.5 * (c.PhiA + c.PhiB) }

// Options configures Stitch.
type Options struct {
	Policy    Policy       // offset rule; default SpanningTree{}
	Tolerance int          // adjacency radius in cells; default 1
	Workers   int          // merge parallelism; default GOMAXPROCS
	Logger    *slog.Logger // default slog.Default()
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the defaults listed on Options.
func DefaultOptions() Options {
	return Options{
		Policy:    SpanningTree{},
		Tolerance: 1,
		Workers:   runtime.GOMAXPROCS(0),
		Logger:    slog.Default(),
	}
}

// WithPolicy selects the offset policy.
func WithPolicy(p Policy) Option { return func(o *Options) { o.Policy = p } }

// WithTolerance sets the adjacency radius in cells.
func WithTolerance(cells int) Option { return func(o *Options) { o.Tolerance = cells } }

// WithWorkers bounds merge parallelism.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Global is the stitched quasi-potential.
type Global struct {
	Surface *surface.Scalar

	// Offsets[k] is added to local surface k. The minimum is zero.
	Offsets []float64

	// Basin holds, per row-major node, the index of the surface that
	// attains the minimum there, or -1 when the node is undefined.
	Basin []int

	// Constraints are the resolved saddles in input order.
	Constraints []Constraint

	// Discontinuity[s] is |o_A+Φ_A(s) − o_B−Φ_B(s)| for saddle s after
	// alignment. Zero on spanning-tree edges.
	Discontinuity []float64

	// Policy names the policy that produced Offsets.
	Policy string
}
