package oum

import (
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/surface"
)

// Sentinel errors returned by Solve.
var (
	// ErrBadOption indicates an invalid solver configuration.
	ErrBadOption = errors.New("oum: invalid option")

	// ErrDegenerateGeometry indicates that no finite local update could be
	// formed around the seed, so the front cannot start.
	ErrDegenerateGeometry = errors.New("oum: degenerate geometry")
)

// Options configures Solve.
//
// UpdateRadius   – radius, in cells, of the accepted-front neighbourhood
// used to update a node. Must be ≥ 1. Default 5.
// Conn           – connectivity used to grow the Considered set and to
// pair front nodes into triangle edges. Default domain.Conn8.
// StopAtBoundary – stop the instant an accepted node lies on the domain
// edge. Default true.
// MaxValue       – stop once the next value to accept exceeds it.
// Default +Inf.
// Tol            – golden-section tolerance on λ. Must lie in (0, 0.1].
// Default 1e-6.
// Diffusion      – symmetric matrix A as {a11, a12, a22}. Must be positive
// definite. Default identity.
// CheckEvery     – acceptances between context checks. Default 4096.
type Options struct {
	UpdateRadius   int
	Conn           domain.Connectivity
	StopAtBoundary bool
	MaxValue       float64
	Tol            float64
	Diffusion      [3]float64
	CheckEvery     int
	Logger         *slog.Logger
}

// Option represents a functional option for configuring Solve.
type Option func(*Options)

// DefaultOptions returns the solver defaults.
func DefaultOptions() Options {
	return Options{
		UpdateRadius:   5,
		Conn:           domain.Conn8,
		StopAtBoundary: true,
		MaxValue:       math.Inf(1),
		Tol:            1e-6,
		Diffusion:      [3]float64{1, 0, 1},
		CheckEvery:     4096,
		Logger:         slog.Default(),
	}
}

// WithUpdateRadius sets the update radius K in cells.
func WithUpdateRadius(k int) Option {
	return func(o *Options) { o.UpdateRadius = k }
}

// WithConnectivity selects Conn4 or Conn8 neighbourhoods.
func WithConnectivity(c domain.Connectivity) Option {
	return func(o *Options) { o.Conn = c }
}

// WithStopAtBoundary toggles early termination when the front reaches the
// domain edge. With false the front expands until the Considered set empties.
func WithStopAtBoundary(stop bool) Option {
	return func(o *Options) { o.StopAtBoundary = stop }
}

// WithMaxValue stops the expansion once the next value exceeds max.
func WithMaxValue(max float64) Option {
	return func(o *Options) { o.MaxValue = max }
}

// WithTolerance sets the golden-section tolerance.
func WithTolerance(tol float64) Option {
	return func(o *Options) { o.Tol = tol }
}

// WithDiffusion sets an anisotropic diffusion matrix [[a11 a12] [a12 a22]].
func WithDiffusion(a11, a12, a22 float64) Option {
	return func(o *Options) { o.Diffusion = [3]float64{a11, a12, a22} }
}

// WithCheckEvery sets how many acceptances pass between ctx checks.
func WithCheckEvery(n int) Option {
	return func(o *Options) { o.CheckEvery = n }
}

// WithLogger sets the structured logger. A nil logger keeps the default.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// Stats summarises one solve.
type Stats struct {
	Accepted            int           // nodes finalised
	OnePointUpdates     int           // one-point candidates evaluated
	TriangleUpdates     int           // triangle minimisations performed
	DegenerateTriangles int           // colinear triangles skipped
	DriftEvals          int           // calls into the drift field
	BoundaryHit         bool          // front touched the domain edge
	MaxValueHit         bool          // stopped on MaxValue
	Duration            time.Duration // wall time of the run
}

// Local is the finalised quasi-potential of one basin. It is read-only
// once returned; the Stitcher and Decomposer never mutate it.
type Local struct {
	// Surface holds Φ on accepted nodes; every other node is Undefined.
	Surface *surface.Scalar
	// Equilibrium is the coordinate the run was anchored to.
	Equilibrium [2]float64
	// Seed is the node the front started from (Φ = 0 there).
	Seed domain.Node
	// SeedOffset is the distance between Equilibrium and the seed node.
	SeedOffset float64
	// Approximate is set when SeedOffset exceeds half the smaller cell width.
	Approximate bool
	// Stats describes the run.
	Stats Stats

	parents [][2]int32
}

// Parents returns the accepted nodes that produced the final value at n:
// none for the seed and unreached nodes, one for a one-point update, two
// for a triangle update. Debugging aid only.
func (l *Local) Parents(n domain.Node) []domain.Node {
	dom := l.Surface.Domain()
	if !dom.InBounds(n.I, n.J) || l.parents == nil {
		return nil
	}
	p := l.parents[dom.Index(n)]
	var out []domain.Node
	for _, k := range p {
		if k >= 0 {
			out = append(out, dom.NodeAt(int(k)))
		}
	}

	return out
}
