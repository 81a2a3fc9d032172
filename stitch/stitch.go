package stitch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/surface"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Stitch aligns the local surfaces at the given saddles and merges them by
// pointwise minimum into one global surface over dom.
//
// locals[k] is the surface anchored at basin k. Validation order:
// ErrBadOption, ErrNoSurfaces, dom validity, ErrDomainMismatch, then
// saddle resolution (*AlignmentError).
//
// A single surface with no saddles is returned unchanged (cloned) with
// offset zero.
//
// Complexity: O(S·(K·T²) + N·K) where S saddles, K surfaces, T tolerance.
func Stitch(ctx context.Context, locals []*surface.Scalar, saddles []Saddle, dom domain.Domain, opts ...Option) (*Global, error) {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, span := startStitchSpan(ctx, len(locals), len(saddles), cfg)
	defer span.End()

	g, err := stitch(ctx, locals, saddles, dom, cfg)
	recordStitch(span, cfg, g, err)

	return g, err
}

func stitch(ctx context.Context, locals []*surface.Scalar, saddles []Saddle, dom domain.Domain, cfg Options) (*Global, error) {
	// 1) Validate options and inputs.
	if cfg.Policy == nil {
		return nil, fmt.Errorf("%w: nil policy", ErrBadOption)
	}
	if cfg.Tolerance < 0 {
		return nil, fmt.Errorf("%w: tolerance %d < 0", ErrBadOption, cfg.Tolerance)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("%w: workers %d < 1", ErrBadOption, cfg.Workers)
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: nil logger", ErrBadOption)
	}
	if len(locals) == 0 {
		return nil, ErrNoSurfaces
	}
	if err := dom.Validate(); err != nil {
		return nil, fmt.Errorf("stitch: %w", err)
	}
	for k, s := range locals {
		if s == nil {
			return nil, fmt.Errorf("%w: surface %d is nil", ErrDomainMismatch, k)
		}
		if !s.Domain().Equal(dom) {
			return nil, fmt.Errorf("%w: surface %d on %s, want %s", ErrDomainMismatch, k, s.Domain(), dom)
		}
	}

	// 2) Identity case.
	if len(locals) == 1 && len(saddles) == 0 {
		return identity(locals[0], dom, cfg.Policy.Name()), nil
	}

	// 3) Resolve every saddle into a constraint.
	cs := make([]Constraint, len(saddles))
	for s, sd := range saddles {
		c, err := resolve(s, sd, locals, dom, cfg.Tolerance)
		if err != nil {
			return nil, err
		}
		cs[s] = c
	}

	// 4) Every basin must be linked to basin 0.
	sets := newDisjointSet(len(locals))
	for _, c := range cs {
		sets.union(c.A, c.B)
	}
	if sets.components() > 1 {
		for k := range locals {
			if sets.find(k) != sets.find(0) {
				return nil, &AlignmentError{Saddle: -1, Reason: fmt.Sprintf("no saddle links basin %d to basin 0", k)}
			}
		}
	}

	// 5) Offsets, normalised to a zero minimum.
	off, err := cfg.Policy.Offsets(len(locals), cs)
	if err != nil {
		return nil, err
	}
	if len(off) != len(locals) {
		return nil, fmt.Errorf("stitch: policy %s returned %d offsets for %d surfaces", cfg.Policy.Name(), len(off), len(locals))
	}
	floats.AddConst(-floats.Min(off), off)

	disc := make([]float64, len(cs))
	for s, c := range cs {
		disc[s] = math.Abs(off[c.A] + c.PhiA - off[c.B] - c.PhiB)
	}

	// 6) Pointwise minimum, row-parallel.
	surf, owner, err := merge(ctx, locals, off, dom, cfg.Workers)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Debug("stitch: merged",
		"surfaces", len(locals),
		"saddles", len(saddles),
		"policy", cfg.Policy.Name(),
		"max_discontinuity", maxOrZero(disc),
		"defined", surf.Count())

	return &Global{
		Surface:       surf,
		Offsets:       off,
		Basin:         owner,
		Constraints:   cs,
		Discontinuity: disc,
		Policy:        cfg.Policy.Name(),
	}, nil
}

func identity(s *surface.Scalar, dom domain.Domain, policy string) *Global {
	owner := make([]int, dom.Len())
	for k := range owner {
		n := dom.NodeAt(k)
		owner[k] = -1
		if s.Defined(n.I, n.J) {
			owner[k] = 0
		}
	}

	return &Global{Surface: s.Clone(), Offsets: []float64{0}, Basin: owner, Policy: policy}
}

// resolve picks the two basins joined by saddle s and their raw values.
func resolve(s int, sd Saddle, locals []*surface.Scalar, dom domain.Domain, tol int) (Constraint, error) {
	fail := func(adj []int, format string, args ...any) error {
		return &AlignmentError{Saddle: s, X: sd.X, Y: sd.Y, Adjacent: adj, Reason: fmt.Sprintf(format, args...)}
	}
	if math.IsNaN(sd.X) || math.IsNaN(sd.Y) || !dom.Contains(sd.X, sd.Y) {
		return Constraint{}, fail(nil, "saddle lies outside %s", dom)
	}
	n := dom.Nearest(sd.X, sd.Y)

	var pair [2]int
	switch len(sd.Basins) {
	case 2:
		a, b := sd.Basins[0], sd.Basins[1]
		if a < 0 || a >= len(locals) || b < 0 || b >= len(locals) || a == b {
			return Constraint{}, fail(nil, "invalid basin pair %v for %d surfaces", sd.Basins, len(locals))
		}
		for _, k := range sd.Basins {
			if !definedAround(locals[k], n, dom, tol) {
				return Constraint{}, fail(nil, "surface %d undefined within %d cells of saddle node (%d,%d)", k, tol, n.I, n.J)
			}
		}
		pair = [2]int{a, b}
	case 0:
		adj := adjacent(locals, n, dom, tol)
		if len(adj) < 2 {
			return Constraint{}, fail(adj, "need two adjacent basins within %d cells, found %d", tol, len(adj))
		}
		pair = [2]int{adj[0], adj[1]}
	default:
		return Constraint{}, fail(nil, "basins must name exactly two surfaces, got %v", sd.Basins)
	}

	if pair[0] > pair[1] {
		pair[0], pair[1] = pair[1], pair[0]
	}
	pa, _ := locals[pair[0]].AtNode(n)
	pb, _ := locals[pair[1]].AtNode(n)

	return Constraint{Saddle: s, A: pair[0], B: pair[1], PhiA: pa, PhiB: pb}, nil
}

// adjacent lists surfaces defined on the whole (2·tol+1)² block around n,
// sorted by raw value at n, ties by index.
func adjacent(locals []*surface.Scalar, n domain.Node, dom domain.Domain, tol int) []int {
	var out []int
	for k, s := range locals {
		if definedAround(s, n, dom, tol) {
			out = append(out, k)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, _ := locals[out[i]].AtNode(n)
		vj, _ := locals[out[j]].AtNode(n)

		return vi < vj
	})

	return out
}

func definedAround(s *surface.Scalar, n domain.Node, dom domain.Domain, tol int) bool {
	for dj := -tol; dj <= tol; dj++ {
		for di := -tol; di <= tol; di++ {
			i, j := n.I+di, n.J+dj
			if dom.InBounds(i, j) && !s.Defined(i, j) {
				return false
			}
		}
	}

	return true
}

// merge computes min_k(Φ_k + o_k) per node. Rows are split across workers;
// each worker writes a disjoint band of the scratch slices.
func merge(ctx context.Context, locals []*surface.Scalar, off []float64, dom domain.Domain, workers int) (*surface.Scalar, []int, error) {
	vals := make([]float64, dom.Len())
	owner := make([]int, dom.Len())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for j := 0; j < dom.NY; j++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := 0; i < dom.NX; i++ {
				k := j*dom.NX + i
				best, who := math.Inf(1), -1
				for b, s := range locals {
					v, ok := s.At(i, j)
					if !ok {
						continue
					}
					if v += off[b]; v < best {
						best, who = v, b
					}
				}
				vals[k], owner[k] = best, who
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	surf, err := surface.NewScalar(dom)
	if err != nil {
		return nil, nil, err
	}
	for k, who := range owner {
		if who < 0 {
			continue
		}
		n := dom.NodeAt(k)
		if err := surf.Set(n.I, n.J, vals[k]); err != nil {
			return nil, nil, fmt.Errorf("stitch: merging node (%d,%d): %w", n.I, n.J, err)
		}
	}

	return surf, owner, nil
}

func maxOrZero(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	return floats.Max(xs)
}

// IsAlignment reports whether err is an alignment failure and returns it.
func IsAlignment(err error) (*AlignmentError, bool) {
	var ae *AlignmentError
	ok := errors.As(err, &ae)

	return ae, ok
}
