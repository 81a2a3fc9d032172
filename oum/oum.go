package oum

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/drift"
	"github.com/katalvlaran/qpot/surface"
	"gonum.org/v1/gonum/mat"
)

// Solve computes the local quasi-potential anchored at the stable
// equilibrium (x0, y0) over dom.
//
// Preconditions and validation (in order):
//  1. field must be non-nil (drift.ErrNilDrift).
//  2. dom must be valid, and (x0, y0) strictly inside it with a non-boundary
//     nearest node (domain.ErrInvalidDomain via *domain.DomainError).
//  3. Options must be valid (ErrBadOption).
//
// The returned Local is Approximate, not failed, when the nearest node is
// more than half a cell from (x0, y0).
//
// Complexity: O(N·K²·log N) time, O(N) memory.
func Solve(ctx context.Context, field drift.Field, x0, y0 float64, dom domain.Domain, opts ...Option) (*Local, error) {
	ctx, span := startSolveSpan(ctx, dom, x0, y0)
	defer span.End()
	start := time.Now()

	local, err := solve(ctx, field, x0, y0, dom, opts)
	recordSolve(span, local, err, time.Since(start))

	return local, err
}

func solve(ctx context.Context, field drift.Field, x0, y0 float64, dom domain.Domain, opts []Option) (*Local, error) {
	// 1) Build and validate options.
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	// 2) Validate inputs in documented priority.
	if field == nil {
		return nil, drift.ErrNilDrift
	}
	seed, err := dom.ValidateStart(x0, y0)
	if err != nil {
		return nil, fmt.Errorf("oum: start (%g, %g): %w", x0, y0, err)
	}
	minv, err := validateOptions(cfg)
	if err != nil {
		return nil, err
	}

	// 3) Prepare the per-basin arena. Nothing here is shared with another run.
	r := newRunner(field, dom, cfg, minv)
	started := time.Now()

	// 4) Seed the front and run the main loop.
	if err = r.init(seed); err != nil {
		return nil, err
	}
	if err = r.process(ctx); err != nil {
		return nil, err
	}
	r.stats.Duration = time.Since(started)

	// 5) Freeze accepted values into the Local Surface.
	surf, err := surface.NewScalar(dom)
	if err != nil {
		return nil, err
	}
	for k, st := range r.status {
		if st == statusFront || st == statusAccepted {
			n := dom.NodeAt(k)
			if err = surf.Set(n.I, n.J, r.value[k]); err != nil {
				return nil, fmt.Errorf("oum: freezing node (%d,%d): %w", n.I, n.J, err)
			}
		}
	}

	sx, sy := dom.Point(seed)
	offset := math.Hypot(sx-x0, sy-y0)
	local := &Local{
		Surface:     surf,
		Equilibrium: [2]float64{x0, y0},
		Seed:        seed,
		SeedOffset:  offset,
		Approximate: offset > 0.5*math.Min(dom.HX(), dom.HY()),
		Stats:       r.stats,
		parents:     r.parent,
	}

	log := cfg.Logger
	if local.Approximate {
		log.Warn("oum: equilibrium is off-grid, result is approximate",
			"x", x0, "y", y0, "seed_i", seed.I, "seed_j", seed.J, "offset", offset)
	}
	log.Debug("oum: solve finished",
		"domain", dom.String(),
		"accepted", r.stats.Accepted,
		"one_point_updates", r.stats.OnePointUpdates,
		"triangle_updates", r.stats.TriangleUpdates,
		"boundary_hit", r.stats.BoundaryHit,
		"duration", r.stats.Duration)

	return local, nil
}

// validateOptions checks cfg and returns the inverse diffusion matrix
// {m11, m12, m22}.
func validateOptions(cfg Options) ([3]float64, error) {
	var inv [3]float64
	if cfg.UpdateRadius < 1 {
		return inv, fmt.Errorf("%w: update radius %d < 1", ErrBadOption, cfg.UpdateRadius)
	}
	if !(cfg.Tol > 0 && cfg.Tol <= 0.1) {
		return inv, fmt.Errorf("%w: tolerance %g not in (0, 0.1]", ErrBadOption, cfg.Tol)
	}
	if math.IsNaN(cfg.MaxValue) || cfg.MaxValue <= 0 {
		return inv, fmt.Errorf("%w: max value %g must be positive", ErrBadOption, cfg.MaxValue)
	}
	if cfg.CheckEvery < 1 {
		return inv, fmt.Errorf("%w: check interval %d < 1", ErrBadOption, cfg.CheckEvery)
	}
	if cfg.Conn != domain.Conn4 && cfg.Conn != domain.Conn8 {
		return inv, fmt.Errorf("%w: connectivity %d", ErrBadOption, cfg.Conn)
	}

	a11, a12, a22 := cfg.Diffusion[0], cfg.Diffusion[1], cfg.Diffusion[2]
	for _, v := range cfg.Diffusion {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return inv, fmt.Errorf("%w: diffusion entry %g", ErrBadOption, v)
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(mat.NewSymDense(2, []float64{a11, a12, a12, a22})); !ok {
		return inv, fmt.Errorf("%w: diffusion matrix is not positive definite", ErrBadOption)
	}
	var m mat.SymDense
	if err := chol.InverseTo(&m); err != nil {
		return inv, fmt.Errorf("%w: inverting diffusion matrix: %v", ErrBadOption, err)
	}
	inv = [3]float64{m.At(0, 0), m.At(0, 1), m.At(1, 1)}

	return inv, nil
}

// status is the per-node state. Accepted nodes are split into the front
// (still adjacent to a non-accepted node, used for updates) and the interior.
type status uint8

const (
	statusFar status = iota
	statusConsidered
	statusFront
	statusAccepted
)

// runner holds the mutable state for a single basin's solve.
type runner struct {
	field drift.Field
	dom   domain.Domain
	cfg   Options

	m11, m12, m22 float64   // inverse diffusion
	xs, ys        []float64 // node coordinates per axis

	value  []float64  // tentative or final Φ, +Inf when unknown
	status []status   // Far → Considered → Front → Accepted
	parent [][2]int32 // producing nodes, -1 when absent

	pq      nodePQ
	stencil [][2]int // offsets within UpdateRadius, origin excluded
	nbr     [][2]int // connectivity offsets

	// scratch for full updates: midpoint drift per stencil slot, keyed by a
	// generation stamp so it never needs clearing.
	stencilSlot []int // (dI+K)*(2K+1)+(dJ+K) → stencil index, -1 if outside
	mid         []surface.Vec2
	midStamp    []uint32
	stamp       uint32

	stats Stats
}

func newRunner(field drift.Field, dom domain.Domain, cfg Options, minv [3]float64) *runner {
	n := dom.Len()
	r := &runner{
		field:  field,
		dom:    dom,
		cfg:    cfg,
		m11:    minv[0],
		m12:    minv[1],
		m22:    minv[2],
		xs:     dom.X(),
		ys:     dom.Y(),
		value:  make([]float64, n),
		status: make([]status, n),
		parent: make([][2]int32, n),
		pq:     make(nodePQ, 0, 4*(dom.NX+dom.NY)),
		nbr:    domain.Offsets(cfg.Conn),
	}
	for k := range r.value {
		r.value[k] = math.Inf(1)
		r.parent[k] = [2]int32{-1, -1}
	}

	K := cfg.UpdateRadius
	side := 2*K + 1
	r.stencilSlot = make([]int, side*side)
	for k := range r.stencilSlot {
		r.stencilSlot[k] = -1
	}
	for dj := -K; dj <= K; dj++ {
		for di := -K; di <= K; di++ {
			if (di == 0 && dj == 0) || di*di+dj*dj > K*K {
				continue
			}
			r.stencilSlot[(di+K)*side+(dj+K)] = len(r.stencil)
			r.stencil = append(r.stencil, [2]int{di, dj})
		}
	}
	r.mid = make([]surface.Vec2, len(r.stencil))
	r.midStamp = make([]uint32, len(r.stencil))

	return r
}

// init accepts the seed with Φ = 0 and turns its neighbours Considered.
func (r *runner) init(seed domain.Node) error {
	s := r.dom.Index(seed)
	r.value[s] = 0
	r.status[s] = statusFront
	r.stats.Accepted = 1
	heap.Init(&r.pq)

	finite := 0
	for _, o := range r.nbr {
		i, j := seed.I+o[0], seed.J+o[1]
		if !r.dom.InBounds(i, j) {
			continue
		}
		k := j*r.dom.NX + i
		r.status[k] = statusConsidered
		r.fullUpdate(i, j)
		if !math.IsInf(r.value[k], 1) {
			finite++
			heap.Push(&r.pq, nodeItem{idx: k, val: r.value[k]})
		}
	}
	if finite == 0 {
		return fmt.Errorf("%w: no finite update around seed (%d,%d)", ErrDegenerateGeometry, seed.I, seed.J)
	}

	return nil
}

// process is the ordered main loop: always accept the globally minimal
// Considered value next.
func (r *runner) process(ctx context.Context) error {
	sinceCheck := 0
	for r.pq.Len() > 0 {
		item := heap.Pop(&r.pq).(nodeItem)
		k := item.idx

		// 1) Skip stale entries (lazy decrease-key).
		if r.status[k] != statusConsidered || item.val != r.value[k] {
			continue
		}

		// 2) MaxValue cut-off: leave k Considered, i.e. Undefined.
		if item.val > r.cfg.MaxValue {
			r.stats.MaxValueHit = true
			break
		}

		// 3) Accept.
		r.status[k] = statusFront
		r.stats.Accepted++
		n := r.dom.NodeAt(k)
		if r.cfg.StopAtBoundary && r.dom.OnBoundary(n) {
			r.stats.BoundaryHit = true
			break
		}
		r.retireFront(n)

		// 4) Re-examine Considered nodes near the new front node.
		r.relax(n)

		// 5) Far neighbours join the Considered set.
		for _, o := range r.nbr {
			i, j := n.I+o[0], n.J+o[1]
			if !r.dom.InBounds(i, j) {
				continue
			}
			q := j*r.dom.NX + i
			if r.status[q] != statusFar {
				continue
			}
			r.status[q] = statusConsidered
			r.fullUpdate(i, j)
			if !math.IsInf(r.value[q], 1) {
				heap.Push(&r.pq, nodeItem{idx: q, val: r.value[q]})
			}
		}

		sinceCheck++
		if sinceCheck >= r.cfg.CheckEvery {
			sinceCheck = 0
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}

	return nil
}

// retireFront demotes n and its accepted neighbours to the interior once
// all of their in-bounds neighbours are accepted.
func (r *runner) retireFront(n domain.Node) {
	r.maybeRetire(n.I, n.J)
	for _, o := range r.nbr {
		r.maybeRetire(n.I+o[0], n.J+o[1])
	}
}

func (r *runner) maybeRetire(i, j int) {
	if !r.dom.InBounds(i, j) {
		return
	}
	k := j*r.dom.NX + i
	if r.status[k] != statusFront {
		return
	}
	for _, o := range r.nbr {
		a, b := i+o[0], j+o[1]
		if !r.dom.InBounds(a, b) {
			continue
		}
		if st := r.status[b*r.dom.NX+a]; st != statusFront && st != statusAccepted {
			return
		}
	}
	r.status[k] = statusAccepted
}

// relax performs incremental updates of every Considered node within the
// update radius of the newly accepted node n, using only n and the
// front segments that end at n.
func (r *runner) relax(n domain.Node) {
	for _, off := range r.stencil {
		i, j := n.I+off[0], n.J+off[1]
		if !r.dom.InBounds(i, j) {
			continue
		}
		q := j*r.dom.NX + i
		if r.status[q] != statusConsidered {
			continue
		}
		if r.incrementalUpdate(i, j, n) {
			heap.Push(&r.pq, nodeItem{idx: q, val: r.value[q]})
		}
	}
}

// isFront reports whether (i,j) is an in-bounds accepted-front node.
func (r *runner) isFront(i, j int) bool {
	return r.dom.InBounds(i, j) && r.status[j*r.dom.NX+i] == statusFront
}

// withinRadius reports whether (di,dj) lies inside the update stencil.
func (r *runner) withinRadius(di, dj int) bool {
	K := r.cfg.UpdateRadius

	return di*di+dj*dj <= K*K
}

// offer records candidate c for node q if it improves the tentative value.
// Ties keep the earlier candidate, which makes results deterministic.
func (r *runner) offer(q int, c float64, p0, p1 int) bool {
	if math.IsNaN(c) || math.IsInf(c, 0) || c >= r.value[q] {
		return false
	}
	r.value[q] = c
	r.parent[q] = [2]int32{int32(p0), int32(p1)}

	return true
}
