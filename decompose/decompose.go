package decompose

import (
	"context"
	"fmt"
	"math"

	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/drift"
	"github.com/katalvlaran/qpot/surface"
	"golang.org/x/sync/errgroup"
)

// Decompose samples field on dom and splits it against the quasi-potential
// surf.
//
// Validation order: ErrNilSurface, drift.ErrNilDrift, dom validity,
// ErrDomainMismatch, ErrBadOption.
//
// Complexity: O(N) drift evaluations and O(N) memory.
func Decompose(ctx context.Context, surf *surface.Scalar, field drift.Field, dom domain.Domain, opts ...Option) (*Fields, error) {
	ctx, span := startDecomposeSpan(ctx, dom)
	defer span.End()

	f, err := decompose(ctx, surf, field, dom, opts)
	recordDecompose(span, f, err)

	return f, err
}

// rowReport accumulates per-row orthogonality statistics.
type rowReport struct {
	checked, violations int
	scored              int
	maxCos, sumCos      float64
}

func decompose(ctx context.Context, surf *surface.Scalar, field drift.Field, dom domain.Domain, opts []Option) (*Fields, error) {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}

	// 1) Validate inputs, then options.
	if surf == nil {
		return nil, ErrNilSurface
	}
	if field == nil {
		return nil, drift.ErrNilDrift
	}
	if err := dom.Validate(); err != nil {
		return nil, fmt.Errorf("decompose: %w", err)
	}
	if !surf.Domain().Equal(dom) {
		return nil, fmt.Errorf("%w: surface on %s, want %s", ErrDomainMismatch, surf.Domain(), dom)
	}
	if err := validateOptions(cfg); err != nil {
		return nil, err
	}
	delta := cfg.Delta
	if delta < 0 {
		h := math.Max(dom.HX(), dom.HY())
		delta = h * h
	}

	// 2) Allocate outputs. Workers write disjoint rows.
	out := &Fields{}
	var err error
	if out.Drift, err = surface.NewVectorField(dom); err != nil {
		return nil, err
	}
	if out.Gradient, err = surface.NewVectorField(dom); err != nil {
		return nil, err
	}
	if out.Remainder, err = surface.NewVectorField(dom); err != nil {
		return nil, err
	}
	rows := make([]rowReport, dom.NY)
	xs, ys := dom.X(), dom.Y()

	// 3) Row-parallel sampling, differencing and checking.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for j := 0; j < dom.NY; j++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep := &rows[j]
			for i := 0; i < dom.NX; i++ {
				f1, f2 := field.Eval(xs[i], ys[j])
				b := surface.Vec2{X: f1, Y: f2}
				if !finite(b) {
					continue
				}
				if err := out.Drift.Set(i, j, b); err != nil {
					return err
				}

				grad, centred, ok := gradient(surf, dom, i, j)
				if !ok {
					continue
				}
				gv := grad.Scale(-1)
				r := b.Sub(gv)
				if err := out.Gradient.Set(i, j, gv); err != nil {
					return err
				}
				if err := out.Remainder.Set(i, j, r); err != nil {
					return err
				}
				if !centred {
					continue
				}

				dot := math.Abs(gv.Dot(r))
				prod := gv.Norm() * r.Norm()
				rep.checked++
				if dot >= cfg.Epsilon*(prod+delta) {
					rep.violations++
				}
				if prod > delta && prod > 0 {
					c := dot / prod
					rep.scored++
					rep.sumCos += c
					rep.maxCos = math.Max(rep.maxCos, c)
				}
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 4) Reduce row reports in row order.
	var sum float64
	for _, r := range rows {
		out.Report.Checked += r.checked
		out.Report.Violations += r.violations
		out.Report.Scored += r.scored
		out.Report.MaxCosine = math.Max(out.Report.MaxCosine, r.maxCos)
		sum += r.sumCos
	}
	if out.Report.Scored > 0 {
		out.Report.MeanCosine = sum / float64(out.Report.Scored)
	}

	if frac := out.Report.Fraction(); frac > cfg.MaxViolationFraction {
		w := &NumericalWarning{
			Stage:  "decompose",
			Detail: fmt.Sprintf("%d of %d nodes violate gradient/remainder orthogonality", out.Report.Violations, out.Report.Checked),
			Value:  frac,
			Limit:  cfg.MaxViolationFraction,
		}
		out.Warnings = append(out.Warnings, w)
		cfg.Logger.Warn("decompose: orthogonality check failed",
			"checked", out.Report.Checked,
			"violations", out.Report.Violations,
			"fraction", frac,
			"max_cosine", out.Report.MaxCosine)
	}
	cfg.Logger.Debug("decompose: finished",
		"domain", dom.String(),
		"gradient_nodes", out.Gradient.Count(),
		"checked", out.Report.Checked,
		"mean_cosine", out.Report.MeanCosine)

	return out, nil
}

func validateOptions(cfg Options) error {
	if !(cfg.Epsilon > 0) || math.IsInf(cfg.Epsilon, 0) {
		return fmt.Errorf("%w: epsilon %g must be positive", ErrBadOption, cfg.Epsilon)
	}
	if math.IsNaN(cfg.Delta) || math.IsInf(cfg.Delta, 0) {
		return fmt.Errorf("%w: delta %g", ErrBadOption, cfg.Delta)
	}
	if !(cfg.MaxViolationFraction >= 0 && cfg.MaxViolationFraction <= 1) {
		return fmt.Errorf("%w: violation fraction %g not in [0, 1]", ErrBadOption, cfg.MaxViolationFraction)
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("%w: workers %d < 1", ErrBadOption, cfg.Workers)
	}
	if cfg.Logger == nil {
		return fmt.Errorf("%w: nil logger", ErrBadOption)
	}

	return nil
}

// gradient returns ∇Φ at (i,j). centred reports whether both axes used
// centred differences; ok is false when Φ is undefined at (i,j) or along
// some axis neither neighbour is defined.
func gradient(s *surface.Scalar, dom domain.Domain, i, j int) (grad surface.Vec2, centred, ok bool) {
	v, ok := s.At(i, j)
	if !ok {
		return surface.Vec2{}, false, false
	}
	dx, cx, okx := partial(s, v, i, j, 1, 0, dom.HX())
	dy, cy, oky := partial(s, v, i, j, 0, 1, dom.HY())
	if !okx || !oky {
		return surface.Vec2{}, false, false
	}

	return surface.Vec2{X: dx, Y: dy}, cx && cy, true
}

// partial differentiates along (di,dj) with spacing h.
func partial(s *surface.Scalar, v float64, i, j, di, dj int, h float64) (d float64, centred, ok bool) {
	fwd, okf := s.At(i+di, j+dj)
	bwd, okb := s.At(i-di, j-dj)
	switch {
	case okf && okb:
		return (fwd - bwd) / (2 * h), true, true
	case okf:
		return (fwd - v) / h, false, true
	case okb:
		return (v - bwd) / h, false, true
	default:
		return 0, false, false
	}
}

func finite(v surface.Vec2) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
