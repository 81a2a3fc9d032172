package oum

import (
	"math"

	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/surface"
)

// invPhi is 1/φ, the golden-section contraction factor.
const invPhi = 0.6180339887498949

// eval samples the drift field and counts the call.
func (r *runner) eval(x, y float64) surface.Vec2 {
	r.stats.DriftEvals++
	f1, f2 := r.field.Eval(x, y)

	return surface.Vec2{X: f1, Y: f2}
}

// action returns ½(|b|ₘ|d|ₘ − ⟨b,d⟩ₘ) under the inverse diffusion metric.
func (r *runner) action(b surface.Vec2, dx, dy float64) float64 {
	bb := r.m11*b.X*b.X + 2*r.m12*b.X*b.Y + r.m22*b.Y*b.Y
	dd := r.m11*dx*dx + 2*r.m12*dx*dy + r.m22*dy*dy
	bd := r.m11*b.X*dx + r.m12*(b.X*dy+b.Y*dx) + r.m22*b.Y*dy

	return math.Max(0, 0.5*(math.Sqrt(bb*dd)-bd))
}

// midDrift returns the drift at the midpoint between (px,py) and node
// (a,b), cached in stencil slot s for the current full update.
func (r *runner) midDrift(s int, px, py float64, a, b int) surface.Vec2 {
	if r.midStamp[s] == r.stamp {
		return r.mid[s]
	}
	v := r.eval(0.5*(px+r.xs[a]), 0.5*(py+r.ys[b]))
	r.mid[s] = v
	r.midStamp[s] = r.stamp

	return v
}

// fullUpdate computes the tentative value of Considered node (i,j) from
// every accepted-front node and front segment inside its update radius.
func (r *runner) fullUpdate(i, j int) {
	q := j*r.dom.NX + i
	px, py := r.xs[i], r.ys[j]
	K := r.cfg.UpdateRadius
	side := 2*K + 1

	r.stamp++
	if r.stamp == 0 {
		clear(r.midStamp)
		r.stamp = 1
	}

	for s, off := range r.stencil {
		a, b := i+off[0], j+off[1]
		if !r.isFront(a, b) {
			continue
		}
		k0 := b*r.dom.NX + a
		b0 := r.midDrift(s, px, py, a, b)
		r.stats.OnePointUpdates++
		r.offer(q, r.value[k0]+r.action(b0, px-r.xs[a], py-r.ys[b]), k0, -1)

		for _, o := range r.nbr {
			a1, b1 := a+o[0], b+o[1]
			if !r.isFront(a1, b1) {
				continue
			}
			k1 := b1*r.dom.NX + a1
			// each front segment once: from its lower-index end
			if k1 <= k0 || !r.withinRadius(a1-i, b1-j) {
				continue
			}
			s1 := r.stencilSlot[(a1-i+K)*side+(b1-j+K)]
			bv1 := r.midDrift(s1, px, py, a1, b1)
			if c, ok := r.triangle(px, py, a, b, k0, b0, a1, b1, k1, bv1); ok {
				r.offer(q, c, k0, k1)
			}
		}
	}
}

// incrementalUpdate re-examines Considered node (i,j) using only the newly
// accepted node n and the front segments ending at n. Reports whether the
// tentative value improved.
func (r *runner) incrementalUpdate(i, j int, n domain.Node) bool {
	q := j*r.dom.NX + i
	kn := n.J*r.dom.NX + n.I
	px, py := r.xs[i], r.ys[j]

	bn := r.eval(0.5*(px+r.xs[n.I]), 0.5*(py+r.ys[n.J]))
	r.stats.OnePointUpdates++
	improved := r.offer(q, r.value[kn]+r.action(bn, px-r.xs[n.I], py-r.ys[n.J]), kn, -1)

	for _, o := range r.nbr {
		a1, b1 := n.I+o[0], n.J+o[1]
		if !r.isFront(a1, b1) || !r.withinRadius(a1-i, b1-j) {
			continue
		}
		k1 := b1*r.dom.NX + a1
		bv1 := r.eval(0.5*(px+r.xs[a1]), 0.5*(py+r.ys[b1]))
		if c, ok := r.triangle(px, py, n.I, n.J, kn, bn, a1, b1, k1, bv1); ok {
			if r.offer(q, c, kn, k1) {
				improved = true
			}
		}
	}

	return improved
}

// triangle minimises the action from the segment [x0, x1] to the target
// (px,py):
//
//	f(λ) = Φ0 + λ(Φ1−Φ0) + ½(|bλ||dλ| − ⟨bλ,dλ⟩),  λ ∈ [0,1],
//
// with bλ interpolated between the midpoint drifts b0 and b1 and dλ the
// step from x0+λ(x1−x0) to the target. Colinear triangles report ok=false.
func (r *runner) triangle(px, py float64, a0, c0, k0 int, b0 surface.Vec2, a1, c1, k1 int, b1 surface.Vec2) (float64, bool) {
	d0x, d0y := px-r.xs[a0], py-r.ys[c0]
	d1x, d1y := px-r.xs[a1], py-r.ys[c1]
	cross := d0x*d1y - d0y*d1x
	if math.Abs(cross) <= 1e-12*(d0x*d0x+d0y*d0y+d1x*d1x+d1y*d1y) {
		r.stats.DegenerateTriangles++
		return 0, false
	}
	r.stats.TriangleUpdates++

	u0, u1 := r.value[k0], r.value[k1]
	ex, ey := d0x-d1x, d0y-d1y // x1 − x0
	db := b1.Sub(b0)
	f := func(l float64) float64 {
		b := surface.Vec2{X: b0.X + l*db.X, Y: b0.Y + l*db.Y}

		return u0 + l*(u1-u0) + r.action(b, d0x-l*ex, d0y-l*ey)
	}

	_, v := goldenSection(f, r.cfg.Tol)

	return math.Min(v, math.Min(f(0), f(1))), true
}

// goldenSection minimises a unimodal f over [0,1] to within tol and
// returns the minimiser and its value.
func goldenSection(f func(float64) float64, tol float64) (float64, float64) {
	a, b := 0.0, 1.0
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for b-a > tol {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	x := 0.5 * (a + b)

	return x, f(x)
}
