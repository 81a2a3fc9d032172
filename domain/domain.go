package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// New constructs a Domain from bounds and resolution.
// Returns *DomainError (wrapping ErrInvalidDomain) when xlo ≥ xhi, ylo ≥ yhi,
// nx < 2, ny < 2, or any bound is NaN/Inf.
// Complexity: O(1).
func New(xlo, xhi, ylo, yhi float64, nx, ny int) (Domain, error) {
	d := Domain{XLo: xlo, XHi: xhi, YLo: ylo, YHi: yhi, NX: nx, NY: ny}
	if err := d.Validate(); err != nil {
		return Domain{}, err
	}

	return d, nil
}

// Validate checks the Domain invariants. Useful for zero-value or
// hand-assembled Domain literals that bypassed New.
func (d Domain) Validate() error {
	for _, b := range []struct {
		name string
		v    float64
	}{{"x_lo", d.XLo}, {"x_hi", d.XHi}, {"y_lo", d.YLo}, {"y_hi", d.YHi}} {
		if math.IsNaN(b.v) || math.IsInf(b.v, 0) {
			return &DomainError{Field: b.name, Value: b.v, Lo: math.Inf(-1), Hi: math.Inf(1), Msg: "bound must be finite"}
		}
	}
	if !(d.XLo < d.XHi) {
		return &DomainError{Field: "x_lo", Value: d.XLo, Lo: math.Inf(-1), Hi: d.XHi, Msg: "x_lo must be below x_hi"}
	}
	if !(d.YLo < d.YHi) {
		return &DomainError{Field: "y_lo", Value: d.YLo, Lo: math.Inf(-1), Hi: d.YHi, Msg: "y_lo must be below y_hi"}
	}
	if d.NX < 2 {
		return &DomainError{Field: "nx", Value: float64(d.NX), Lo: 2, Hi: math.Inf(1), Msg: "need at least two nodes per axis"}
	}
	if d.NY < 2 {
		return &DomainError{Field: "ny", Value: float64(d.NY), Lo: 2, Hi: math.Inf(1), Msg: "need at least two nodes per axis"}
	}

	return nil
}

// HX returns the node spacing along x: (XHi-XLo)/(NX-1).
func (d Domain) HX() float64 { return (d.XHi - d.XLo) / float64(d.NX-1) }

// HY returns the node spacing along y: (YHi-YLo)/(NY-1).
func (d Domain) HY() float64 { return (d.YHi - d.YLo) / float64(d.NY-1) }

// Len returns the total number of nodes, NX*NY.
func (d Domain) Len() int { return d.NX * d.NY }

// InBounds reports whether (i,j) lies within the mesh.
// Complexity: O(1).
func (d Domain) InBounds(i, j int) bool {
	return i >= 0 && i < d.NX && j >= 0 && j < d.NY
}

// Index maps a node to its row-major index J*NX+I.
// Complexity: O(1).
func (d Domain) Index(n Node) int {
	return n.J*d.NX + n.I
}

// NodeAt converts a row-major index back to a Node.
// Complexity: O(1).
func (d Domain) NodeAt(idx int) Node {
	return Node{I: idx % d.NX, J: idx / d.NX}
}

// Point returns the continuous coordinate of node n.
func (d Domain) Point(n Node) (x, y float64) {
	return d.XLo + float64(n.I)*d.HX(), d.YLo + float64(n.J)*d.HY()
}

// OnBoundary reports whether n lies on the outermost ring of the mesh.
func (d Domain) OnBoundary(n Node) bool {
	return n.I == 0 || n.J == 0 || n.I == d.NX-1 || n.J == d.NY-1
}

// Contains reports whether (x,y) lies in the closed rectangle.
func (d Domain) Contains(x, y float64) bool {
	return x >= d.XLo && x <= d.XHi && y >= d.YLo && y <= d.YHi
}

// Interior reports whether (x,y) lies in the open rectangle.
func (d Domain) Interior(x, y float64) bool {
	return x > d.XLo && x < d.XHi && y > d.YLo && y < d.YHi
}

// Nearest returns the mesh node closest to (x,y), clamped to the mesh.
// Halfway ties round away from zero (math.Round).
// Complexity: O(1).
func (d Domain) Nearest(x, y float64) Node {
	i := int(math.Round((x - d.XLo) / d.HX()))
	j := int(math.Round((y - d.YLo) / d.HY()))

	return Node{I: clamp(i, 0, d.NX-1), J: clamp(j, 0, d.NY-1)}
}

// Neighbors returns the in-bounds neighbors of n under connectivity c,
// in the fixed order of Offsets(c).
// Complexity: O(d).
func (d Domain) Neighbors(n Node, c Connectivity) []Node {
	offs := Offsets(c)
	out := make([]Node, 0, len(offs))
	for _, o := range offs {
		i, j := n.I+o[0], n.J+o[1]
		if d.InBounds(i, j) {
			out = append(out, Node{I: i, J: j})
		}
	}

	return out
}

// X returns the NX node coordinates along x.
func (d Domain) X() []float64 {
	return floats.Span(make([]float64, d.NX), d.XLo, d.XHi)
}

// Y returns the NY node coordinates along y.
func (d Domain) Y() []float64 {
	return floats.Span(make([]float64, d.NY), d.YLo, d.YHi)
}

// ValidateStart checks that (x,y) is a usable seed for a front-propagation
// solve: strictly inside the rectangle, and snapping to a node that is not on
// the mesh boundary (a boundary seed stops the front immediately).
// Returns the seed node on success.
func (d Domain) ValidateStart(x, y float64) (Node, error) {
	if err := d.Validate(); err != nil {
		return Node{}, err
	}
	if math.IsNaN(x) || x <= d.XLo || x >= d.XHi {
		return Node{}, &DomainError{Field: "x", Value: x, Lo: d.XLo, Hi: d.XHi, Msg: "start must lie strictly inside the domain"}
	}
	if math.IsNaN(y) || y <= d.YLo || y >= d.YHi {
		return Node{}, &DomainError{Field: "y", Value: y, Lo: d.YLo, Hi: d.YHi, Msg: "start must lie strictly inside the domain"}
	}
	n := d.Nearest(x, y)
	if d.OnBoundary(n) {
		msg := fmt.Sprintf("start (%g, %g) snaps to boundary node (%d, %d)", x, y, n.I, n.J)
		if n.I == 0 || n.I == d.NX-1 {
			return Node{}, &DomainError{Field: "x", Value: x, Lo: d.XLo, Hi: d.XHi, Msg: msg}
		}

		return Node{}, &DomainError{Field: "y", Value: y, Lo: d.YLo, Hi: d.YHi, Msg: msg}
	}

	return n, nil
}

// Equal reports whether two domains describe the same mesh.
func (d Domain) Equal(o Domain) bool {
	return d == o
}

// String implements fmt.Stringer.
func (d Domain) String() string {
	return fmt.Sprintf("[%g,%g]×[%g,%g] %d×%d", d.XLo, d.XHi, d.YLo, d.YHi, d.NX, d.NY)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
