package surface

import (
	"fmt"
	"math"

	"github.com/katalvlaran/qpot/domain"
)

// scalarErrorf wraps an underlying error with Scalar method context.
func scalarErrorf(method string, i, j int, err error) error {
	return fmt.Errorf("Scalar.%s(%d,%d): %w", method, i, j, err)
}

// Scalar is a dense grid of optionally defined float64 values over a Domain.
type Scalar struct {
	dom     domain.Domain
	values  []float64 // flat row-major storage, len == NX*NY
	defined []bool    // defined[k] tags values[k] as meaningful
}

// NewScalar allocates an all-Undefined grid over dom.
// Returns the domain validation error if dom is degenerate.
// Complexity: O(NX*NY) time and memory.
func NewScalar(dom domain.Domain) (*Scalar, error) {
	if err := dom.Validate(); err != nil {
		return nil, err
	}
	n := dom.Len()

	return &Scalar{dom: dom, values: make([]float64, n), defined: make([]bool, n)}, nil
}

// Domain returns the mesh the grid is defined over.
func (s *Scalar) Domain() domain.Domain { return s.dom }

// At returns the value at (i,j) and whether it is defined.
// Out-of-range indices report (0, false).
// Complexity: O(1).
func (s *Scalar) At(i, j int) (float64, bool) {
	if !s.dom.InBounds(i, j) {
		return 0, false
	}
	k := j*s.dom.NX + i
	if !s.defined[k] {
		return 0, false
	}

	return s.values[k], true
}

// AtNode is At for a domain.Node.
func (s *Scalar) AtNode(n domain.Node) (float64, bool) { return s.At(n.I, n.J) }

// Defined reports whether (i,j) holds a value.
func (s *Scalar) Defined(i, j int) bool {
	return s.dom.InBounds(i, j) && s.defined[j*s.dom.NX+i]
}

// Set stores v at (i,j) and marks the cell Defined.
// Returns ErrOutOfRange or ErrNaNInf (wrapped with call context).
// Complexity: O(1).
func (s *Scalar) Set(i, j int, v float64) error {
	if !s.dom.InBounds(i, j) {
		return scalarErrorf("Set", i, j, ErrOutOfRange)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return scalarErrorf("Set", i, j, ErrNaNInf)
	}
	k := j*s.dom.NX + i
	s.values[k] = v
	s.defined[k] = true

	return nil
}

// Unset marks (i,j) Undefined.
func (s *Scalar) Unset(i, j int) error {
	if !s.dom.InBounds(i, j) {
		return scalarErrorf("Unset", i, j, ErrOutOfRange)
	}
	k := j*s.dom.NX + i
	s.values[k] = 0
	s.defined[k] = false

	return nil
}

// Count returns the number of Defined cells.
func (s *Scalar) Count() int {
	c := 0
	for _, ok := range s.defined {
		if ok {
			c++
		}
	}

	return c
}

// Min returns the smallest defined value and its node; ok is false when no
// cell is defined. Ties resolve to the lowest row-major index.
func (s *Scalar) Min() (v float64, at domain.Node, ok bool) {
	best := -1
	for k, def := range s.defined {
		if def && (best < 0 || s.values[k] < s.values[best]) {
			best = k
		}
	}
	if best < 0 {
		return 0, domain.Node{}, false
	}

	return s.values[best], s.dom.NodeAt(best), true
}

// Max returns the largest defined value and its node.
func (s *Scalar) Max() (v float64, at domain.Node, ok bool) {
	best := -1
	for k, def := range s.defined {
		if def && (best < 0 || s.values[k] > s.values[best]) {
			best = k
		}
	}
	if best < 0 {
		return 0, domain.Node{}, false
	}

	return s.values[best], s.dom.NodeAt(best), true
}

// Clone returns an independent deep copy.
// Complexity: O(NX*NY).
func (s *Scalar) Clone() *Scalar {
	vals := make([]float64, len(s.values))
	copy(vals, s.values)
	defs := make([]bool, len(s.defined))
	copy(defs, s.defined)

	return &Scalar{dom: s.dom, values: vals, defined: defs}
}

// Interpolate evaluates the grid at (x,y) by bilinear interpolation over the
// enclosing cell. ok is false when (x,y) is outside the domain or any corner
// of the enclosing cell is Undefined.
func (s *Scalar) Interpolate(x, y float64) (float64, bool) {
	if !s.dom.Contains(x, y) {
		return 0, false
	}
	hx, hy := s.dom.HX(), s.dom.HY()
	fx := (x - s.dom.XLo) / hx
	fy := (y - s.dom.YLo) / hy
	i0 := min(int(math.Floor(fx)), s.dom.NX-2)
	j0 := min(int(math.Floor(fy)), s.dom.NY-2)
	tx, ty := fx-float64(i0), fy-float64(j0)

	v00, ok00 := s.At(i0, j0)
	v10, ok10 := s.At(i0+1, j0)
	v01, ok01 := s.At(i0, j0+1)
	v11, ok11 := s.At(i0+1, j0+1)
	if !(ok00 && ok10 && ok01 && ok11) {
		return 0, false
	}

	return (1-tx)*(1-ty)*v00 + tx*(1-ty)*v10 + (1-tx)*ty*v01 + tx*ty*v11, true
}

// Rows exports the grid as NY rows of NX values, Undefined cells as NaN.
// Meant for writers and plotting collaborators only; never feed the result
// back into a minimum.
func (s *Scalar) Rows() [][]float64 {
	out := make([][]float64, s.dom.NY)
	for j := range out {
		row := make([]float64, s.dom.NX)
		for i := range row {
			if v, ok := s.At(i, j); ok {
				row[i] = v
			} else {
				row[i] = math.NaN()
			}
		}
		out[j] = row
	}

	return out
}

// EqualApprox reports whether both grids share a domain, the same defined
// mask, and values within tol of each other.
func (s *Scalar) EqualApprox(o *Scalar, tol float64) bool {
	if o == nil || !s.dom.Equal(o.dom) {
		return false
	}
	for k := range s.values {
		if s.defined[k] != o.defined[k] {
			return false
		}
		if s.defined[k] && math.Abs(s.values[k]-o.values[k]) > tol {
			return false
		}
	}

	return true
}

// String implements fmt.Stringer with a short summary.
func (s *Scalar) String() string {
	lo, _, _ := s.Min()
	hi, _, _ := s.Max()

	return fmt.Sprintf("Scalar{%v defined=%d min=%g max=%g}", s.dom, s.Count(), lo, hi)
}
