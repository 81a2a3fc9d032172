package surface

import (
	"fmt"
	"math"

	"github.com/katalvlaran/qpot/domain"
)

// Vec2 is a planar vector.
type Vec2 struct {
	X, Y float64
}

// Dot returns the inner product.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Norm returns the Euclidean length.
func (v Vec2) Norm() float64 { return math.Hypot(v.X, v.Y) }

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns a·v.
func (v Vec2) Scale(a float64) Vec2 { return Vec2{a * v.X, a * v.Y} }

// VectorField is a dense grid of optionally defined Vec2 values.
type VectorField struct {
	dom     domain.Domain
	values  []Vec2
	defined []bool
}

// NewVectorField allocates an all-Undefined vector grid over dom.
func NewVectorField(dom domain.Domain) (*VectorField, error) {
	if err := dom.Validate(); err != nil {
		return nil, err
	}
	n := dom.Len()

	return &VectorField{dom: dom, values: make([]Vec2, n), defined: make([]bool, n)}, nil
}

// Domain returns the mesh the field is defined over.
func (f *VectorField) Domain() domain.Domain { return f.dom }

// At returns the vector at (i,j) and whether it is defined.
func (f *VectorField) At(i, j int) (Vec2, bool) {
	if !f.dom.InBounds(i, j) {
		return Vec2{}, false
	}
	k := j*f.dom.NX + i
	if !f.defined[k] {
		return Vec2{}, false
	}

	return f.values[k], true
}

// Defined reports whether (i,j) holds a vector.
func (f *VectorField) Defined(i, j int) bool {
	return f.dom.InBounds(i, j) && f.defined[j*f.dom.NX+i]
}

// Set stores v at (i,j). Rows of a VectorField may be written from separate
// goroutines as long as no two goroutines touch the same cell.
func (f *VectorField) Set(i, j int, v Vec2) error {
	if !f.dom.InBounds(i, j) {
		return fmt.Errorf("VectorField.Set(%d,%d): %w", i, j, ErrOutOfRange)
	}
	if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) {
		return fmt.Errorf("VectorField.Set(%d,%d): %w", i, j, ErrNaNInf)
	}
	k := j*f.dom.NX + i
	f.values[k] = v
	f.defined[k] = true

	return nil
}

// Count returns the number of defined cells.
func (f *VectorField) Count() int {
	c := 0
	for _, ok := range f.defined {
		if ok {
			c++
		}
	}

	return c
}
