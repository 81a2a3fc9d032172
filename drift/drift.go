package drift

import (
	"errors"
	"sync/atomic"
)

// ErrNilDrift indicates a nil Field was supplied.
var ErrNilDrift = errors.New("drift: field is nil")

// Field evaluates the two drift components of a planar deterministic
// skeleton at (x, y). Implementations must be pure and safe for concurrent
// use: independent basins are solved in parallel against one Field.
type Field interface {
	Eval(x, y float64) (f1, f2 float64)
}

// Func adapts an ordinary function to the Field interface.
type Func func(x, y float64) (float64, float64)

// Eval calls f(x, y).
func (f Func) Eval(x, y float64) (float64, float64) { return f(x, y) }

// Counting wraps a Field and counts evaluations. Safe for concurrent use.
type Counting struct {
	Field Field
	n     atomic.Int64
}

// NewCounting wraps f.
func NewCounting(f Field) *Counting { return &Counting{Field: f} }

// Eval forwards to the wrapped Field and increments the counter.
func (c *Counting) Eval(x, y float64) (float64, float64) {
	c.n.Add(1)

	return c.Field.Eval(x, y)
}

// Calls returns the number of evaluations so far.
func (c *Counting) Calls() int64 { return c.n.Load() }
