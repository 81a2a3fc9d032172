// Package domain defines core types, connectivity options, and sentinel
// errors for the domain subpackage of github.com/katalvlaran/qpot.
package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidDomain indicates degenerate bounds or resolution, or a start
// point that lies outside or on the boundary of the domain.
var ErrInvalidDomain = errors.New("domain: invalid domain")

// DomainError carries the offending input so callers can fix it.
// It unwraps to ErrInvalidDomain.
type DomainError struct {
	Field string  // which input failed: "x", "y", "nx", "bounds", ...
	Value float64 // offending value
	Lo    float64 // lower admissible bound (if meaningful)
	Hi    float64 // upper admissible bound (if meaningful)
	Msg   string
}

// Error implements error.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%v: %s=%g not in (%g, %g): %s", ErrInvalidDomain, e.Field, e.Value, e.Lo, e.Hi, e.Msg)
}

// Unwrap lets errors.Is(err, ErrInvalidDomain) succeed.
func (e *DomainError) Unwrap() error { return ErrInvalidDomain }

// Connectivity selects neighbor connectivity: orthogonal (Conn4) or including diagonals (Conn8).
type Connectivity int

const (
	// Conn4 uses 4-directional connectivity: S, E, N, W.
	Conn4 Connectivity = iota
	// Conn8 uses 8-directional connectivity including diagonals.
	Conn8
)

// String implements fmt.Stringer.
func (c Connectivity) String() string {
	if c == Conn8 {
		return "conn8"
	}

	return "conn4"
}

var (
	offsets4 = [][2]int{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	offsets8 = [][2]int{{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}}
)

// Offsets returns the neighbor offsets (dI, dJ) for the given connectivity.
// The returned slice is shared; callers must not modify it.
func Offsets(c Connectivity) [][2]int {
	if c == Conn8 {
		return offsets8
	}

	return offsets4
}

// Node is an integer mesh index. I runs along x, J along y.
type Node struct {
	I, J int
}

// Domain is an axis-aligned rectangle discretized into NX×NY nodes.
// It is a value type and immutable once built by New.
type Domain struct {
	XLo float64 `json:"x_lo"`
	XHi float64 `json:"x_hi"`
	YLo float64 `json:"y_lo"`
	YHi float64 `json:"y_hi"`
	NX  int     `json:"nx"`
	NY  int     `json:"ny"`
}
