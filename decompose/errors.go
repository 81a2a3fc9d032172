package decompose

import (
	"errors"
	"fmt"
)

var (
	// ErrNilSurface indicates a nil quasi-potential surface.
	ErrNilSurface = errors.New("decompose: nil surface")

	// ErrDomainMismatch indicates the surface is defined on another mesh.
	ErrDomainMismatch = errors.New("decompose: domain mismatch")

	// ErrBadOption indicates invalid decomposition options.
	ErrBadOption = errors.New("decompose: invalid option")

	// ErrNumerical is wrapped by every *NumericalWarning.
	ErrNumerical = errors.New("numerical warning")
)

// NumericalWarning reports a result that is usable but numerically suspect,
// such as an orthogonality check above tolerance or an off-grid seed.
type NumericalWarning struct {
	Stage  string  // producing stage, e.g. "decompose" or "oum"
	Detail string  // human-readable description
	Value  float64 // offending measure (fraction, offset)
	Limit  float64 // threshold it exceeded
}

// Error implements error.
func (w *NumericalWarning) Error() string {
	return fmt.Sprintf("%s: numerical warning: %s (%.4g > %.4g)", w.Stage, w.Detail, w.Value, w.Limit)
}

// Unwrap returns ErrNumerical.
func (w *NumericalWarning) Unwrap() error { return ErrNumerical }
