package stitch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSurfaces indicates an empty list of local surfaces.
	ErrNoSurfaces = errors.New("stitch: no local surfaces")

	// ErrDomainMismatch indicates a nil surface or one built on a different mesh.
	ErrDomainMismatch = errors.New("stitch: domain mismatch")

	// ErrAlignment is the sentinel wrapped by every *AlignmentError.
	ErrAlignment = errors.New("stitch: alignment failed")

	// ErrBadOption indicates invalid stitch options.
	ErrBadOption = errors.New("stitch: invalid option")
)

// AlignmentError describes why the offsets could not be determined.
// Saddle is -1 when the failure is not tied to a single saddle (for example
// a basin that no saddle reaches).
type AlignmentError struct {
	Saddle   int
	X, Y     float64
	Adjacent []int // surfaces found adjacent to the saddle
	Reason   string
}

// Error implements error.
func (e *AlignmentError) Error() string {
	if e.Saddle < 0 {
		return fmt.Sprintf("stitch: alignment failed: %s", e.Reason)
	}

	return fmt.Sprintf("stitch: alignment failed at saddle %d (%g, %g), adjacent %v: %s",
		e.Saddle, e.X, e.Y, e.Adjacent, e.Reason)
}

// Unwrap returns ErrAlignment.
func (e *AlignmentError) Unwrap() error { return ErrAlignment }
