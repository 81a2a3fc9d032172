package surface

import "errors"

var (
	// ErrOutOfRange indicates that (i,j) lies outside the mesh.
	ErrOutOfRange = errors.New("surface: index out of range")

	// ErrNaNInf indicates an attempt to store a NaN or ±Inf value.
	// Undefined cells are expressed with Unset, never with a sentinel.
	ErrNaNInf = errors.New("surface: NaN or Inf value")

	// ErrShapeMismatch indicates operands built over different domains.
	ErrShapeMismatch = errors.New("surface: domain mismatch")
)
