// Package surface holds the dense grid artifacts exchanged between the
// solver, the stitcher and the decomposer.
//
// Scalar is an NX×NY grid of quasi-potential values where every cell is
// either Defined(v) or Undefined. The tag is explicit (a defined mask next to
// the flat value slice) so an unreachable cell can never leak a numeric
// sentinel such as +Inf into a minimum-merge. VectorField is the same shape
// holding Vec2 values.
//
// Storage is a flat row-major slice indexed by domain.Domain.Index, J*NX+I,
// for cache-friendly row sweeps.
//
// Errors:
//
//   - ErrOutOfRange: node index outside the mesh.
//   - ErrNaNInf: attempt to store NaN or ±Inf.
//   - ErrShapeMismatch: operands built over different domains.
package surface
