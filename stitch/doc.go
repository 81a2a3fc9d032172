// Package stitch merges per-basin local quasi-potentials into one global
// surface.
//
// Each local surface Φ_k is anchored at zero on its own equilibrium. Local
// surfaces are made comparable by additive offsets o_k chosen at saddle
// points on the separatrices between basins: a saddle s adjacent to basins a
// and b contributes the constraint
//
//	o_a + Φ_a(s) = o_b + Φ_b(s)
//
// How the constraints are turned into offsets is a Policy:
//
//   - SpanningTree (default): Kruskal's algorithm over saddles sorted by mean
//     raw barrier height. The first constraint that joins two components
//     wins; ties break on lower barrier, then lower saddle index. Constraints
//     outside the tree are reported in Global.Discontinuity.
//   - LeastSquares: minimises Σ(o_a+Φ_a − o_b−Φ_b)² over all constraints
//     with o_0 pinned, via gonum/mat.
//
// Either way offsets are shifted so that the smallest is exactly zero, and the
// global value at every node is the minimum of Φ_k + o_k over the surfaces
// defined there. A node is undefined only when no surface is.
//
// Adjacency: a surface is adjacent to a saddle when it is defined at the
// saddle's nearest node and at every in-bounds node within Tolerance cells of
// it. Without an explicit Saddle.Basins pair the two adjacent surfaces with
// the lowest raw value at the saddle are used.
//
// Errors:
//
//	ErrNoSurfaces      - no local surfaces were given.
//	ErrDomainMismatch  - a surface is nil or built on another mesh.
//	ErrAlignment       - wrapped by *AlignmentError; a saddle could not be
//	                     resolved or some basin is not linked to basin 0.
//	ErrBadOption       - invalid Options.
package stitch
