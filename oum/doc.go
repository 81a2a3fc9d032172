// Package oum computes the quasi-potential Φ of a planar SDE
//
//	dX = b(X) dt + ε σ dW,   A = σσᵀ,
//
// around one stable equilibrium with an ordered upwind method.
//
// Φ is the minimal action needed to reach a point from the equilibrium,
// normalised so that the drift splits as b = −∇Φ + r with ∇Φ·r = 0 (for a
// gradient drift b = −∇V this gives Φ = V − V(eq)). The action of a short
// straight step d under drift b is
//
//	½ (|b|ₘ |d|ₘ − ⟨b, d⟩ₘ),   ⟨u, v⟩ₘ = uᵀA⁻¹v.
//
// Algorithm (front propagation, a continuous generalisation of Dijkstra):
//
//  1. The node nearest the equilibrium is Accepted with Φ = 0; its
//     neighbours become Considered via one-point updates.
//  2. Repeatedly pop the Considered node with the smallest tentative value
//     from a min-heap (lazy decrease-key, ties by lowest index) and accept it.
//  3. Considered nodes within UpdateRadius cells of the newly accepted node
//     are re-examined using only the new node: a one-point update along the
//     straight segment, and triangle updates over segments joining the new
//     node to its accepted-front neighbours. Far neighbours of the new node
//     become Considered with a full update over every accepted-front node in
//     their radius.
//  4. Stop when the Considered set is empty, when the front touches the
//     domain edge (StopAtBoundary), or when the next value exceeds MaxValue.
//
// Triangle updates minimise the interpolated action over λ ∈ [0,1] with a
// golden-section search. Colinear triangles are skipped; the one-point
// update always remains available as a fallback.
//
// Complexity:
//
//   - Time:  O(N·K²·log N) for N nodes and update radius K.
//   - Space: O(N) for values, statuses and back-pointers.
//
// Errors (sentinel):
//
//   - drift.ErrNilDrift:      nil Field.
//   - domain.ErrInvalidDomain: degenerate domain, or start outside / on the
//     boundary (wrapped in *domain.DomainError with the offending coordinate).
//   - ErrBadOption:           non-positive radius or tolerance, non-SPD
//     diffusion matrix, NaN MaxValue.
//   - ErrDegenerateGeometry:  no finite update could be formed around the seed.
//
// A run is single-threaded by construction; independent basins may be
// solved concurrently against the same Field.
package oum
