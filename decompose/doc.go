// Package decompose splits a drift field into the gradient of a
// quasi-potential and an orthogonal remainder:
//
//	b(x) = −∇Φ(x) + r(x)
//
// The gradient part g = −∇Φ is estimated by centred differences at interior
// nodes and one-sided differences at the mesh boundary or next to undefined
// cells. It is undefined when neither neighbour along an axis is defined.
// The remainder is r = b − g.
//
// For a correct Φ, g and r are orthogonal. Decompose checks this at every
// node where both centred differences were available and counts a violation
// when
//
//	|g·r| ≥ ε(|g||r| + δ)
//
// with ε = 0.1 and δ = h² by default (h the larger mesh spacing). When the
// violation fraction exceeds the configured limit a *NumericalWarning is
// attached to the result and logged. It is never returned as an error.
//
// Rows are processed in parallel with errgroup.
package decompose
