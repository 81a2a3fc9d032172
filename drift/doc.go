// Package drift defines the drift-field capability consumed by the
// quasi-potential engine, plus a small catalogue of deterministic skeletons.
//
// The solver only needs Field.Eval(x, y) → (f1, f2): a pure, deterministic,
// cheap function called at solver-loop frequency (millions of calls). Any
// implementation qualifies: a closure, a compiled expression, a foreign call.
// Parsing user-supplied expressions is deliberately not done here; the
// catalogue models bind their named parameters once, at Bind time, so the hot
// path is plain arithmetic.
//
// Catalogue:
//
//   - holling:          two-term rational predator/prey skeleton, two stable
//     equilibria separated by a saddle.
//   - gradient:         b = −∇(a(x²+y²)), closed-form Φ = a(x²+y²).
//   - rotational:       b = −∇V + ω(−y, x), V = (x²+y²)/2, closed-form Φ = V.
//   - double-well:      b = (x − x³, −y), basins at (±1, 0), saddle at origin.
//   - vanderpol-damped: Van der Pol with negative damping, stable focus at 0.
package drift
