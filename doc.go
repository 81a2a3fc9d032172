// Package qpot computes quasi-potential surfaces for two-dimensional
// stochastic differential equations
//
//	dX = b(X) dt + σ dW
//
// and uses them to compare the stability of coexisting stable states.
//
// What it does:
//
//   - Local surfaces: an ordered upwind solver (a Dijkstra-like front
//     propagation with anisotropic, drift-dependent cost) computes Φ from
//     each stable equilibrium.
//   - Global surface: per-basin surfaces are aligned at saddle points and
//     merged by pointwise minimum.
//   - Decomposition: the drift is split into −∇Φ and an orthogonal
//     remainder, with an orthogonality check.
//
// Packages:
//
//	domain/    rectangular mesh, node indexing, start-point validation
//	surface/   scalar and vector grids with explicit undefined cells
//	drift/     drift field interface and a catalogue of built-in models
//	oum/       ordered upwind local solver
//	stitch/    basin alignment policies and the global merge
//	decompose/ gradient/remainder split and numerical warnings
//	pipeline/  parallel local solves, stitch and decompose in one call
//	config/    YAML/JSON run configuration
//	export/    CSV and JSON writers
//	cmd/qpot/  command-line front end
//
// Quick example:
//
//	dom, _ := domain.New(-2, 2, -1, 1, 161, 81)
//	m, _ := drift.Lookup("double-well")
//	field, _ := m.Bind(nil)
//	res, err := pipeline.Run(ctx, pipeline.Problem{
//		Domain:     dom,
//		Field:      field,
//		Equilibria: [][2]float64{{-1, 0}, {1, 0}},
//		Saddles:    []stitch.Saddle{{X: 0, Y: 0}},
//	})
//
//	go install github.com/katalvlaran/qpot/cmd/qpot@latest
package qpot
