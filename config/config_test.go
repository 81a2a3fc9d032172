package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/qpot/config"
	"github.com/katalvlaran/qpot/drift"
	"github.com/katalvlaran/qpot/stitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))

	return p
}

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	p, opts, err := cfg.Problem()
	require.NoError(t, err)
	assert.Equal(t, 1000, p.Domain.NX)
	assert.Equal(t, [][2]float64{{1.4049, 2.8081}, {4.9040, 4.0619}}, p.Equilibria)
	require.Len(t, p.Saddles, 1)
	assert.Equal(t, 4.2008, p.Saddles[0].X)
	assert.NotEmpty(t, opts)
}

func TestLoad_EmptyPathGivesDefault(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "run.yaml", `
domain: {x_lo: -2, x_hi: 2, y_lo: -1, y_hi: 1, nx: 81, ny: 41}
model:
  name: double-well
  params: {k: 2}
saddles:
  - {x: 0, y: 0, basins: [0, 1]}
stitch:
  policy: least-squares
decompose:
  enabled: false
max_parallel: 2
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "double-well", cfg.Model.Name)
	assert.Equal(t, 2.0, cfg.Model.Params["k"])
	assert.Equal(t, 5, cfg.Solver.UpdateRadius, "unset fields keep defaults")

	p, _, err := cfg.Problem()
	require.NoError(t, err)
	assert.Equal(t, 81, p.Domain.NX)
	assert.Len(t, p.Equilibria, 2, "equilibria fall back to the catalogue")
	assert.Equal(t, []stitch.Saddle{{X: 0, Y: 0, Basins: []int{0, 1}}}, p.Saddles)

	// k=2 is bound into the field
	f1, f2 := p.Field.Eval(0.5, 1)
	assert.InDelta(t, 0.375, f1, 1e-12)
	assert.InDelta(t, -2, f2, 1e-12)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "run.json", `{
  "domain": {"x_lo": -1, "x_hi": 1, "y_lo": -1, "y_hi": 1, "nx": 21, "ny": 21},
  "model": {"name": "rotational", "params": {"omega": 3}},
  "equilibria": [{"x": 0, "y": 0}],
  "solver": {"update_radius": 3, "connectivity": 4, "tolerance": 0.0001,
             "diffusion": {"a11": 1, "a12": 0, "a22": 1}}
}`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Solver.UpdateRadius)
	assert.Equal(t, 4, cfg.Solver.Connectivity)
	assert.Equal(t, []config.PointConfig{{X: 0, Y: 0}}, cfg.Equilibria)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"OneNode", "domain: {x_lo: 0, x_hi: 1, y_lo: 0, y_hi: 1, nx: 1, ny: 10}"},
		{"ReversedBounds", "domain: {x_lo: 2, x_hi: 1, y_lo: 0, y_hi: 1, nx: 10, ny: 10}"},
		{"UnknownModel", "model: {name: lorenz}"},
		{"BadConnectivity", "solver: {connectivity: 6}"},
		{"BadPolicy", "stitch: {policy: average}"},
		{"ThreeBasins", "saddles: [{x: 1, y: 1, basins: [0, 1, 2]}]"},
		{"NegativeBasin", "saddles: [{x: 1, y: 1, basins: [0, -1]}]"},
		{"FractionAboveOne", "decompose: {max_violation_fraction: 2}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Load(write(t, "bad.yaml", tc.body))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

// TestValidate_ModelTag checks the registered "model" rule against the
// drift catalogue in both directions.
func TestValidate_ModelTag(t *testing.T) {
	for _, name := range drift.Names() {
		cfg := config.Default()
		cfg.Model.Name = name
		assert.NoError(t, cfg.Validate(), name)
	}

	cfg := config.Default()
	cfg.Model.Name = "lorenz"
	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "'model' tag")
}

func TestLoad_Unparseable(t *testing.T) {
	_, err := config.Load(write(t, "bad.yaml", "domain: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tried YAML and JSON")

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QPOT_MAX_PARALLEL", "3")
	t.Setenv("QPOT_UPDATE_RADIUS", "7")
	t.Setenv("QPOT_MODEL", "gradient")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxParallel)
	assert.Equal(t, 7, cfg.Solver.UpdateRadius)
	assert.Equal(t, "gradient", cfg.Model.Name)
}

func TestProblem_UnknownParam(t *testing.T) {
	cfg := config.Default()
	cfg.Model.Params = map[string]float64{"nope": 1}
	_, _, err := cfg.Problem()
	assert.ErrorIs(t, err, drift.ErrUnknownParam)
}
