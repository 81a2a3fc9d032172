package drift_test

import (
	"math"
	"sync"
	"testing"

	"github.com/katalvlaran/qpot/drift"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCatalogue_EquilibriaAreFixedPoints checks that every declared
// equilibrium and saddle is a zero of its model's drift.
func TestCatalogue_EquilibriaAreFixedPoints(t *testing.T) {
	for _, name := range drift.Names() {
		t.Run(name, func(t *testing.T) {
			m, err := drift.Lookup(name)
			require.NoError(t, err)
			f, err := m.Bind(nil)
			require.NoError(t, err)

			pts := append(append([]drift.Point{}, m.Equilibria...), m.Saddles...)
			require.NotEmpty(t, pts)
			for _, p := range pts {
				f1, f2 := f.Eval(p.X, p.Y)
				assert.InDelta(t, 0, f1, 1e-3, "f1 at %v", p)
				assert.InDelta(t, 0, f2, 1e-3, "f2 at %v", p)
			}
		})
	}
}

// TestBind_Overrides verifies parameter binding and its validation.
func TestBind_Overrides(t *testing.T) {
	m, err := drift.Lookup("gradient")
	require.NoError(t, err)

	f, err := m.Bind(drift.Params{"a": 3})
	require.NoError(t, err)
	f1, f2 := f.Eval(1, -2)
	assert.Equal(t, -6.0, f1)
	assert.Equal(t, 12.0, f2)

	_, err = m.Bind(drift.Params{"b": 1})
	assert.ErrorIs(t, err, drift.ErrUnknownParam)
	_, err = m.Bind(drift.Params{"a": math.NaN()})
	assert.ErrorIs(t, err, drift.ErrBadParam)
}

// TestLookup_Unknown verifies the unknown-model sentinel.
func TestLookup_Unknown(t *testing.T) {
	_, err := drift.Lookup("lorenz")
	assert.ErrorIs(t, err, drift.ErrUnknownModel)
}

// TestRotational_Orthogonality checks that the rotational part of the
// rotational model is orthogonal to the gradient of V = (x²+y²)/2.
func TestRotational_Orthogonality(t *testing.T) {
	m, err := drift.Lookup("rotational")
	require.NoError(t, err)
	f, err := m.Bind(drift.Params{"omega": 2.5})
	require.NoError(t, err)

	for _, p := range [][2]float64{{1, 0}, {0.3, -0.7}, {-2, 1.5}} {
		f1, f2 := f.Eval(p[0], p[1])
		// remainder = drift + ∇V
		r1, r2 := f1+p[0], f2+p[1]
		assert.InDelta(t, 0, r1*p[0]+r2*p[1], 1e-12)
	}
}

// TestCounting counts evaluations across goroutines.
func TestCounting(t *testing.T) {
	c := drift.NewCounting(drift.Func(func(x, y float64) (float64, float64) { return -x, -y }))
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c.Eval(1, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(800), c.Calls())
}
