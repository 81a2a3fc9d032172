package decompose_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/katalvlaran/qpot/decompose"
	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/drift"
	"github.com/katalvlaran/qpot/oum"
	"github.com/katalvlaran/qpot/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mesh(t *testing.T, n int) domain.Domain {
	t.Helper()
	d, err := domain.New(-1, 1, -1, 1, n, n)
	require.NoError(t, err)

	return d
}

// sample fills a surface with phi wherever keep holds (nil keeps all).
func sample(t *testing.T, d domain.Domain, phi func(x, y float64) float64, keep func(x, y float64) bool) *surface.Scalar {
	t.Helper()
	s, err := surface.NewScalar(d)
	require.NoError(t, err)
	for j := 0; j < d.NY; j++ {
		for i := 0; i < d.NX; i++ {
			x, y := d.Point(domain.Node{I: i, J: j})
			if keep == nil || keep(x, y) {
				require.NoError(t, s.Set(i, j, phi(x, y)))
			}
		}
	}

	return s
}

func rotational(t *testing.T) drift.Field {
	t.Helper()
	m, err := drift.Lookup("rotational")
	require.NoError(t, err)
	f, err := m.Bind(nil)
	require.NoError(t, err)

	return f
}

func halfSquare(x, y float64) float64 { return 0.5 * (x*x + y*y) }

func TestDecompose_Errors(t *testing.T) {
	d := mesh(t, 11)
	s := sample(t, d, halfSquare, nil)
	f := rotational(t)

	_, err := decompose.Decompose(context.Background(), nil, f, d)
	assert.ErrorIs(t, err, decompose.ErrNilSurface)

	_, err = decompose.Decompose(context.Background(), s, nil, d)
	assert.ErrorIs(t, err, drift.ErrNilDrift)

	_, err = decompose.Decompose(context.Background(), s, f, mesh(t, 12))
	assert.ErrorIs(t, err, decompose.ErrDomainMismatch)

	_, err = decompose.Decompose(context.Background(), s, f, domain.Domain{})
	assert.ErrorIs(t, err, domain.ErrInvalidDomain)

	for name, opt := range map[string]decompose.Option{
		"ZeroEpsilon":      decompose.WithEpsilon(0),
		"NaNDelta":         decompose.WithDelta(math.NaN()),
		"FractionAboveOne": decompose.WithViolationFraction(1.5),
		"ZeroWorkers":      decompose.WithWorkers(0),
		"NilLogger":        decompose.WithLogger(nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := decompose.Decompose(context.Background(), s, f, d, opt)
			assert.ErrorIs(t, err, decompose.ErrBadOption)
		})
	}
}

// TestDecompose_ExactRotational uses the closed-form Φ=(x²+y²)/2 of
// b = (−x−y, −y+x): the remainder is exactly the rotation (−y, x).
func TestDecompose_ExactRotational(t *testing.T) {
	d := mesh(t, 41)
	fields, err := decompose.Decompose(context.Background(), sample(t, d, halfSquare, nil), rotational(t), d,
		decompose.WithWorkers(3))
	require.NoError(t, err)

	assert.Equal(t, 39*39, fields.Report.Checked, "interior nodes use centred differences")
	assert.Zero(t, fields.Report.Violations)
	assert.Less(t, fields.Report.MaxCosine, 1e-9)
	assert.Empty(t, fields.Warnings)
	assert.Equal(t, d.Len(), fields.Drift.Count())
	assert.Equal(t, d.Len(), fields.Gradient.Count())

	n := d.Nearest(0.5, -0.25)
	g, ok := fields.Gradient.At(n.I, n.J)
	require.True(t, ok)
	assert.InDelta(t, -0.5, g.X, 1e-12)
	assert.InDelta(t, 0.25, g.Y, 1e-12)
	r, ok := fields.Remainder.At(n.I, n.J)
	require.True(t, ok)
	assert.InDelta(t, 0.25, r.X, 1e-12)
	assert.InDelta(t, 0.5, r.Y, 1e-12)

	// b = g + r everywhere both are defined
	b, _ := fields.Drift.At(n.I, n.J)
	assert.InDelta(t, b.X, g.X+r.X, 1e-12)
	assert.InDelta(t, b.Y, g.Y+r.Y, 1e-12)
}

// TestDecompose_CosineSkipsRoundingNoise checks that the equilibrium, where
// g and r are both rounding residue, stays out of the cosine statistics.
func TestDecompose_CosineSkipsRoundingNoise(t *testing.T) {
	d := mesh(t, 41)
	fields, err := decompose.Decompose(context.Background(), sample(t, d, halfSquare, nil), rotational(t), d)
	require.NoError(t, err)

	g, ok := fields.Gradient.At(20, 20)
	require.True(t, ok)
	r, ok := fields.Remainder.At(20, 20)
	require.True(t, ok)
	require.Less(t, g.Norm()*r.Norm(), 1e-20, "origin is a rounding-level node")

	rep := fields.Report
	assert.Less(t, rep.Scored, rep.Checked)
	assert.GreaterOrEqual(t, rep.Scored, rep.Checked-5, "only the origin and its axis neighbours sit at |g||r| ≤ h²")
	assert.Less(t, rep.MaxCosine, 1e-9)
	assert.Less(t, rep.MeanCosine, 1e-9)
}

func TestDecompose_FlatSurfaceScoresNothing(t *testing.T) {
	d := mesh(t, 21)
	flat := func(x, y float64) float64 { return 1 }
	fields, err := decompose.Decompose(context.Background(), sample(t, d, flat, nil), rotational(t), d)
	require.NoError(t, err)

	assert.Equal(t, 19*19, fields.Report.Checked)
	assert.Zero(t, fields.Report.Scored)
	assert.Zero(t, fields.Report.MaxCosine)
	assert.Zero(t, fields.Report.MeanCosine)
}

func TestDecompose_OneSidedAtBoundary(t *testing.T) {
	d := mesh(t, 41)
	fields, err := decompose.Decompose(context.Background(), sample(t, d, halfSquare, nil), rotational(t), d)
	require.NoError(t, err)

	// forward difference at x=−1: ((0.95²−1)/2)/0.05 = −0.975
	g, ok := fields.Gradient.At(0, 20)
	require.True(t, ok)
	assert.InDelta(t, 0.975, g.X, 1e-9)
}

func TestDecompose_UndefinedCells(t *testing.T) {
	d := mesh(t, 21)
	left := func(x, _ float64) bool { return x < 0 }
	fields, err := decompose.Decompose(context.Background(), sample(t, d, halfSquare, left), rotational(t), d)
	require.NoError(t, err)

	assert.Equal(t, d.Len(), fields.Drift.Count(), "drift is sampled everywhere")
	assert.False(t, fields.Gradient.Defined(15, 10), "Φ undefined there")
	assert.True(t, fields.Gradient.Defined(9, 10), "one-sided next to the undefined half")
	assert.False(t, fields.Remainder.Defined(15, 10))

	// an isolated defined node has no neighbour along either axis
	lone := sample(t, d, halfSquare, func(x, y float64) bool { return x == 0 && y == 0 })
	fields, err = decompose.Decompose(context.Background(), lone, rotational(t), d)
	require.NoError(t, err)
	assert.Zero(t, fields.Gradient.Count())
	assert.Zero(t, fields.Report.Checked)
}

func TestDecompose_NonFiniteDrift(t *testing.T) {
	d := mesh(t, 11)
	f := drift.Func(func(x, y float64) (float64, float64) {
		if x > 0.5 {
			return math.Inf(1), 0
		}
		return -x, -y
	})
	fields, err := decompose.Decompose(context.Background(), sample(t, d, halfSquare, nil), f, d)
	require.NoError(t, err)
	assert.False(t, fields.Drift.Defined(10, 5))
	assert.False(t, fields.Remainder.Defined(10, 5))
	assert.True(t, fields.Drift.Defined(0, 5))
}

// TestDecompose_WrongPotentialWarns pairs the rotational drift with Φ = x²,
// which is not its quasi-potential.
func TestDecompose_WrongPotentialWarns(t *testing.T) {
	d := mesh(t, 41)
	wrong := sample(t, d, func(x, _ float64) float64 { return x * x }, nil)
	fields, err := decompose.Decompose(context.Background(), wrong, rotational(t), d)
	require.NoError(t, err, "orthogonality failures are warnings, not errors")

	require.Len(t, fields.Warnings, 1)
	assert.ErrorIs(t, fields.Warnings[0], decompose.ErrNumerical)
	var w *decompose.NumericalWarning
	require.True(t, errors.As(fields.Warnings[0], &w))
	assert.Equal(t, "decompose", w.Stage)
	assert.Greater(t, w.Value, 0.05)
	assert.Greater(t, fields.Report.Fraction(), 0.5)

	// raising the threshold silences the warning
	fields, err = decompose.Decompose(context.Background(), wrong, rotational(t), d, decompose.WithViolationFraction(1))
	require.NoError(t, err)
	assert.Empty(t, fields.Warnings)
}

// TestDecompose_SolverSurface decomposes against a computed quasi-potential.
func TestDecompose_SolverSurface(t *testing.T) {
	d := mesh(t, 81)
	f := rotational(t)
	l, err := oum.Solve(context.Background(), f, 0, 0, d, oum.WithStopAtBoundary(false))
	require.NoError(t, err)

	fields, err := decompose.Decompose(context.Background(), l.Surface, f, d)
	require.NoError(t, err)
	assert.Positive(t, fields.Report.Checked)
	assert.Less(t, fields.Report.MeanCosine, 0.2)
}

func TestDecompose_ContextCanceled(t *testing.T) {
	d := mesh(t, 11)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := decompose.Decompose(ctx, sample(t, d, halfSquare, nil), rotational(t), d)
	assert.ErrorIs(t, err, context.Canceled)
}
