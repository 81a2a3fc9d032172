package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/katalvlaran/qpot/decompose"
	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/drift"
	"github.com/katalvlaran/qpot/oum"
	"github.com/katalvlaran/qpot/pipeline"
	"github.com/katalvlaran/qpot/stitch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doubleWell(t *testing.T) pipeline.Problem {
	t.Helper()
	m, err := drift.Lookup("double-well")
	require.NoError(t, err)
	f, err := m.Bind(nil)
	require.NoError(t, err)
	d, err := domain.New(-2, 2, -1, 1, 81, 41)
	require.NoError(t, err)

	p := pipeline.Problem{Domain: d, Field: f}
	for _, e := range m.Equilibria {
		p.Equilibria = append(p.Equilibria, [2]float64{e.X, e.Y})
	}
	for _, s := range m.Saddles {
		p.Saddles = append(p.Saddles, stitch.Saddle{X: s.X, Y: s.Y})
	}

	return p
}

func TestRun_Errors(t *testing.T) {
	good := doubleWell(t)

	noField := good
	noField.Field = nil
	_, err := pipeline.Run(context.Background(), noField)
	assert.ErrorIs(t, err, drift.ErrNilDrift)

	noEq := good
	noEq.Equilibria = nil
	_, err = pipeline.Run(context.Background(), noEq)
	assert.ErrorIs(t, err, pipeline.ErrNoEquilibria)

	badDom := good
	badDom.Domain = domain.Domain{}
	_, err = pipeline.Run(context.Background(), badDom)
	assert.ErrorIs(t, err, domain.ErrInvalidDomain)

	_, err = pipeline.Run(context.Background(), good, pipeline.WithMaxParallel(0))
	assert.ErrorIs(t, err, pipeline.ErrBadOption)
}

func TestRun_SolveErrorNamesBasin(t *testing.T) {
	p := doubleWell(t)
	p.Equilibria = append(p.Equilibria, [2]float64{2, 0}) // on the boundary

	_, err := pipeline.Run(context.Background(), p)
	require.ErrorIs(t, err, domain.ErrInvalidDomain)
	assert.Contains(t, err.Error(), "basin 2")
}

func TestRun_AlignmentFailureAborts(t *testing.T) {
	p := doubleWell(t)
	p.Saddles = nil

	_, err := pipeline.Run(context.Background(), p, pipeline.WithSolveOptions(oum.WithStopAtBoundary(false)))
	assert.ErrorIs(t, err, stitch.ErrAlignment)
}

func TestRun_DoubleWell(t *testing.T) {
	p := doubleWell(t)
	res, err := pipeline.Run(context.Background(), p,
		pipeline.WithMaxParallel(2),
		pipeline.WithSolveOptions(oum.WithStopAtBoundary(false)))
	require.NoError(t, err)

	require.Len(t, res.Locals, 2)
	for k, l := range res.Locals {
		require.NotNil(t, l, "basin %d", k)
		assert.False(t, l.Approximate)
	}
	require.NotNil(t, res.Global)
	assert.InDeltaSlice(t, []float64{0, 0}, res.Global.Offsets, 0.02)

	v, ok := res.Global.Surface.AtNode(p.Domain.Nearest(0, 0))
	require.True(t, ok)
	assert.InDelta(t, 0.25, v, 0.02)

	require.NotNil(t, res.Fields)
	assert.Positive(t, res.Fields.Report.Checked)
	assert.Equal(t, p.Domain.Len(), res.Fields.Drift.Count())
}

func TestRun_ApproximateSeedWarns(t *testing.T) {
	d, err := domain.New(-1, 1, -1, 1, 5, 5)
	require.NoError(t, err)
	p := pipeline.Problem{
		Domain:     d,
		Field:      drift.Func(func(x, y float64) (float64, float64) { return 0.2 - x, 0.2 - y }),
		Equilibria: [][2]float64{{0.2, 0.2}},
	}

	res, err := pipeline.Run(context.Background(), p,
		pipeline.WithoutDecompose(),
		pipeline.WithSolveOptions(oum.WithStopAtBoundary(false)))
	require.NoError(t, err)
	assert.Nil(t, res.Fields)

	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], decompose.ErrNumerical)
	var w *decompose.NumericalWarning
	require.True(t, errors.As(res.Warnings[0], &w))
	assert.Equal(t, "oum", w.Stage)
	assert.Greater(t, w.Value, w.Limit)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Run(ctx, doubleWell(t), pipeline.WithSolveOptions(oum.WithCheckEvery(1)))
	assert.ErrorIs(t, err, context.Canceled)
}
