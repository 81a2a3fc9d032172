package oum

import (
	"container/heap"
	"context"
	"math"
	"testing"

	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/drift"
	"github.com/katalvlaran/qpot/surface"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldenSection(t *testing.T) {
	cases := []struct {
		name string
		f    func(float64) float64
		want float64
	}{
		{"Interior", func(x float64) float64 { return (x - 0.3) * (x - 0.3) }, 0.3},
		{"LeftEdge", func(x float64) float64 { return x }, 0},
		{"RightEdge", func(x float64) float64 { return -x }, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			x, fx := goldenSection(tc.f, 1e-8)
			assert.InDelta(t, tc.want, x, 1e-6)
			assert.InDelta(t, tc.f(tc.want), fx, 1e-6)
		})
	}
}

func TestAction(t *testing.T) {
	r := &runner{m11: 1, m22: 1}

	// moving against the flow costs |b||d|, along it costs nothing
	assert.InDelta(t, 2.0, r.action(surface.Vec2{X: -2, Y: 0}, 1, 0), 1e-12)
	assert.InDelta(t, 0.0, r.action(surface.Vec2{X: 2, Y: 0}, 1, 0), 1e-12)
	// perpendicular: ½|b||d|
	assert.InDelta(t, 0.5, r.action(surface.Vec2{X: 0, Y: 1}, 1, 0), 1e-12)

	// anisotropic metric M = diag(1/2, 2)
	r = &runner{m11: 0.5, m22: 2}
	assert.InDelta(t, math.Sqrt(0.5)*math.Sqrt(0.5), r.action(surface.Vec2{X: -1, Y: 0}, 1, 0), 1e-12)
}

func TestNodePQ_TieBreak(t *testing.T) {
	pq := nodePQ{}
	heap.Push(&pq, nodeItem{idx: 7, val: 1})
	heap.Push(&pq, nodeItem{idx: 3, val: 1})
	heap.Push(&pq, nodeItem{idx: 9, val: 0.5})

	var got []int
	for pq.Len() > 0 {
		got = append(got, heap.Pop(&pq).(nodeItem).idx)
	}
	assert.Equal(t, []int{9, 3, 7}, got)
}

func TestValidateOptions_Inverse(t *testing.T) {
	cfg := DefaultOptions()
	cfg.Diffusion = [3]float64{2, 1, 2}
	inv, err := validateOptions(cfg)
	require.NoError(t, err)
	// [[2,1],[1,2]]⁻¹ = ⅓[[2,−1],[−1,2]]
	assert.InDelta(t, 2.0/3, inv[0], 1e-12)
	assert.InDelta(t, -1.0/3, inv[1], 1e-12)
	assert.InDelta(t, 2.0/3, inv[2], 1e-12)
}

func TestSolve_Metrics(t *testing.T) {
	okBefore := testutil.ToFloat64(solveTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(solveTotal.WithLabelValues("error"))

	d, err := domain.New(-1, 1, -1, 1, 11, 11)
	require.NoError(t, err)
	f := drift.Func(func(x, y float64) (float64, float64) { return -x, -y })

	_, err = Solve(context.Background(), f, 0, 0, d)
	require.NoError(t, err)
	_, err = Solve(context.Background(), f, 1, 0, d)
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(solveTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(solveTotal.WithLabelValues("error")))
}
