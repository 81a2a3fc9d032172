package oum_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/qpot/domain"
	"github.com/katalvlaran/qpot/drift"
	"github.com/katalvlaran/qpot/oum"
)

// BenchmarkSolve_Rotational fills a 201×201 grid around a rotating focus.
// Complexity: O(N·K²·log N).
func BenchmarkSolve_Rotational(b *testing.B) {
	dom, err := domain.New(-1, 1, -1, 1, 201, 201)
	if err != nil {
		b.Fatalf("setup domain failed: %v", err)
	}
	m, _ := drift.Lookup("rotational")
	field, _ := m.Bind(nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := oum.Solve(context.Background(), field, 0, 0, dom, oum.WithStopAtBoundary(false)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkSolve_Radius compares update radii on a 101×101 grid.
func BenchmarkSolve_Radius(b *testing.B) {
	dom, _ := domain.New(-1, 1, -1, 1, 101, 101)
	m, _ := drift.Lookup("rotational")
	field, _ := m.Bind(drift.Params{"omega": 3})

	for _, k := range []int{2, 5, 8} {
		b.Run("K="+string(rune('0'+k)), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := oum.Solve(context.Background(), field, 0, 0, dom,
					oum.WithStopAtBoundary(false), oum.WithUpdateRadius(k)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
