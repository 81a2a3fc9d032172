package oum

import (
	"context"
	"time"

	"github.com/katalvlaran/qpot/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("qpot.oum")

var (
	// solveTotal counts solves by result.
	solveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qpot_oum_solves_total",
		Help: "Local quasi-potential solves by result",
	}, []string{"result"})

	// solveDuration tracks wall time per solve.
	solveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qpot_oum_solve_duration_seconds",
		Help:    "Local quasi-potential solve duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~30s
	})

	// acceptedNodes tracks how many nodes each solve finalised.
	acceptedNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qpot_oum_accepted_nodes",
		Help:    "Nodes accepted per local solve",
		Buckets: prometheus.ExponentialBuckets(16, 4, 10),
	})
)

// startSolveSpan creates the span for one local solve.
func startSolveSpan(ctx context.Context, dom domain.Domain, x0, y0 float64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "oum.Solve",
		trace.WithAttributes(
			attribute.Int("oum.nx", dom.NX),
			attribute.Int("oum.ny", dom.NY),
			attribute.Float64("oum.x0", x0),
			attribute.Float64("oum.y0", y0),
		),
	)
}

// recordSolve sets span attributes and metrics for a finished solve.
func recordSolve(span trace.Span, local *Local, err error, elapsed time.Duration) {
	solveDuration.Observe(elapsed.Seconds())
	if err != nil {
		solveTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	result := "ok"
	if local.Approximate {
		result = "approximate"
	}
	solveTotal.WithLabelValues(result).Inc()
	acceptedNodes.Observe(float64(local.Stats.Accepted))
	span.SetAttributes(
		attribute.Int("oum.accepted", local.Stats.Accepted),
		attribute.Bool("oum.boundary_hit", local.Stats.BoundaryHit),
		attribute.Bool("oum.approximate", local.Approximate),
	)
}
