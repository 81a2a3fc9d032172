package decompose

import (
	"context"

	"github.com/katalvlaran/qpot/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("qpot.decompose")

var (
	// decomposeTotal counts runs by result: ok, warning or error.
	decomposeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qpot_decompose_runs_total",
		Help: "Vector field decompositions by result",
	}, []string{"result"})

	// orthogonalityViolations counts nodes failing the orthogonality check.
	orthogonalityViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qpot_decompose_orthogonality_violations_total",
		Help: "Nodes where gradient and remainder were not orthogonal",
	})
)

func startDecomposeSpan(ctx context.Context, dom domain.Domain) (context.Context, trace.Span) {
	return tracer.Start(ctx, "decompose.Decompose",
		trace.WithAttributes(
			attribute.Int("decompose.nx", dom.NX),
			attribute.Int("decompose.ny", dom.NY),
		),
	)
}

func recordDecompose(span trace.Span, f *Fields, err error) {
	if err != nil {
		decomposeTotal.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	result := "ok"
	if len(f.Warnings) > 0 {
		result = "warning"
	}
	decomposeTotal.WithLabelValues(result).Inc()
	orthogonalityViolations.Add(float64(f.Report.Violations))
	span.SetAttributes(
		attribute.Int("decompose.checked", f.Report.Checked),
		attribute.Int("decompose.violations", f.Report.Violations),
		attribute.Float64("decompose.max_cosine", f.Report.MaxCosine),
	)
}
