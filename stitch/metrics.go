package stitch

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("qpot.stitch")

var (
	// stitchTotal counts stitch runs by policy and result.
	stitchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qpot_stitch_runs_total",
		Help: "Global stitch runs by policy and result",
	}, []string{"policy", "result"})

	// alignmentFailures counts runs rejected with an AlignmentError.
	alignmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qpot_stitch_alignment_failures_total",
		Help: "Stitch runs that failed to align basins",
	})
)

func startStitchSpan(ctx context.Context, surfaces, saddles int, cfg Options) (context.Context, trace.Span) {
	policy := "none"
	if cfg.Policy != nil {
		policy = cfg.Policy.Name()
	}

	return tracer.Start(ctx, "stitch.Stitch",
		trace.WithAttributes(
			attribute.Int("stitch.surfaces", surfaces),
			attribute.Int("stitch.saddles", saddles),
			attribute.String("stitch.policy", policy),
		),
	)
}

func recordStitch(span trace.Span, cfg Options, g *Global, err error) {
	policy := "none"
	if cfg.Policy != nil {
		policy = cfg.Policy.Name()
	}
	if err != nil {
		stitchTotal.WithLabelValues(policy, "error").Inc()
		if _, ok := IsAlignment(err); ok {
			alignmentFailures.Inc()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	stitchTotal.WithLabelValues(policy, "ok").Inc()
	span.SetAttributes(attribute.Int("stitch.defined", g.Surface.Count()))
}
