package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the fixturecast resilience core.
var tracer = otel.Tracer("fixturecast")

// GetTracer returns the global tracer for creating spans.
//
// Example usage:
//
//	ctx, span := tracing.GetTracer().Start(ctx, "operation-name")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}

// StartOutboundSpan starts a client span for an upstream service call. The
// span carries the service and operation names so traces group per upstream.
func StartOutboundSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("peer.service", service)),
	)
	return ctx, span
}
