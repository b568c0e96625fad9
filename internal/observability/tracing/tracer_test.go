package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withTestProvider(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(sdktrace.NewTracerProvider()) })
	// The package-level tracer is bound at init; rebind it to the test provider.
	tracer = otel.Tracer("fixturecast")
	return exporter
}

func TestGetTracer(t *testing.T) {
	if GetTracer() == nil {
		t.Fatal("expected non-nil tracer")
	}
}

func TestStartOutboundSpan(t *testing.T) {
	exporter := withTestProvider(t)

	ctx, span := StartOutboundSpan(context.Background(), "sports-data", "fetch fixtures")
	if !span.SpanContext().IsValid() {
		t.Fatal("expected a valid span context")
	}
	if !trace.SpanFromContext(ctx).SpanContext().Equal(span.SpanContext()) {
		t.Error("expected span to be attached to the returned context")
	}
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 exported span, got %d", len(spans))
	}
	got := spans[0]
	if got.Name != "fetch fixtures" {
		t.Errorf("expected span name 'fetch fixtures', got %q", got.Name)
	}
	if got.SpanKind != trace.SpanKindClient {
		t.Errorf("expected client span kind, got %v", got.SpanKind)
	}

	found := false
	for _, attr := range got.Attributes {
		if attr.Key == attribute.Key("peer.service") && attr.Value.AsString() == "sports-data" {
			found = true
		}
	}
	if !found {
		t.Error("expected peer.service attribute to be set")
	}
}
