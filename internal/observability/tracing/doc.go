// Package tracing provides OpenTelemetry tracing integration.
//
// The resilience client opens a client span per upstream call and annotates
// it with retry attempts, failure categories and the final outcome. Exporter
// wiring lives with the binaries; this package only owns span creation.
//
// Example usage:
//
//	ctx, span := tracing.StartOutboundSpan(ctx, "inference", "submit batch")
//	defer span.End()
package tracing
