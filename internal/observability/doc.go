// Package observability provides production-grade observability infrastructure
// including structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry client spans around upstream calls
//
// Example usage:
//
//	import (
//	    "fixturecast/internal/observability/logging"
//	    "fixturecast/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("janitor started")
//
//	    metrics.RecordRetryAttempt("sports-data", "timeout")
//	}
package observability
