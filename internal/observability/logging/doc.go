// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Service and queue name propagation
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "fixturecast/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func callUpstream(ctx context.Context) {
//	    logger := logging.WithService(slog.Default(), "sports-data")
//	    logger.Info("requesting fixtures")
//	}
package logging
