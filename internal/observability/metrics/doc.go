// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all resilience-core metrics including:
//   - Circuit breaker state and transition metrics
//   - Outbound request metrics (duration, count, retries)
//   - Rate-limit throttle metrics
//   - Dead-letter backlog metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the consuming process's /metrics endpoint.
//
// Example usage:
//
//	import "fixturecast/internal/observability/metrics"
//
//	func callSportsAPI() {
//	    start := time.Now()
//	    // ... issue the request ...
//	    metrics.RecordOutboundRequest("sports-data", "success", time.Since(start))
//	}
package metrics
