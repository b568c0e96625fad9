// Package resilience provides the fault tolerance core that shields the
// background job pipeline from unstable external dependencies.
//
// The package supports:
//   - Per-service circuit breakers with durable state (circuit)
//   - Failure classification into a fixed category set (classify)
//   - Category-aware retry backoff (backoff)
//   - A retrying outbound HTTP client composing the above (client)
//
// Usage Example:
//
//	reg := circuit.NewRegistry(circuit.DefaultConfig(), store, logger)
//	c := client.New(http.DefaultClient, reg, logger)
//	resp, err := c.Execute(ctx, req, client.DefaultRetryPolicy(), 30*time.Second, resilience.ServiceSportsData)
package resilience
