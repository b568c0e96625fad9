package metrics

import "time"

// Circuit state gauge values. These mirror the circuit package's state
// ordering without importing it (metrics stays dependency-free).
const (
	circuitClosed   = 0
	circuitHalfOpen = 1
	circuitOpen     = 2
)

// RecordCircuitState updates the state gauge for a service.
// State should be one of "closed", "half-open", "open".
func RecordCircuitState(service, state string) {
	var v float64
	switch state {
	case "half-open":
		v = circuitHalfOpen
	case "open":
		v = circuitOpen
	default:
		v = circuitClosed
	}
	CircuitState.WithLabelValues(service).Set(v)
}

// RecordCircuitTransition records a circuit breaker state transition.
func RecordCircuitTransition(service, from, to string) {
	CircuitTransitionsTotal.WithLabelValues(service, from, to).Inc()
	RecordCircuitState(service, to)
}

// RecordCircuitPersistFailure records a failed best-effort persistence write.
func RecordCircuitPersistFailure(service string) {
	CircuitPersistFailuresTotal.WithLabelValues(service).Inc()
}

// RecordOutboundRequest records the outcome and duration of a single
// outbound attempt. Outcome should be "success", "failure" or "circuit_open".
func RecordOutboundRequest(service, outcome string, duration time.Duration) {
	OutboundRequestsTotal.WithLabelValues(service, outcome).Inc()
	if outcome != "circuit_open" {
		OutboundRequestDuration.WithLabelValues(service).Observe(duration.Seconds())
	}
}

// RecordRetryAttempt records a retry scheduled for the given failure category.
func RecordRetryAttempt(service, category string) {
	RetryAttemptsTotal.WithLabelValues(service, category).Inc()
}

// RecordThrottleSleep records a proactive sleep spreading the tail of a
// rate-limit window.
func RecordThrottleSleep(service string) {
	ThrottleSleepsTotal.WithLabelValues(service).Inc()
}

// UpdateDeadLettersTotal updates the dead-letter backlog gauge for a queue.
// This gauge should be refreshed periodically to reflect the current state.
func UpdateDeadLettersTotal(queue string, count int64) {
	DeadLettersTotal.WithLabelValues(queue).Set(float64(count))
}

// RecordDeadLetterRequeue records the result of a requeue operation.
// Status should be either "success" or "failure".
func RecordDeadLetterRequeue(queue string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	DeadLetterRequeuesTotal.WithLabelValues(queue, status).Inc()
}
