// Package metrics provides centralized Prometheus metrics for the resilience core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Circuit breaker metrics track per-service health state
var (
	// CircuitState reports the current state per service (0=closed, 1=half-open, 2=open)
	CircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service"},
	)

	// CircuitTransitionsTotal counts state transitions per service
	CircuitTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"service", "from", "to"},
	)

	// CircuitPersistFailuresTotal counts best-effort state persistence failures
	CircuitPersistFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_persist_failures_total",
			Help: "Total number of failed circuit state persistence writes",
		},
		[]string{"service"},
	)
)

// Outbound call metrics track the retrying client
var (
	// OutboundRequestsTotal counts outbound requests by service and outcome
	OutboundRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbound_requests_total",
			Help: "Total number of outbound requests",
		},
		[]string{"service", "outcome"},
	)

	// OutboundRequestDuration measures single-attempt duration in seconds
	OutboundRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "outbound_request_duration_seconds",
			Help:    "Outbound request attempt duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service"},
	)

	// RetryAttemptsTotal counts retries by service and failure category
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts",
		},
		[]string{"service", "category"},
	)

	// ThrottleSleepsTotal counts proactive rate-limit throttle sleeps
	ThrottleSleepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "throttle_sleeps_total",
			Help: "Total number of proactive rate-limit throttle sleeps",
		},
		[]string{"service"},
	)
)

// Dead letter metrics track the failure backlog
var (
	// DeadLettersTotal tracks the current number of dead-letter entries per queue
	DeadLettersTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dead_letters_total",
			Help: "Current number of dead-letter entries",
		},
		[]string{"queue"},
	)

	// DeadLetterRequeuesTotal counts requeue operations by outcome
	DeadLetterRequeuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dead_letter_requeues_total",
			Help: "Total number of dead-letter requeue operations",
		},
		[]string{"queue", "status"},
	)
)
