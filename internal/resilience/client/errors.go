package client

import (
	"fmt"
	"time"

	"fixturecast/internal/resilience"
	"fixturecast/internal/resilience/classify"
)

// CircuitOpenError is the fail-fast backpressure signal returned when the
// service's circuit is open. No network call was made, so it must never be
// classified or counted as a failed attempt.
type CircuitOpenError struct {
	Service    resilience.Service
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit open for %s, retry after %s", e.Service, e.RetryAfter)
}

// NonRetryableError wraps a failure the retry policy refuses to retry.
// It is surfaced to the caller immediately.
type NonRetryableError struct {
	Service  resilience.Service
	Category classify.Category
	Err      error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("%s: non-retryable %s failure: %v", e.Service, e.Category, e.Err)
}

func (e *NonRetryableError) Unwrap() error { return e.Err }

// ExhaustedRetriesError reports that the call's own retry budget ran out.
// Whether this becomes a job-level retry or a dead-letter entry is the job
// orchestrator's decision, not this package's.
type ExhaustedRetriesError struct {
	Service  resilience.Service
	Attempts int
	Category classify.Category
	Err      error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("%s: retries exhausted after %d attempts (%s): %v",
		e.Service, e.Attempts, e.Category, e.Err)
}

func (e *ExhaustedRetriesError) Unwrap() error { return e.Err }
