// Package circuit implements per-service circuit breakers with best-effort
// durable state. Each external service gets one breaker; callers ask the
// registry whether a call may proceed and report outcomes back to it.
package circuit

import (
	"errors"
	"time"

	"fixturecast/internal/resilience"
)

// State is the circuit breaker state.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler for persistence.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "closed":
		*s = StateClosed
	case "half-open":
		*s = StateHalfOpen
	case "open":
		*s = StateOpen
	default:
		return errors.New("invalid circuit state " + string(text))
	}
	return nil
}

// Config holds the tunables for one circuit breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures in the closed
	// state that trips the circuit open.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before the next
	// caller is let through as a probe.
	ResetTimeout time.Duration

	// RequiredHalfOpenSuccesses is the number of consecutive successful
	// probes needed to close the circuit again. More than one guards
	// against reopening on a single lucky probe.
	RequiredHalfOpenSuccesses int
}

// DefaultConfig returns the default circuit breaker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:          5,
		ResetTimeout:              30 * time.Second,
		RequiredHalfOpenSuccesses: 3,
	}
}

// SportsDataConfig returns configuration tuned for the sports-data API.
// The API is generally stable; a standard threshold and a short reset
// timeout keep fixture syncs flowing.
func SportsDataConfig() Config {
	return Config{
		FailureThreshold:          5,
		ResetTimeout:              30 * time.Second,
		RequiredHalfOpenSuccesses: 3,
	}
}

// InferenceConfig returns configuration tuned for the batch LLM-inference
// API. Inference outages tend to last minutes, so the circuit rests longer
// before probing.
func InferenceConfig() Config {
	return Config{
		FailureThreshold:          5,
		ResetTimeout:              60 * time.Second,
		RequiredHalfOpenSuccesses: 3,
	}
}

// ContentConfig returns configuration tuned for the long-form LLM-content
// API. Content generation is expensive; trip earlier and probe cautiously.
func ContentConfig() Config {
	return Config{
		FailureThreshold:          3,
		ResetTimeout:              60 * time.Second,
		RequiredHalfOpenSuccesses: 3,
	}
}

// Snapshot is a point-in-time copy of one breaker's state. It is both the
// read model for operator tooling and the persistence format.
type Snapshot struct {
	Service         resilience.Service `json:"service"`
	State           State              `json:"state"`
	Failures        int                `json:"failures"`
	Successes       int                `json:"successes"`
	LastFailureAt   time.Time          `json:"last_failure_at"`
	LastStateChange time.Time          `json:"last_state_change"`
	TotalFailures   int64              `json:"total_failures"`
	TotalSuccesses  int64              `json:"total_successes"`

	// RetryAfter is the estimated time until the circuit would admit a
	// probe. Zero unless the snapshot was taken while open.
	RetryAfter time.Duration `json:"-"`
}
