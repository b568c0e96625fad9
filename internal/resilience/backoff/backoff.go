// Package backoff computes retry delays. Delays are deliberately non-uniform
// across failure categories: a rate-limited call and a flaky network call
// recover on different clocks, and treating them identically either wastes
// wall time or hammers a struggling dependency.
package backoff

import (
	"math"
	"math/rand"
	"time"

	"fixturecast/internal/resilience/classify"
)

// Defaults used when a zero-valued Policy is given.
const (
	DefaultBaseDelay = 1 * time.Second
	DefaultMaxDelay  = 60 * time.Second

	rateLimitDelay = 60 * time.Second
	timeoutStep    = 5 * time.Second
	timeoutCap     = 30 * time.Second
	parseBase      = 5 * time.Second
	parseCap       = 20 * time.Second
	clientCap      = 10 * time.Second
	jitterFraction = 0.3
)

// Policy computes per-attempt delays for one call site.
type Policy struct {
	// BaseDelay seeds the exponential categories.
	BaseDelay time.Duration

	// MaxDelay caps the exponential categories (ServerError, NetworkError,
	// Unknown). Category-specific caps below this still apply.
	MaxDelay time.Duration

	// HonorRetryAfter, when true, lets a server-advertised retry-after
	// value override the fixed rate-limit delay. Off by default: external
	// quota windows reset on a fixed clock and the advertised value is not
	// always trustworthy.
	HonorRetryAfter bool

	// rng overrides the jitter source in tests.
	rng func() float64
}

// Delay returns how long to sleep before retry number attempt (1-based)
// for a failure of the given category.
func (p Policy) Delay(attempt int, cat classify.Category) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	switch cat {
	case classify.RateLimit:
		// Quota windows reset on a fixed cadence; escalation wastes time.
		return rateLimitDelay

	case classify.Timeout:
		// Load spikes clear quickly; linear growth recovers faster than
		// exponential.
		d := time.Duration(attempt) * timeoutStep
		return minDuration(d, timeoutCap)

	case classify.ParseError:
		// Malformed model output is often transient.
		d := scale(parseBase, attempt-1)
		return minDuration(d, parseCap)

	case classify.ServerError, classify.NetworkError:
		d := scale(base, attempt)
		return minDuration(d+p.jitter(d), maxDelay)

	case classify.ClientError:
		d := scale(base, attempt)
		return minDuration(d, clientCap)

	default:
		d := scale(base, attempt)
		return minDuration(d, maxDelay)
	}
}

// DelayWithRetryAfter is Delay, except that in header-aware mode a positive
// server-advertised retryAfter wins for rate-limit failures.
func (p Policy) DelayWithRetryAfter(attempt int, cat classify.Category, retryAfter time.Duration) time.Duration {
	if p.HonorRetryAfter && cat == classify.RateLimit && retryAfter > 0 {
		return retryAfter
	}
	return p.Delay(attempt, cat)
}

func (p Policy) jitter(d time.Duration) time.Duration {
	f := rand.Float64
	if p.rng != nil {
		f = p.rng
	}
	// #nosec G404 -- math/rand is fine for backoff jitter; no security use.
	return time.Duration(f() * jitterFraction * float64(d))
}

// scale returns base * 2^exp, saturating instead of overflowing.
func scale(base time.Duration, exp int) time.Duration {
	if exp <= 0 {
		return base
	}
	if exp > 30 {
		return time.Duration(math.MaxInt64)
	}
	mult := int64(1) << uint(exp)
	if int64(base) > math.MaxInt64/mult {
		return time.Duration(math.MaxInt64)
	}
	return base * time.Duration(mult)
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
