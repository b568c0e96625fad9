package client

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"fixturecast/internal/resilience"
)

// throttleThreshold is the remaining-request count below which the client
// starts spreading calls across the rest of the window.
const throttleThreshold = 5

// RateLimitSnapshot is the advisory quota state for one service, updated
// from response metadata. It is read-then-acted-upon without strict
// synchronization: a slightly stale read only mistunes the throttle.
type RateLimitSnapshot struct {
	Remaining int
	ResetAt   time.Time
}

// limitTracker holds the latest snapshot per service with atomic replace
// semantics.
type limitTracker struct {
	snapshots sync.Map // resilience.Service -> RateLimitSnapshot
}

func (t *limitTracker) get(service resilience.Service) (RateLimitSnapshot, bool) {
	v, ok := t.snapshots.Load(service)
	if !ok {
		return RateLimitSnapshot{}, false
	}
	return v.(RateLimitSnapshot), true
}

func (t *limitTracker) set(service resilience.Service, snap RateLimitSnapshot) {
	t.snapshots.Store(service, snap)
}

// updateFromHeaders records rate-limit metadata when the response carries it.
// Both epoch-seconds and delta-seconds reset values are seen in the wild;
// anything above 10^9 is treated as an epoch.
func (t *limitTracker) updateFromHeaders(service resilience.Service, header http.Header, now time.Time) {
	remaining := header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return
	}
	n, err := strconv.Atoi(remaining)
	if err != nil {
		return
	}

	snap := RateLimitSnapshot{Remaining: n, ResetAt: now.Add(time.Minute)}
	if reset := header.Get("X-RateLimit-Reset"); reset != "" {
		if v, err := strconv.ParseInt(reset, 10, 64); err == nil {
			if v > 1_000_000_000 {
				snap.ResetAt = time.Unix(v, 0)
			} else if v >= 0 {
				snap.ResetAt = now.Add(time.Duration(v) * time.Second)
			}
		}
	}
	t.set(service, snap)
}

// throttleDelay returns how long the caller should wait before issuing the
// next request, spreading the last few allowed requests across the remainder
// of the window instead of bursting them.
func throttleDelay(snap RateLimitSnapshot, now time.Time) time.Duration {
	// Some APIs send a negative remaining count as an "unlimited" sentinel.
	if snap.Remaining < 0 {
		return 0
	}
	if snap.Remaining > throttleThreshold || !snap.ResetAt.After(now) {
		return 0
	}
	return snap.ResetAt.Sub(now) / time.Duration(snap.Remaining+1)
}

// retryAfterFromHeaders extracts a server-advertised Retry-After delay, if
// any. Used only in header-aware backoff mode.
func retryAfterFromHeaders(header http.Header, now time.Time) time.Duration {
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
