package circuit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fixturecast/internal/observability/metrics"
	"fixturecast/internal/resilience"
)

const (
	// persistTTL bounds how long stale state survives in the store. A
	// restart after a long outage starts from a fresh closed circuit.
	persistTTL = 10 * time.Minute

	// persistTimeout bounds the background write so a slow store cannot
	// pile up goroutines indefinitely.
	persistTimeout = 2 * time.Second

	// loadTimeout bounds the one-shot state load on first reference.
	loadTimeout = 2 * time.Second
)

// Registry owns one breaker per service. All access goes through the
// registry; there are no process-wide singletons, so tests and callers can
// construct isolated instances.
type Registry struct {
	mu        sync.Mutex
	breakers  map[resilience.Service]*breaker
	attempted map[resilience.Service]bool

	defaults  Config
	overrides map[resilience.Service]Config

	store  Store
	logger *slog.Logger

	// now is replaced in tests to control the clock.
	now func() time.Time
}

type breaker struct {
	cfg  Config
	snap Snapshot
}

// NewRegistry creates a registry with the given default configuration.
// store may be nil, in which case state lives only in memory.
func NewRegistry(defaults Config, store Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		breakers:  make(map[resilience.Service]*breaker),
		attempted: make(map[resilience.Service]bool),
		defaults:  defaults,
		overrides: make(map[resilience.Service]Config),
		store:     store,
		logger:    logger,
		now:       time.Now,
	}
}

// Configure sets a per-service override. Must be called before traffic for
// that service; an existing breaker keeps its config.
func (r *Registry) Configure(service resilience.Service, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[service] = cfg
}

// IsOpen reports whether calls to the service should be rejected right now.
// An open circuit whose reset timeout has elapsed flips to half-open and
// admits the caller as a probe.
func (r *Registry) IsOpen(service resilience.Service) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.get(service)
	switch b.snap.State {
	case StateClosed, StateHalfOpen:
		return false
	default: // StateOpen
		if r.now().Sub(b.snap.LastFailureAt) >= b.cfg.ResetTimeout {
			r.transition(b, StateHalfOpen)
			b.snap.Successes = 0
			r.persist(b.snap)
			return false
		}
		return true
	}
}

// RecordSuccess reports a successful call to the service.
func (r *Registry) RecordSuccess(service resilience.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.get(service)
	b.snap.TotalSuccesses++

	switch b.snap.State {
	case StateClosed:
		b.snap.Failures = 0
	case StateHalfOpen:
		b.snap.Successes++
		if b.snap.Successes >= b.cfg.RequiredHalfOpenSuccesses {
			r.transition(b, StateClosed)
			b.snap.Failures = 0
			b.snap.Successes = 0
		}
	}
	r.persist(b.snap)
}

// RecordFailure reports a failed call to the service.
func (r *Registry) RecordFailure(service resilience.Service, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.get(service)
	b.snap.Failures++
	b.snap.TotalFailures++
	b.snap.LastFailureAt = r.now()

	switch b.snap.State {
	case StateHalfOpen:
		// One failed probe is enough evidence the service is still down.
		r.transition(b, StateOpen)
	case StateClosed:
		if b.snap.Failures >= b.cfg.FailureThreshold {
			r.transition(b, StateOpen)
			r.logger.Warn("circuit opened",
				slog.String("service", string(service)),
				slog.Int("failures", b.snap.Failures),
				slog.Any("error", err))
		}
	}
	r.persist(b.snap)
}

// Status returns a snapshot of the service's breaker. RetryAfter is filled
// in when the circuit is open.
func (r *Registry) Status(service resilience.Service) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.get(service)
	snap := b.snap
	if snap.State == StateOpen {
		if remaining := b.cfg.ResetTimeout - r.now().Sub(snap.LastFailureAt); remaining > 0 {
			snap.RetryAfter = remaining
		}
	}
	return snap
}

// AllStatuses returns snapshots for every service referenced so far.
func (r *Registry) AllStatuses() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Snapshot, 0, len(r.breakers))
	for _, b := range r.breakers {
		out = append(out, b.snap)
	}
	return out
}

// Reset forces the service's breaker back to closed with zeroed counters.
// Lifetime totals are preserved. Intended for operator tooling.
func (r *Registry) Reset(service resilience.Service) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.get(service)
	if b.snap.State != StateClosed {
		r.transition(b, StateClosed)
	}
	b.snap.Failures = 0
	b.snap.Successes = 0
	r.logger.Info("circuit reset", slog.String("service", string(service)))
	r.persist(b.snap)
}

// get returns the breaker for a service, creating it lazily. The first
// reference attempts one load from the store; the attempt is never repeated
// for the process lifetime, even when it fails.
func (r *Registry) get(service resilience.Service) *breaker {
	if b, ok := r.breakers[service]; ok {
		return b
	}

	b := &breaker{
		cfg: r.configFor(service),
		snap: Snapshot{
			Service:         service,
			State:           StateClosed,
			LastStateChange: r.now(),
		},
	}

	if r.store != nil && !r.attempted[service] {
		r.attempted[service] = true
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		if snap, err := r.store.Load(ctx, service); err == nil {
			snap.Service = service
			b.snap = *snap
			r.logger.Info("circuit state restored",
				slog.String("service", string(service)),
				slog.String("state", snap.State.String()))
		} else if !errors.Is(err, ErrNotFound) {
			r.logger.Warn("circuit state load failed",
				slog.String("service", string(service)),
				slog.Any("error", err))
		}
	}

	metrics.RecordCircuitState(string(service), b.snap.State.String())
	r.breakers[service] = b
	return b
}

func (r *Registry) configFor(service resilience.Service) Config {
	if cfg, ok := r.overrides[service]; ok {
		return cfg
	}
	return r.defaults
}

// transition moves a breaker to a new state. Callers hold the registry lock
// and are responsible for any counter resets the transition implies.
func (r *Registry) transition(b *breaker, to State) {
	from := b.snap.State
	b.snap.State = to
	b.snap.LastStateChange = r.now()
	metrics.RecordCircuitTransition(string(b.snap.Service), from.String(), to.String())
	r.logger.Warn("circuit state changed",
		slog.String("service", string(b.snap.Service)),
		slog.String("from", from.String()),
		slog.String("to", to.String()))
}

// persist writes the snapshot to the store without blocking the caller.
// Failures are logged and swallowed; persistence must never delay or fail
// the hot path.
func (r *Registry) persist(snap Snapshot) {
	if r.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := r.store.Save(ctx, snap.Service, snap, persistTTL); err != nil {
			metrics.RecordCircuitPersistFailure(string(snap.Service))
			r.logger.Warn("circuit state persistence failed",
				slog.String("service", string(snap.Service)),
				slog.Any("error", err))
		}
	}()
}
