package circuit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixturecast/internal/resilience"
)

const testService = resilience.ServiceSportsData

// memStore is an in-memory Store recording every save.
type memStore struct {
	mu    sync.Mutex
	data  map[resilience.Service]Snapshot
	saves int
	fail  bool
}

func newMemStore() *memStore {
	return &memStore{data: make(map[resilience.Service]Snapshot)}
}

func (s *memStore) Load(_ context.Context, service resilience.Service) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("store unavailable")
	}
	snap, ok := s.data[service]
	if !ok {
		return nil, ErrNotFound
	}
	return &snap, nil
}

func (s *memStore) Save(_ context.Context, service resilience.Service, snap Snapshot, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.fail {
		return errors.New("store unavailable")
	}
	s.data[service] = snap
	return nil
}

func (s *memStore) get(service resilience.Service) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.data[service]
	return snap, ok
}

// testRegistry returns a registry with a controllable clock.
func testRegistry(cfg Config, store Store) (*Registry, *time.Time) {
	r := NewRegistry(cfg, store, nil)
	now := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	return r, &now
}

func TestRegistry_ClosedNeverOpen(t *testing.T) {
	r, _ := testRegistry(DefaultConfig(), nil)

	for i := 0; i < 1000; i++ {
		if r.IsOpen(testService) {
			t.Fatal("closed circuit reported open")
		}
	}
}

func TestRegistry_OpensAtThreshold(t *testing.T) {
	r, _ := testRegistry(DefaultConfig(), nil)
	failure := errors.New("upstream returned 503")

	for i := 0; i < 4; i++ {
		r.RecordFailure(testService, failure)
		assert.False(t, r.IsOpen(testService), "open after only %d failures", i+1)
	}

	r.RecordFailure(testService, failure)
	assert.True(t, r.IsOpen(testService), "still closed after threshold failures")
	assert.Equal(t, StateOpen, r.Status(testService).State)
}

func TestRegistry_SuccessResetsClosedFailures(t *testing.T) {
	r, _ := testRegistry(DefaultConfig(), nil)
	failure := errors.New("boom")

	for i := 0; i < 4; i++ {
		r.RecordFailure(testService, failure)
	}
	r.RecordSuccess(testService)
	// The streak restarted: four more failures must not trip it.
	for i := 0; i < 4; i++ {
		r.RecordFailure(testService, failure)
	}
	assert.False(t, r.IsOpen(testService))

	r.RecordFailure(testService, failure)
	assert.True(t, r.IsOpen(testService))
}

func TestRegistry_OpenToHalfOpenAfterResetTimeout(t *testing.T) {
	cfg := Config{FailureThreshold: 5, ResetTimeout: 30 * time.Second, RequiredHalfOpenSuccesses: 3}
	r, now := testRegistry(cfg, nil)
	failure := errors.New("boom")

	for i := 0; i < 5; i++ {
		r.RecordFailure(testService, failure)
	}
	require.True(t, r.IsOpen(testService))

	*now = now.Add(29999 * time.Millisecond)
	assert.True(t, r.IsOpen(testService), "open circuit admitted traffic before reset timeout")

	*now = now.Add(2 * time.Millisecond)
	assert.False(t, r.IsOpen(testService), "circuit did not admit probe after reset timeout")
	assert.Equal(t, StateHalfOpen, r.Status(testService).State)

	// One failed probe snaps it back open.
	r.RecordFailure(testService, failure)
	assert.True(t, r.IsOpen(testService))
}

func TestRegistry_HalfOpenClosesAfterRequiredSuccesses(t *testing.T) {
	cfg := Config{FailureThreshold: 2, ResetTimeout: 10 * time.Second, RequiredHalfOpenSuccesses: 3}
	r, now := testRegistry(cfg, nil)

	r.RecordFailure(testService, errors.New("boom"))
	r.RecordFailure(testService, errors.New("boom"))
	*now = now.Add(11 * time.Second)
	require.False(t, r.IsOpen(testService))
	require.Equal(t, StateHalfOpen, r.Status(testService).State)

	r.RecordSuccess(testService)
	r.RecordSuccess(testService)
	assert.Equal(t, StateHalfOpen, r.Status(testService).State, "closed before required successes")

	r.RecordSuccess(testService)
	snap := r.Status(testService)
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.Failures)
	assert.Equal(t, 0, snap.Successes)
}

func TestRegistry_HalfOpenSuccessesResetOnReopen(t *testing.T) {
	cfg := Config{FailureThreshold: 1, ResetTimeout: 10 * time.Second, RequiredHalfOpenSuccesses: 2}
	r, now := testRegistry(cfg, nil)

	r.RecordFailure(testService, errors.New("boom"))
	*now = now.Add(11 * time.Second)
	require.False(t, r.IsOpen(testService))

	r.RecordSuccess(testService)
	r.RecordFailure(testService, errors.New("boom")) // back to open
	*now = now.Add(11 * time.Second)
	require.False(t, r.IsOpen(testService)) // half-open again

	// The earlier probe success must not carry over.
	r.RecordSuccess(testService)
	assert.Equal(t, StateHalfOpen, r.Status(testService).State)
	r.RecordSuccess(testService)
	assert.Equal(t, StateClosed, r.Status(testService).State)
}

func TestRegistry_Reset(t *testing.T) {
	r, _ := testRegistry(Config{FailureThreshold: 1, ResetTimeout: time.Hour, RequiredHalfOpenSuccesses: 3}, nil)

	r.RecordFailure(testService, errors.New("boom"))
	require.True(t, r.IsOpen(testService))

	r.Reset(testService)
	snap := r.Status(testService)
	assert.Equal(t, StateClosed, snap.State)
	assert.Equal(t, 0, snap.Failures)
	assert.False(t, r.IsOpen(testService))
	// Lifetime totals survive an operator reset.
	assert.Equal(t, int64(1), snap.TotalFailures)
}

func TestRegistry_StatusRetryAfter(t *testing.T) {
	cfg := Config{FailureThreshold: 1, ResetTimeout: 30 * time.Second, RequiredHalfOpenSuccesses: 3}
	r, now := testRegistry(cfg, nil)

	r.RecordFailure(testService, errors.New("boom"))
	*now = now.Add(10 * time.Second)

	snap := r.Status(testService)
	assert.Equal(t, StateOpen, snap.State)
	assert.Equal(t, 20*time.Second, snap.RetryAfter)
}

func TestRegistry_PerServiceIsolation(t *testing.T) {
	r, _ := testRegistry(Config{FailureThreshold: 1, ResetTimeout: time.Hour, RequiredHalfOpenSuccesses: 3}, nil)

	r.RecordFailure(resilience.ServiceInference, errors.New("boom"))

	assert.True(t, r.IsOpen(resilience.ServiceInference))
	assert.False(t, r.IsOpen(resilience.ServiceSportsData))
	assert.False(t, r.IsOpen(resilience.ServiceContent))
	assert.Len(t, r.AllStatuses(), 3)
}

func TestRegistry_PerServiceOverride(t *testing.T) {
	r, _ := testRegistry(DefaultConfig(), nil)
	r.Configure(resilience.ServiceContent, Config{FailureThreshold: 1, ResetTimeout: time.Hour, RequiredHalfOpenSuccesses: 1})

	r.RecordFailure(resilience.ServiceContent, errors.New("boom"))
	assert.True(t, r.IsOpen(resilience.ServiceContent))

	r.RecordFailure(resilience.ServiceSportsData, errors.New("boom"))
	assert.False(t, r.IsOpen(resilience.ServiceSportsData), "default threshold should still apply")
}

func TestRegistry_ConcurrentFailuresDoNotLoseUpdates(t *testing.T) {
	r, _ := testRegistry(Config{FailureThreshold: 1 << 30, ResetTimeout: time.Hour, RequiredHalfOpenSuccesses: 3}, nil)

	const workers = 16
	const perWorker = 250
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				r.RecordFailure(testService, errors.New("boom"))
			}
		}()
	}
	wg.Wait()

	snap := r.Status(testService)
	assert.Equal(t, workers*perWorker, snap.Failures)
	assert.Equal(t, int64(workers*perWorker), snap.TotalFailures)
}

func TestRegistry_PersistsOnMutation(t *testing.T) {
	store := newMemStore()
	r, _ := testRegistry(DefaultConfig(), store)

	r.RecordFailure(testService, errors.New("boom"))

	require.Eventually(t, func() bool {
		snap, ok := store.get(testService)
		return ok && snap.Failures == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRegistry_PersistFailureDoesNotPropagate(t *testing.T) {
	store := newMemStore()
	store.fail = true
	r, _ := testRegistry(DefaultConfig(), store)

	// Mutations must succeed even when every store write fails.
	r.RecordFailure(testService, errors.New("boom"))
	r.RecordSuccess(testService)
	assert.Equal(t, StateClosed, r.Status(testService).State)
}

func TestRegistry_RestoresPersistedState(t *testing.T) {
	store := newMemStore()
	r1, now := testRegistry(DefaultConfig(), store)

	failure := errors.New("boom")
	for i := 0; i < 5; i++ {
		r1.RecordFailure(testService, failure)
	}
	r1.RecordFailure(testService, failure)

	require.Eventually(t, func() bool {
		snap, ok := store.get(testService)
		return ok && snap.TotalFailures == 6
	}, time.Second, 5*time.Millisecond)

	// A fresh registry (simulated process restart) sees identical state.
	r2, _ := testRegistry(DefaultConfig(), store)
	r2.now = func() time.Time { return *now }

	want := r1.Status(testService)
	got := r2.Status(testService)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("restored state mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, r2.IsOpen(testService))
}

func TestRegistry_LoadAttemptedOncePerService(t *testing.T) {
	store := newMemStore()
	store.fail = true
	r, _ := testRegistry(DefaultConfig(), store)

	r.IsOpen(testService)
	r.IsOpen(testService)
	r.RecordSuccess(testService)

	// The breaker is created on first reference; even a failed load is
	// never retried.
	assert.True(t, r.attempted[testService])
}
