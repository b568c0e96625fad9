// Package kv implements Redis-backed key-value persistence for circuit
// breaker state.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fixturecast/internal/resilience"
	"fixturecast/internal/resilience/circuit"
)

// CircuitStore persists circuit snapshots in Redis with a TTL. Entries
// expire on their own, so a long-idle service restarts from a fresh closed
// circuit rather than a stale open one.
type CircuitStore struct {
	rdb *redis.Client
}

// NewCircuitStore creates a Redis-backed circuit store.
func NewCircuitStore(rdb *redis.Client) *CircuitStore {
	return &CircuitStore{rdb: rdb}
}

func circuitKey(service resilience.Service) string {
	return fmt.Sprintf("circuit:state:%s", service)
}

// Load implements circuit.Store.
func (s *CircuitStore) Load(ctx context.Context, service resilience.Service) (*circuit.Snapshot, error) {
	data, err := s.rdb.Get(ctx, circuitKey(service)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, circuit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load circuit state: %w", err)
	}

	var snap circuit.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode circuit state: %w", err)
	}
	return &snap, nil
}

// Save implements circuit.Store.
func (s *CircuitStore) Save(ctx context.Context, service resilience.Service, snap circuit.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode circuit state: %w", err)
	}
	if err := s.rdb.Set(ctx, circuitKey(service), data, ttl).Err(); err != nil {
		return fmt.Errorf("save circuit state: %w", err)
	}
	return nil
}
