package circuit

import (
	"context"
	"errors"
	"time"

	"fixturecast/internal/resilience"
)

// ErrNotFound is returned by a Store when no state is persisted for a service.
var ErrNotFound = errors.New("circuit state not found")

// Store persists circuit state across process restarts. Implementations must
// treat writes as best-effort: a Save failure is logged by the registry and
// never surfaced to callers on the hot path.
type Store interface {
	// Load returns the persisted snapshot for a service, or ErrNotFound.
	Load(ctx context.Context, service resilience.Service) (*Snapshot, error)

	// Save writes the snapshot with the given TTL.
	Save(ctx context.Context, service resilience.Service, snap Snapshot, ttl time.Duration) error
}
