package repository

import (
	"context"
	"time"

	"fixturecast/internal/domain/entity"
)

// DeadLetterRepository is the durable store of jobs whose job-level retry
// budget is exhausted.
type DeadLetterRepository interface {
	// Create appends a dead-letter entry.
	Create(ctx context.Context, entry *entity.DeadLetterEntry) error
	// List retrieves entries ordered by created_at DESC.
	// Uses LIMIT and OFFSET for triage pagination.
	List(ctx context.Context, limit, offset int) ([]*entity.DeadLetterEntry, error)
	// Count returns the total number of dead-letter entries.
	Count(ctx context.Context) (int64, error)
	// CountByQueue returns per-queue entry counts for gauge refresh.
	CountByQueue(ctx context.Context) (map[string]int64, error)
	// Get retrieves one entry by queue and job ID.
	// Returns entity.ErrNotFound if no such entry exists.
	Get(ctx context.Context, queueName, jobID string) (*entity.DeadLetterEntry, error)
	// Delete removes an entry. Callers must only delete after a requeue has
	// been durably accepted by the destination queue, never before.
	Delete(ctx context.Context, queueName, jobID string) error
	// DeleteOlderThan removes entries created before the cutoff and returns
	// how many were removed. Used by the retention sweeper.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
