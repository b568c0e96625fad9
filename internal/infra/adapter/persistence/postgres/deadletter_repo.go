package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"fixturecast/internal/domain/entity"
	"fixturecast/internal/repository"
)

// Querier is the subset of *sql.DB the repo needs. It is also satisfied by
// the circuit-guarded wrapper in internal/infra/db, so dead-letter writes
// degrade fast when Postgres itself is down.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type DeadLetterRepo struct {
	db Querier
}

func NewDeadLetterRepo(db Querier) repository.DeadLetterRepository {
	return &DeadLetterRepo{db: db}
}

func (repo *DeadLetterRepo) Create(ctx context.Context, entry *entity.DeadLetterEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	const query = `
INSERT INTO dead_letters (job_id, queue_name, payload, failed_reason, category, attempts_made, stack_lines)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (queue_name, job_id) DO UPDATE
SET payload = EXCLUDED.payload,
    failed_reason = EXCLUDED.failed_reason,
    category = EXCLUDED.category,
    attempts_made = EXCLUDED.attempts_made,
    stack_lines = EXCLUDED.stack_lines,
    created_at = now()`
	_, err := repo.db.ExecContext(ctx, query,
		entry.JobID, entry.QueueName, entry.Payload, entry.FailedReason,
		entry.Category, entry.AttemptsMade, pq.Array(entry.StackLines))
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *DeadLetterRepo) List(ctx context.Context, limit, offset int) ([]*entity.DeadLetterEntry, error) {
	const query = `
SELECT id, job_id, queue_name, payload, failed_reason, category, attempts_made, stack_lines, created_at
FROM dead_letters
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	rows, err := repo.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*entity.DeadLetterEntry, 0, limit)
	for rows.Next() {
		var e entity.DeadLetterEntry
		if err := rows.Scan(&e.ID, &e.JobID, &e.QueueName, &e.Payload, &e.FailedReason,
			&e.Category, &e.AttemptsMade, pq.Array(&e.StackLines), &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (repo *DeadLetterRepo) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM dead_letters`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return count, nil
}

func (repo *DeadLetterRepo) CountByQueue(ctx context.Context) (map[string]int64, error) {
	const query = `SELECT queue_name, COUNT(*) FROM dead_letters GROUP BY queue_name`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("CountByQueue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int64)
	for rows.Next() {
		var queue string
		var count int64
		if err := rows.Scan(&queue, &count); err != nil {
			return nil, fmt.Errorf("CountByQueue: Scan: %w", err)
		}
		counts[queue] = count
	}
	return counts, rows.Err()
}

func (repo *DeadLetterRepo) Get(ctx context.Context, queueName, jobID string) (*entity.DeadLetterEntry, error) {
	const query = `
SELECT id, job_id, queue_name, payload, failed_reason, category, attempts_made, stack_lines, created_at
FROM dead_letters
WHERE queue_name = $1 AND job_id = $2`
	var e entity.DeadLetterEntry
	err := repo.db.QueryRowContext(ctx, query, queueName, jobID).Scan(
		&e.ID, &e.JobID, &e.QueueName, &e.Payload, &e.FailedReason,
		&e.Category, &e.AttemptsMade, pq.Array(&e.StackLines), &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &e, nil
}

func (repo *DeadLetterRepo) Delete(ctx context.Context, queueName, jobID string) error {
	const query = `DELETE FROM dead_letters WHERE queue_name = $1 AND job_id = $2`
	result, err := repo.db.ExecContext(ctx, query, queueName, jobID)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: RowsAffected: %w", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *DeadLetterRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM dead_letters WHERE created_at < $1`
	result, err := repo.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteOlderThan: RowsAffected: %w", err)
	}
	return affected, nil
}
