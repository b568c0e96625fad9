// Package redisqueue implements the job-queue contract on Redis. Job bodies
// live under per-job keys written with SETNX, which is what makes submission
// idempotent; ready and delayed jobs are tracked in a list and a sorted set.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"fixturecast/internal/queue"
)

// jobTTL bounds how long a job body is kept. Completed and failed jobs
// expire on their own rather than accumulating forever.
const jobTTL = 7 * 24 * time.Hour

type Queue struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// New creates a Redis-backed queue.
func New(rdb *redis.Client, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{rdb: rdb, logger: logger}
}

func jobKey(queueName, jobID string) string {
	return fmt.Sprintf("queue:%s:job:%s", queueName, jobID)
}

func pendingKey(queueName string) string {
	return fmt.Sprintf("queue:%s:pending", queueName)
}

func delayedKey(queueName string) string {
	return fmt.Sprintf("queue:%s:delayed", queueName)
}

// Submit implements queue.Queue. A job ID that already exists makes the
// submission a no-op and returns the stored job.
func (q *Queue) Submit(ctx context.Context, queueName string, payload []byte, opts queue.Options) (*queue.Job, bool, error) {
	id := opts.JobID
	if id == "" {
		id = uuid.NewString()
	}

	job := &queue.Job{
		ID:         id,
		Queue:      queueName,
		Payload:    payload,
		State:      queue.StatePending,
		Priority:   opts.Priority,
		Attempts:   opts.Attempts,
		EnqueuedAt: time.Now().UTC(),
	}
	if opts.Delay > 0 {
		job.State = queue.StateDelayed
	}

	data, err := json.Marshal(job)
	if err != nil {
		return nil, false, fmt.Errorf("encode job: %w", err)
	}

	created, err := q.rdb.SetNX(ctx, jobKey(queueName, id), data, jobTTL).Result()
	if err != nil {
		return nil, false, fmt.Errorf("submit job: %w", err)
	}
	if !created {
		existing, err := q.Fetch(ctx, queueName, id)
		if err != nil {
			return nil, false, err
		}
		q.logger.Debug("duplicate job submission ignored",
			slog.String("queue", queueName),
			slog.String("job_id", id))
		return existing, false, nil
	}

	if opts.Delay > 0 {
		readyAt := float64(time.Now().Add(opts.Delay).UnixMilli())
		err = q.rdb.ZAdd(ctx, delayedKey(queueName), redis.Z{Score: readyAt, Member: id}).Err()
	} else {
		err = q.rdb.LPush(ctx, pendingKey(queueName), id).Err()
	}
	if err != nil {
		// The body exists but the job is not scheduled; drop the body so a
		// later submission can start over.
		_ = q.rdb.Del(ctx, jobKey(queueName, id)).Err()
		return nil, false, fmt.Errorf("schedule job: %w", err)
	}

	return job, true, nil
}

// Fetch implements queue.Queue.
func (q *Queue) Fetch(ctx context.Context, queueName, jobID string) (*queue.Job, error) {
	data, err := q.rdb.Get(ctx, jobKey(queueName, jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, queue.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch job: %w", err)
	}

	var job queue.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}

// JobState implements queue.Queue.
func (q *Queue) JobState(ctx context.Context, queueName, jobID string) (queue.State, error) {
	job, err := q.Fetch(ctx, queueName, jobID)
	if err != nil {
		return "", err
	}
	return job.State, nil
}

// SetState transitions a job's stored state. Consumers call this as they
// take and finish work; the resilience core only reads it back.
func (q *Queue) SetState(ctx context.Context, queueName, jobID string, state queue.State) error {
	job, err := q.Fetch(ctx, queueName, jobID)
	if err != nil {
		return err
	}
	job.State = state
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := q.rdb.Set(ctx, jobKey(queueName, jobID), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("set job state: %w", err)
	}
	return nil
}

// PendingCount returns how many jobs are ready to run.
func (q *Queue) PendingCount(ctx context.Context, queueName string) (int64, error) {
	n, err := q.rdb.LLen(ctx, pendingKey(queueName)).Result()
	if err != nil {
		return 0, fmt.Errorf("pending count: %w", err)
	}
	return n, nil
}

// PromoteDue moves delayed jobs whose time has come onto the pending list.
// Returns how many were promoted.
func (q *Queue) PromoteDue(ctx context.Context, queueName string, now time.Time) (int, error) {
	due, err := q.rdb.ZRangeByScore(ctx, delayedKey(queueName), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.UnixMilli()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("promote due: %w", err)
	}

	for _, id := range due {
		if err := q.rdb.LPush(ctx, pendingKey(queueName), id).Err(); err != nil {
			return 0, fmt.Errorf("promote due: %w", err)
		}
		if err := q.rdb.ZRem(ctx, delayedKey(queueName), id).Err(); err != nil {
			return 0, fmt.Errorf("promote due: %w", err)
		}
		if err := q.SetState(ctx, queueName, id, queue.StatePending); err != nil && !errors.Is(err, queue.ErrJobNotFound) {
			return 0, err
		}
	}
	return len(due), nil
}
