// Package deadletter implements capture, triage and requeue of jobs that
// exhausted their retry budget.
package deadletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fixturecast/internal/domain/entity"
	"fixturecast/internal/observability/metrics"
	"fixturecast/internal/queue"
	"fixturecast/internal/repository"
)

// requeueConcurrency bounds how many entries RequeueAll resubmits at once.
const requeueConcurrency = 8

// RecordInput carries everything needed to capture a failed job.
type RecordInput struct {
	JobID        string
	QueueName    string
	Payload      []byte
	FailedReason string
	Category     string
	AttemptsMade int
	StackLines   []string
}

// RequeueResult reports the outcome of a single requeue.
type RequeueResult struct {
	QueueName string
	JobID     string
	// NewJobID is the deterministic ID the replacement job runs under.
	NewJobID string
	// Duplicate is true when the replacement already existed, meaning a
	// previous requeue of this entry had already been accepted.
	Duplicate bool
}

// CauseGroup is a cluster of dead-letter entries sharing a root cause.
type CauseGroup struct {
	Reason string
	Count  int
	Queues []string
}

// Service provides dead-letter management use cases. Capture is durable;
// deletion happens only after a requeued replacement has been accepted by
// the destination queue.
type Service struct {
	Repo   repository.DeadLetterRepository
	Queue  queue.Queue
	Logger *slog.Logger
}

// NewService creates a dead-letter service.
func NewService(repo repository.DeadLetterRepository, q queue.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Repo: repo, Queue: q, Logger: logger}
}

// Record captures a dead job. Capture failures are returned to the caller
// so losing the record is never silent.
func (s *Service) Record(ctx context.Context, in RecordInput) (*entity.DeadLetterEntry, error) {
	entry := entity.NewDeadLetterEntry(in.JobID, in.QueueName, in.Payload, in.FailedReason, in.Category, in.AttemptsMade, in.StackLines)
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("record dead letter: %w", err)
	}
	if err := s.Repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("record dead letter: %w", err)
	}
	s.Logger.Warn("job dead-lettered",
		slog.String("queue", in.QueueName),
		slog.String("job_id", in.JobID),
		slog.String("category", in.Category),
		slog.Int("attempts", in.AttemptsMade))
	return entry, nil
}

// List retrieves entries for triage, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*entity.DeadLetterEntry, error) {
	entries, err := s.Repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list dead letters: %w", err)
	}
	return entries, nil
}

// Count returns the total number of dead-letter entries.
func (s *Service) Count(ctx context.Context) (int64, error) {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count dead letters: %w", err)
	}
	return n, nil
}

// Get retrieves one entry by queue and job ID.
func (s *Service) Get(ctx context.Context, queueName, jobID string) (*entity.DeadLetterEntry, error) {
	entry, err := s.Repo.Get(ctx, queueName, jobID)
	if err != nil {
		return nil, fmt.Errorf("get dead letter: %w", err)
	}
	return entry, nil
}

// Delete discards an entry without requeuing it. Used when triage decides
// the job should never run again.
func (s *Service) Delete(ctx context.Context, queueName, jobID string) error {
	if err := s.Repo.Delete(ctx, queueName, jobID); err != nil {
		return fmt.Errorf("delete dead letter: %w", err)
	}
	return nil
}

// Requeue resubmits one entry to its original queue under a deterministic
// replacement ID and deletes the entry once the queue has accepted the job.
// If the replacement already exists a previous requeue got that far, so the
// entry is still deleted and the result marked Duplicate.
func (s *Service) Requeue(ctx context.Context, queueName, jobID string) (*RequeueResult, error) {
	entry, err := s.Repo.Get(ctx, queueName, jobID)
	if err != nil {
		return nil, fmt.Errorf("requeue dead letter: %w", err)
	}

	newID := queue.RequeueJobID(entry.QueueName, entry.JobID)
	_, created, err := s.Queue.Submit(ctx, entry.QueueName, entry.Payload, queue.Options{
		JobID:    newID,
		Attempts: entry.AttemptsMade,
	})
	if err != nil {
		metrics.RecordDeadLetterRequeue(queueName, false)
		return nil, fmt.Errorf("requeue dead letter: submit: %w", err)
	}

	// Deletion comes after the submit succeeded. A crash between the two
	// leaves the entry behind, and the deterministic ID makes the retry of
	// this requeue a no-op at the queue layer.
	if err := s.Repo.Delete(ctx, queueName, jobID); err != nil && !errors.Is(err, entity.ErrNotFound) {
		metrics.RecordDeadLetterRequeue(queueName, false)
		return nil, fmt.Errorf("requeue dead letter: delete: %w", err)
	}

	metrics.RecordDeadLetterRequeue(queueName, true)
	s.Logger.Info("dead letter requeued",
		slog.String("queue", queueName),
		slog.String("job_id", jobID),
		slog.String("new_job_id", newID),
		slog.Bool("duplicate", !created))

	return &RequeueResult{
		QueueName: queueName,
		JobID:     jobID,
		NewJobID:  newID,
		Duplicate: !created,
	}, nil
}

// RequeueAll resubmits every stored entry. Entries that fail to requeue are
// left in place; the first error is returned after the batch finishes.
func (s *Service) RequeueAll(ctx context.Context) ([]*RequeueResult, error) {
	var (
		results []*RequeueResult
		mu      sync.Mutex
	)

	const page = 100
	for {
		entries, err := s.Repo.List(ctx, page, 0)
		if err != nil {
			return results, fmt.Errorf("requeue all: %w", err)
		}
		if len(entries) == 0 {
			return results, nil
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(requeueConcurrency)
		for _, entry := range entries {
			g.Go(func() error {
				res, err := s.Requeue(gctx, entry.QueueName, entry.JobID)
				if err != nil {
					return err
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return results, fmt.Errorf("requeue all: %w", err)
		}

		// Each successful requeue deletes its entry, so listing from offset
		// zero again yields the next page.
		if len(entries) < page {
			return results, nil
		}
	}
}

// GroupByCause clusters stored entries by normalized failure reason so
// operators see recurring root causes instead of per-job noise. Groups are
// ordered by descending count.
func (s *Service) GroupByCause(ctx context.Context, limit int) ([]CauseGroup, error) {
	entries, err := s.Repo.List(ctx, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("group dead letters: %w", err)
	}

	type agg struct {
		count  int
		queues map[string]struct{}
	}
	byReason := make(map[string]*agg)
	for _, e := range entries {
		reason := e.NormalizedReason()
		a, ok := byReason[reason]
		if !ok {
			a = &agg{queues: make(map[string]struct{})}
			byReason[reason] = a
		}
		a.count++
		a.queues[e.QueueName] = struct{}{}
	}

	groups := make([]CauseGroup, 0, len(byReason))
	for reason, a := range byReason {
		queues := make([]string, 0, len(a.queues))
		for q := range a.queues {
			queues = append(queues, q)
		}
		sort.Strings(queues)
		groups = append(groups, CauseGroup{Reason: reason, Count: a.count, Queues: queues})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return strings.Compare(groups[i].Reason, groups[j].Reason) < 0
	})
	return groups, nil
}

// RefreshGauges republishes per-queue dead-letter counts. The retention
// sweeper calls this on its schedule.
func (s *Service) RefreshGauges(ctx context.Context) error {
	counts, err := s.Repo.CountByQueue(ctx)
	if err != nil {
		return fmt.Errorf("refresh dead-letter gauges: %w", err)
	}
	for q, n := range counts {
		metrics.UpdateDeadLettersTotal(q, n)
	}
	return nil
}

// Prune removes entries older than the retention window and returns how
// many were removed.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	n, err := s.Repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune dead letters: %w", err)
	}
	if n > 0 {
		s.Logger.Info("dead letters pruned",
			slog.Int64("removed", n),
			slog.Time("cutoff", cutoff))
	}
	return n, nil
}
