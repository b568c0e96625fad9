// Package queue defines the job-queue contract the resilience core depends
// on. Scheduling and priority mechanics belong to the queue implementation;
// this package only pins down the submit/fetch surface and the idempotent-ID
// discipline that makes dead-letter requeue safe.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a job as seen by introspection.
type State string

const (
	StatePending   State = "pending"
	StateDelayed   State = "delayed"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// ErrJobNotFound is returned when introspecting an unknown job.
var ErrJobNotFound = errors.New("job not found")

// Options controls a single submission.
type Options struct {
	// JobID fixes the job's identity. Submitting the same ID twice is a
	// no-op: the queue keeps the first submission. Empty means the queue
	// assigns a random ID.
	JobID string

	// Priority orders jobs within a queue. Higher runs earlier.
	Priority int

	// Delay defers the job's availability.
	Delay time.Duration

	// Attempts is the job-level retry budget handed to the queue.
	Attempts int
}

// Job is a submitted unit of work.
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Payload    []byte          `json:"payload"`
	State      State           `json:"state"`
	Priority   int             `json:"priority"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Queue is the external job queue.
type Queue interface {
	// Submit enqueues a job. The returned bool is false when an existing
	// job with the same ID made the submission a no-op.
	Submit(ctx context.Context, queueName string, payload []byte, opts Options) (*Job, bool, error)

	// Fetch returns a job by ID, or ErrJobNotFound.
	Fetch(ctx context.Context, queueName, jobID string) (*Job, error)

	// JobState returns the lifecycle state of a job, or ErrJobNotFound.
	JobState(ctx context.Context, queueName, jobID string) (State, error)
}

// requeueNamespace seeds the deterministic requeue IDs. Never change it:
// doing so would re-run dead letters already requeued under the old IDs.
var requeueNamespace = uuid.MustParse("8e1d3a46-6a0f-4b57-9a71-52f1c2b0d9e4")

// RequeueJobID derives the job ID used when a dead-letter entry is
// resubmitted. The derivation is a pure function of the original identity,
// so requeuing the same entry twice targets the same job and the second
// submission is a no-op at the queue layer.
func RequeueJobID(queueName, originalJobID string) string {
	return "requeue-" + uuid.NewSHA1(requeueNamespace, []byte(queueName+"\x00"+originalJobID)).String()
}
