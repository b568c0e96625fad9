// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as DeadLetterEntry, along with
// their validation rules and domain-specific errors.
package entity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// maxReasonLength bounds the stored failure reason. Triage needs the shape
// of the error, not a full dump.
const maxReasonLength = 500

// maxStackLines bounds how many stack lines a dead-letter entry keeps.
const maxStackLines = 20

// DeadLetterEntry is the durable record of a job whose job-level retry
// budget is exhausted. It is append-only: an entry is removed only after a
// requeued replacement has been durably accepted by the destination queue.
type DeadLetterEntry struct {
	ID           int64
	JobID        string
	QueueName    string
	Payload      []byte
	FailedReason string
	// Category is the classified failure category at the time the job died.
	Category     string
	AttemptsMade int
	StackLines   []string
	CreatedAt    time.Time
}

// NewDeadLetterEntry builds an entry with the reason and stack truncated to
// storable sizes.
func NewDeadLetterEntry(jobID, queueName string, payload []byte, reason, category string, attempts int, stack []string) *DeadLetterEntry {
	reason = truncateToRuneBoundary(reason, maxReasonLength)
	if len(stack) > maxStackLines {
		stack = stack[:maxStackLines]
	}
	return &DeadLetterEntry{
		JobID:        jobID,
		QueueName:    queueName,
		Payload:      payload,
		FailedReason: reason,
		Category:     category,
		AttemptsMade: attempts,
		StackLines:   stack,
	}
}

// truncateToRuneBoundary cuts s to at most n bytes without splitting a
// multi-byte rune, so stored reasons stay valid UTF-8.
func truncateToRuneBoundary(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Validate checks that the entry is storable.
func (e *DeadLetterEntry) Validate() error {
	if e.JobID == "" {
		return &ValidationError{Field: "job_id", Message: "required", Err: ErrMissingJobID}
	}
	if e.QueueName == "" {
		return &ValidationError{Field: "queue_name", Message: "required", Err: ErrMissingQueueName}
	}
	return nil
}

var (
	numberPattern = regexp.MustCompile(`\b\d+\b`)
	hexPattern    = regexp.MustCompile(`\b[0-9a-fA-F]{8,}\b`)
	datePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(T[\d:.]+Z?)?`)
)

// NormalizedReason strips IDs, dates and numbers from the failure reason so
// recurring failures group by root cause instead of reading as unique.
func (e *DeadLetterEntry) NormalizedReason() string {
	s := e.FailedReason
	s = datePattern.ReplaceAllString(s, "<date>")
	s = hexPattern.ReplaceAllString(s, "<id>")
	s = numberPattern.ReplaceAllString(s, "<n>")
	return strings.TrimSpace(s)
}
