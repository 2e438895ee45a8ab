package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/txsubmit/internal/core/domain"
)

var (
	// ErrNotFound is returned when a submission record doesn't exist
	ErrNotFound = errors.New("submission not found")
)

// OutcomeRepository stores the result of every Submit call
type OutcomeRepository interface {
	// Save inserts or replaces a record
	Save(ctx context.Context, rec *domain.SubmissionRecord) error

	// Get retrieves a record by submission ID
	Get(ctx context.Context, id string) (*domain.SubmissionRecord, error)

	// ListRecent returns up to limit records, newest first
	ListRecent(ctx context.Context, limit int) ([]*domain.SubmissionRecord, error)

	// DeleteOlderThan removes records created before the threshold
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// FailedQueue holds failed submissions awaiting operator review
type FailedQueue interface {
	// Push adds a failed record to the queue
	Push(ctx context.Context, rec *domain.SubmissionRecord) error

	// List returns queued records, oldest first
	List(ctx context.Context) ([]*domain.SubmissionRecord, error)

	// Remove drops a record once reviewed
	Remove(ctx context.Context, id string) error

	// Count returns the number of queued records
	Count(ctx context.Context) (int, error)
}

// NeedsReview reports whether a failed record should go to the review
// queue. Cancellations and program rejections are expected outcomes.
func NeedsReview(rec *domain.SubmissionRecord) bool {
	if rec.Status != domain.SubmissionStatusFailed {
		return false
	}
	switch domain.ParseVerdict(rec.Verdict) {
	case domain.VerdictFatalUserCancelled, domain.VerdictFatalProgramLogic, domain.VerdictAborted:
		return false
	default:
		return true
	}
}
