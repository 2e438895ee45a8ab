package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/txsubmit/internal/core/domain"
	"github.com/vietddude/txsubmit/internal/infra/storage"
	"github.com/vietddude/txsubmit/internal/metrics"
	"github.com/vietddude/txsubmit/internal/submit"
)

// Ledger is everything the service needs from the ledger client.
type Ledger interface {
	submit.LedgerClient
	submit.Broadcaster
	Health(ctx context.Context) error
}

// Service submits pre-signed transactions and records their outcomes.
// Recording is best effort: the ledger outcome is returned even when the
// record cannot be stored.
type Service struct {
	submitter *submit.Submitter
	ledger    Ledger
	outcomes  storage.OutcomeRepository
	failed    storage.FailedQueue
	defaults  domain.SubmissionOptions
	checks    map[string]func(ctx context.Context) error
	log       *slog.Logger
}

// NewService creates a Service. failed may be nil.
func NewService(
	submitter *submit.Submitter,
	ledger Ledger,
	outcomes storage.OutcomeRepository,
	failed storage.FailedQueue,
	defaults domain.SubmissionOptions,
) *Service {
	return &Service{
		submitter: submitter,
		ledger:    ledger,
		outcomes:  outcomes,
		failed:    failed,
		defaults:  defaults,
		checks:    make(map[string]func(ctx context.Context) error),
		log:       slog.Default().With("component", "service"),
	}
}

// Defaults returns the configured submission options.
func (s *Service) Defaults() domain.SubmissionOptions {
	return s.defaults
}

// SubmitRaw submits raw and returns the stored record. The error is only set
// when the submission could not be started; a failed submission is reported
// through the record's status.
func (s *Service) SubmitRaw(
	ctx context.Context,
	raw []byte,
	opts domain.SubmissionOptions,
) (*domain.SubmissionRecord, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty transaction")
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}

	sig, err := s.submitter.Submit(ctx, submit.SendRaw(s.ledger, raw), opts)
	if errors.Is(err, submit.ErrInvalidOptions) {
		return nil, err
	}

	rec := &domain.SubmissionRecord{
		ID:        opts.ID,
		Status:    domain.SubmissionStatusConfirmed,
		Signature: sig,
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		rec.Status = domain.SubmissionStatusFailed
		rec.Message = err.Error()
		rec.RawError = err.Error()

		var serr *submit.SubmitError
		if errors.As(err, &serr) {
			rec.Verdict = serr.Verdict.String()
			rec.Attempts = serr.Attempts
			rec.Signature = serr.Signature
			if serr.Err != nil {
				rec.RawError = serr.Err.Error()
			}
			s.log.Debug("Submission failed", "detail", serr.Detail())
		}
	}

	s.record(ctx, rec)
	return rec, nil
}

func (s *Service) record(ctx context.Context, rec *domain.SubmissionRecord) {
	// The caller may have gone away; the outcome is still worth keeping.
	ctx = context.WithoutCancel(ctx)

	if err := s.outcomes.Save(ctx, rec); err != nil {
		s.log.Error("Failed to save submission record", "id", rec.ID, "error", err)
	}

	if s.failed == nil || !storage.NeedsReview(rec) {
		return
	}
	if err := s.failed.Push(ctx, rec); err != nil {
		s.log.Error("Failed to queue submission for review", "id", rec.ID, "error", err)
		return
	}
	if n, err := s.failed.Count(ctx); err == nil {
		metrics.FailedQueueSize.Set(float64(n))
	}
}

// Record returns a stored submission.
func (s *Service) Record(ctx context.Context, id string) (*domain.SubmissionRecord, error) {
	return s.outcomes.Get(ctx, id)
}

// Recent returns the newest stored submissions.
func (s *Service) Recent(ctx context.Context, limit int) ([]*domain.SubmissionRecord, error) {
	return s.outcomes.ListRecent(ctx, limit)
}

// PendingReview returns failed submissions queued for review.
func (s *Service) PendingReview(ctx context.Context) ([]*domain.SubmissionRecord, error) {
	if s.failed == nil {
		return nil, nil
	}
	return s.failed.List(ctx)
}

// Resolve drops a submission from the review queue once an operator has
// dealt with it.
func (s *Service) Resolve(ctx context.Context, id string) error {
	if s.failed == nil {
		return nil
	}
	if err := s.failed.Remove(ctx, id); err != nil {
		return err
	}
	if n, err := s.failed.Count(ctx); err == nil {
		metrics.FailedQueueSize.Set(float64(n))
	}
	return nil
}

// AddHealthCheck registers a backing store to be checked alongside the ledger.
func (s *Service) AddHealthCheck(name string, check func(ctx context.Context) error) {
	s.checks[name] = check
}

// Health checks the ledger, then every registered store.
func (s *Service) Health(ctx context.Context) error {
	if err := s.ledger.Health(ctx); err != nil {
		return err
	}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			return fmt.Errorf("%s health: %w", name, err)
		}
	}
	return nil
}
