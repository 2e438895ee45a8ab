package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/txsubmit/internal/core/domain"
	"github.com/vietddude/txsubmit/internal/infra/storage"
)

// OutcomeRepo implements storage.OutcomeRepository using PostgreSQL.
type OutcomeRepo struct {
	db *DB
}

// NewOutcomeRepo creates a new PostgreSQL outcome repository.
func NewOutcomeRepo(db *DB) *OutcomeRepo {
	return &OutcomeRepo{db: db}
}

// Save inserts a record, replacing any previous record with the same ID.
func (r *OutcomeRepo) Save(ctx context.Context, rec *domain.SubmissionRecord) error {
	query := `
		INSERT INTO submissions (id, status, signature, verdict, attempts, message, raw_error, created_at)
		VALUES (:id, :status, :signature, :verdict, :attempts, :message, :raw_error, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			signature = EXCLUDED.signature,
			verdict = EXCLUDED.verdict,
			attempts = EXCLUDED.attempts,
			message = EXCLUDED.message,
			raw_error = EXCLUDED.raw_error
	`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (r *OutcomeRepo) Get(ctx context.Context, id string) (*domain.SubmissionRecord, error) {
	query := `
		SELECT id, status, signature, verdict, attempts, message, raw_error, created_at
		FROM submissions
		WHERE id = $1
	`
	var rec domain.SubmissionRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &rec, nil
}

// ListRecent returns the newest records first.
func (r *OutcomeRepo) ListRecent(ctx context.Context, limit int) ([]*domain.SubmissionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, status, signature, verdict, attempts, message, raw_error, created_at
		FROM submissions
		ORDER BY created_at DESC
		LIMIT $1
	`
	var recs []*domain.SubmissionRecord
	if err := r.db.SelectContext(ctx, &recs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return recs, nil
}

// DeleteOlderThan removes records created before the threshold.
func (r *OutcomeRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old submissions: %w", err)
	}
	return res.RowsAffected()
}
