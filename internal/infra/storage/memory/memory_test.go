package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vietddude/txsubmit/internal/core/domain"
	"github.com/vietddude/txsubmit/internal/infra/storage"
)

func TestOutcomeRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewOutcomeRepo(NewMemoryStorage())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := repo.Save(ctx, &domain.SubmissionRecord{
			ID:        id,
			Status:    domain.SubmissionStatusConfirmed,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	rec, err := repo.Get(ctx, "b")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.ID != "b" {
		t.Errorf("expected b, got %s", rec.ID)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	recent, err := repo.ListRecent(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "c" || recent[1].ID != "b" {
		t.Errorf("unexpected order: %+v", recent)
	}
}

func TestFailedQueue(t *testing.T) {
	ctx := context.Background()
	q := NewFailedQueue(NewMemoryStorage())

	_ = q.Push(ctx, &domain.SubmissionRecord{ID: "x", CreatedAt: time.Unix(20, 0)})
	_ = q.Push(ctx, &domain.SubmissionRecord{ID: "y", CreatedAt: time.Unix(10, 0)})

	list, _ := q.List(ctx)
	if len(list) != 2 || list[0].ID != "y" {
		t.Errorf("expected oldest first, got %+v", list)
	}

	_ = q.Remove(ctx, "y")
	if n, _ := q.Count(ctx); n != 1 {
		t.Errorf("expected 1 queued record, got %d", n)
	}
}

func TestNeedsReview(t *testing.T) {
	tests := []struct {
		rec    domain.SubmissionRecord
		expect bool
	}{
		{domain.SubmissionRecord{Status: domain.SubmissionStatusConfirmed}, false},
		{domain.SubmissionRecord{Status: domain.SubmissionStatusFailed, Verdict: "fatal_user_cancelled"}, false},
		{domain.SubmissionRecord{Status: domain.SubmissionStatusFailed, Verdict: "fatal_program_logic"}, false},
		{domain.SubmissionRecord{Status: domain.SubmissionStatusFailed, Verdict: "retryable"}, true},
		{domain.SubmissionRecord{Status: domain.SubmissionStatusFailed, Verdict: "fatal_other"}, true},
	}
	for _, tt := range tests {
		if got := storage.NeedsReview(&tt.rec); got != tt.expect {
			t.Errorf("NeedsReview(%+v) = %v, want %v", tt.rec, got, tt.expect)
		}
	}
}
