package worker

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/txsubmit/internal/core/domain"
	"github.com/vietddude/txsubmit/internal/infra/storage"
	"github.com/vietddude/txsubmit/internal/infra/storage/memory"
)

func TestPruner_DeletesOnlyExpired(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewOutcomeRepo(memory.NewMemoryStorage())
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	records := []*domain.SubmissionRecord{
		{ID: "old", Status: domain.SubmissionStatusConfirmed, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "edge", Status: domain.SubmissionStatusFailed, CreatedAt: now.Add(-23 * time.Hour)},
		{ID: "new", Status: domain.SubmissionStatusConfirmed, CreatedAt: now.Add(-time.Minute)},
	}
	for _, r := range records {
		if err := repo.Save(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.ID, err)
		}
	}

	p := NewPruner(24*time.Hour, repo)
	p.now = func() time.Time { return now }

	if n := p.Prune(ctx); n != 1 {
		t.Fatalf("expected 1 pruned, got %d", n)
	}
	if _, err := repo.Get(ctx, "old"); err != storage.ErrNotFound {
		t.Errorf("expected old record gone, got %v", err)
	}
	for _, id := range []string{"edge", "new"} {
		if _, err := repo.Get(ctx, id); err != nil {
			t.Errorf("expected %s kept, got %v", id, err)
		}
	}
}

func TestPruner_DisabledReturnsImmediately(t *testing.T) {
	repo := memory.NewOutcomeRepo(memory.NewMemoryStorage())
	p := NewPruner(0, repo)

	done := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start should return when retention is disabled")
	}
}
