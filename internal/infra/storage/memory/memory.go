package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/txsubmit/internal/core/domain"
	"github.com/vietddude/txsubmit/internal/infra/storage"
)

type MemoryStorage struct {
	records map[string]*domain.SubmissionRecord
	failed  map[string]*domain.SubmissionRecord
	mu      sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]*domain.SubmissionRecord),
		failed:  make(map[string]*domain.SubmissionRecord),
	}
}

// -----------------------------------------------------------------------------
// Outcome Repository
// -----------------------------------------------------------------------------

type OutcomeRepo struct {
	store *MemoryStorage
}

func NewOutcomeRepo(store *MemoryStorage) *OutcomeRepo {
	return &OutcomeRepo{store: store}
}

func (r *OutcomeRepo) Save(ctx context.Context, rec *domain.SubmissionRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *rec
	r.store.records[rec.ID] = &cp
	return nil
}

func (r *OutcomeRepo) Get(ctx context.Context, id string) (*domain.SubmissionRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec, ok := r.store.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *OutcomeRepo) ListRecent(ctx context.Context, limit int) ([]*domain.SubmissionRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*domain.SubmissionRecord, 0, len(r.store.records))
	for _, rec := range r.store.records {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *OutcomeRepo) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for id, rec := range r.store.records {
		if rec.CreatedAt.Before(before) {
			delete(r.store.records, id)
			n++
		}
	}
	return n, nil
}

// -----------------------------------------------------------------------------
// Failed Queue
// -----------------------------------------------------------------------------

type FailedQueue struct {
	store *MemoryStorage
}

func NewFailedQueue(store *MemoryStorage) *FailedQueue {
	return &FailedQueue{store: store}
}

func (q *FailedQueue) Push(ctx context.Context, rec *domain.SubmissionRecord) error {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	cp := *rec
	q.store.failed[rec.ID] = &cp
	return nil
}

func (q *FailedQueue) List(ctx context.Context) ([]*domain.SubmissionRecord, error) {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()

	out := make([]*domain.SubmissionRecord, 0, len(q.store.failed))
	for _, rec := range q.store.failed {
		cp := *rec
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (q *FailedQueue) Remove(ctx context.Context, id string) error {
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	delete(q.store.failed, id)
	return nil
}

func (q *FailedQueue) Count(ctx context.Context) (int, error) {
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	return len(q.store.failed), nil
}
