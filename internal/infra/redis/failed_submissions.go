package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/txsubmit/internal/core/domain"
)

// payloadTTL bounds how long a failed submission stays reviewable.
const payloadTTL = 24 * time.Hour

// FailedQueue implements storage.FailedQueue using Redis.
type FailedQueue struct {
	rdb       *redis.Client
	namespace string
}

// NewFailedQueue creates a new Redis-backed review queue.
func NewFailedQueue(client *Client, namespace string) *FailedQueue {
	return &FailedQueue{
		rdb:       client.rdb,
		namespace: namespace,
	}
}

// Key helpers
func (q *FailedQueue) queueKey() string {
	return fmt.Sprintf("failed_submissions:%s", q.namespace)
}

func (q *FailedQueue) recordKey(id string) string {
	return fmt.Sprintf("failed_submission:%s:%s", q.namespace, id)
}

// Push adds a failed submission, scored by creation time.
func (q *FailedQueue) Push(ctx context.Context, rec *domain.SubmissionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	if err := q.rdb.Set(ctx, q.recordKey(rec.ID), data, payloadTTL).Err(); err != nil {
		return fmt.Errorf("failed to set submission: %w", err)
	}

	if err := q.rdb.ZAdd(ctx, q.queueKey(), redis.Z{
		Score:  float64(rec.CreatedAt.Unix()),
		Member: rec.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	return nil
}

// List returns all queued submissions, oldest first. Entries whose payload
// expired or cannot be decoded are dropped from the queue.
func (q *FailedQueue) List(ctx context.Context) ([]*domain.SubmissionRecord, error) {
	ids, err := q.rdb.ZRange(ctx, q.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	recs := make([]*domain.SubmissionRecord, 0, len(ids))
	for _, id := range ids {
		data, err := q.rdb.Get(ctx, q.recordKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			if err := q.rdb.ZRem(ctx, q.queueKey(), id).Err(); err != nil {
				return nil, fmt.Errorf("failed to drop expired entry %s: %w", id, err)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get submission: %w", err)
		}

		var rec domain.SubmissionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			slog.Warn("Dropping undecodable review entry", "id", id, "error", err)
			if err := q.Remove(ctx, id); err != nil {
				return nil, err
			}
			continue
		}
		recs = append(recs, &rec)
	}

	return recs, nil
}

// Remove drops a reviewed submission.
func (q *FailedQueue) Remove(ctx context.Context, id string) error {
	if err := q.rdb.ZRem(ctx, q.queueKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}
	if err := q.rdb.Del(ctx, q.recordKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete submission: %w", err)
	}
	return nil
}

// Count returns the number of queued submissions.
func (q *FailedQueue) Count(ctx context.Context) (int, error) {
	count, err := q.rdb.ZCard(ctx, q.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}
