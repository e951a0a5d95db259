package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const processedKeyPrefix = "processed_event:"

// IdempotencyStore implements kafka.IdempotencyStore on Redis keys with a TTL.
type IdempotencyStore struct {
	client goredis.Cmdable
	ttl    time.Duration
}

// NewIdempotencyStore creates an IdempotencyStore.
func NewIdempotencyStore(client goredis.Cmdable, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ttl}
}

// Contains reports whether eventID was recorded.
func (s *IdempotencyStore) Contains(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, processedKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("check processed event: %w", err)
	}
	return n == 1, nil
}

// Add records eventID. Recording an id twice is not an error.
func (s *IdempotencyStore) Add(ctx context.Context, eventID string) error {
	if err := s.client.SetNX(ctx, processedKeyPrefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("record processed event: %w", err)
	}
	return nil
}
