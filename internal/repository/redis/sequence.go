package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	sequenceKeyPrefix = "order_seq:"
	sequenceTTL       = 48 * time.Hour
)

// Sequence implements orderid.Sequence with INCR on a per-day key.
type Sequence struct {
	client goredis.Cmdable
}

// NewSequence creates a Sequence.
func NewSequence(client goredis.Cmdable) *Sequence {
	return &Sequence{client: client}
}

// Next increments the day's counter. The key expires two days after its
// last use.
func (s *Sequence) Next(ctx context.Context, day string) (int64, error) {
	key := sequenceKeyPrefix + day
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, sequenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("incr %s: %w", key, err)
	}
	return incr.Val(), nil
}
