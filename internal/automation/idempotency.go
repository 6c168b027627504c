package automation

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore claims an event id before its automation runs, so a
// re-delivered event does not duplicate side effects.
type IdempotencyStore interface {
	// Acquire returns true when the caller is first to claim the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type redisIdempotencyStore struct {
	client *redis.Client
}

// NewRedisIdempotencyStore backs idempotency markers with Redis SETNX.
func NewRedisIdempotencyStore(client *redis.Client) IdempotencyStore {
	return &redisIdempotencyStore{client: client}
}

func (s *redisIdempotencyStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, key, "1", ttl).Result()
}
