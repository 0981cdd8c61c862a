package cooldown

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Tracker backed by a shared Redis instance. The window is a
// key with a TTL, so it survives process restarts and is visible to
// every instance pointing at the same Redis.
type Redis struct {
	client *redis.Client
	prefix string
	window time.Duration
}

// NewRedis creates a Redis-backed tracker. prefix namespaces the keys,
// e.g. "treasury:cooldown".
func NewRedis(client *redis.Client, prefix string, window time.Duration) *Redis {
	if prefix == "" {
		prefix = "treasury:cooldown"
	}
	return &Redis{client: client, prefix: prefix, window: window}
}

func (r *Redis) key(userID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, userID)
}

func (r *Redis) Remaining(ctx context.Context, userID string) (time.Duration, error) {
	ttl, err := r.client.PTTL(ctx, r.key(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("cooldown ttl: %w", err)
	}
	// PTTL returns a negative duration when the key is missing or has
	// no expiry.
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (r *Redis) Mark(ctx context.Context, userID string) error {
	if err := r.client.Set(ctx, r.key(userID), time.Now().UnixMilli(), r.window).Err(); err != nil {
		return fmt.Errorf("cooldown mark: %w", err)
	}
	return nil
}
