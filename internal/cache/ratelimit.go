package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window counter on Redis. The first hit in a window
// creates the key with the window as its TTL; the window resets when the key
// expires.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

// NewLimiter builds a limiter allowing limit hits per window per key.
func NewLimiter(client *redis.Client, prefix string, limit int64, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window, prefix: prefix}
}

// Allow counts a hit against key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	full := l.prefix + ":" + key

	count, err := l.client.Incr(ctx, full).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr %s: %w", full, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, full, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire %s: %w", full, err)
		}
	}
	return count <= l.limit, nil
}

// Reset clears the counter for key, used after a successful login so
// legitimate users are not locked out by earlier failures.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+":"+key).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}
