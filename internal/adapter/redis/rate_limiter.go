package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// FixedWindowLimiter counts requests per key in windows of a fixed length.
// The counter key expires with its window.
type FixedWindowLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

func NewFixedWindowLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *FixedWindowLimiter {
	if prefix == "" {
		prefix = "rl"
	}
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &FixedWindowLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.client == nil {
		return Decision{}, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		key = "unknown"
	}
	storeKey := fmt.Sprintf("%s:%s", l.prefix, key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, storeKey)
	pipe.ExpireNX(ctx, storeKey, l.window)
	ttl := pipe.PTTL(ctx, storeKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("rate limit pipeline: %w", err)
	}

	count := int(incr.Val())
	retry := ttl.Val()
	if retry <= 0 {
		retry = l.window
	}
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:    count <= l.limit,
		Remaining:  remaining,
		RetryAfter: retry,
	}, nil
}

// Limit is Allow reduced to the shape the HTTP middleware consumes.
func (l *FixedWindowLimiter) Limit(ctx context.Context, key string) (bool, time.Duration, error) {
	d, err := l.Allow(ctx, key)
	if err != nil {
		return false, 0, err
	}
	return d.Allowed, d.RetryAfter, nil
}
