package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned when a pool's hourly quota is exhausted.
var ErrRateLimited = errors.New("rate limited")

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("rate limiter storage unavailable")

const window = time.Hour

// Limiter enforces per-pool hourly request quotas using Redis counters.
// A pool's counter starts its hour window on the first increment and resets
// when the window elapses.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, prefix string) *Limiter {
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (l *Limiter) poolKey(pool string) string {
	return l.prefix + ":rl:" + pool
}

func (l *Limiter) minutesKey() string {
	return l.prefix + ":minutes"
}

// Allow records one request against the pool and returns [ErrRateLimited]
// when the count for the current hour window exceeds quota. The rejected
// request is still counted; the window is not extended by rejections.
func (l *Limiter) Allow(ctx context.Context, pool string, quota int) error {
	key := l.poolKey(pool)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	if count > int64(quota) {
		return ErrRateLimited
	}
	return nil
}

// PoolCount returns the current counter for a pool. Missing keys return zero.
func (l *Limiter) PoolCount(ctx context.Context, pool string) (int, error) {
	count, err := l.redis.Get(ctx, l.poolKey(pool)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// Minutes returns the conversation-minutes balance. The second return value
// reports whether a balance has been seeded; callers fall back to the
// configured default when it has not.
func (l *Limiter) Minutes(ctx context.Context) (int, bool, error) {
	n, err := l.redis.Get(ctx, l.minutesKey()).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if n < 0 {
		n = 0
	}
	return int(n), true, nil
}

// SetMinutes seeds or replaces the conversation-minutes balance.
func (l *Limiter) SetMinutes(ctx context.Context, minutes int) error {
	if minutes < 0 {
		minutes = 0
	}
	if err := l.redis.Set(ctx, l.minutesKey(), minutes, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// ConsumeMinutes decrements the balance by n, flooring at zero. The balance
// must have been seeded first (the engine seeds it lazily from config).
func (l *Limiter) ConsumeMinutes(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		cur, _, err := l.Minutes(ctx)
		return cur, err
	}

	remaining, err := l.redis.DecrBy(ctx, l.minutesKey(), int64(n)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if remaining < 0 {
		if err := l.redis.Set(ctx, l.minutesKey(), 0, 0).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		remaining = 0
	}
	return int(remaining), nil
}
