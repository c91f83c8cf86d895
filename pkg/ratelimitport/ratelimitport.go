// Package ratelimitport is the coarse external rate limiter spec.md §5
// describes: a counter keyed by an arbitrary subject (an author id, a
// client ip, a login attempt) with a fixed window, backed by Redis
// INCR+EXPIRE. Request path code is expected to key by authorId when one is
// known and fall back to the caller's ip otherwise.
package ratelimitport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts attempts against an arbitrary string key using Redis
// INCR+EXPIRE, generalized to any rate-limited operation (uploads, login,
// auth-code exchange).
type Limiter struct {
	redis      *redis.Client
	keyPrefix  string
	maxAttempt int
	window     time.Duration
}

// New builds a Limiter scoped under keyPrefix (e.g. "upload", "login"),
// allowing maxAttempt operations per key within window.
func New(rdb *redis.Client, keyPrefix string, maxAttempt int, window time.Duration) *Limiter {
	return &Limiter{redis: rdb, keyPrefix: keyPrefix, maxAttempt: maxAttempt, window: window}
}

// Result holds the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	RetryAt   time.Time
}

func (l *Limiter) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", l.keyPrefix, key)
}

// Check returns whether key is currently allowed to perform another
// operation, without recording an attempt.
func (l *Limiter) Check(ctx context.Context, key string) (*Result, error) {
	redisKey := l.redisKey(key)

	count, err := l.redis.Get(ctx, redisKey).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("checking rate limit: %w", err)
	}

	if count >= l.maxAttempt {
		ttl, err := l.redis.TTL(ctx, redisKey).Result()
		if err != nil {
			return nil, fmt.Errorf("getting TTL: %w", err)
		}
		return &Result{Allowed: false, Remaining: 0, RetryAt: time.Now().Add(ttl)}, nil
	}

	return &Result{Allowed: true, Remaining: l.maxAttempt - count}, nil
}

// Record registers one attempt against key, starting its window on the
// first attempt.
func (l *Limiter) Record(ctx context.Context, key string) error {
	redisKey := l.redisKey(key)

	pipe := l.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("recording rate limit: %w", err)
	}

	if incr.Val() == 1 {
		l.redis.Expire(ctx, redisKey, l.window)
	}

	return nil
}

// Reset clears key's counter, used after a successful operation that should
// not count against future attempts.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.redis.Del(ctx, l.redisKey(key)).Err()
}
