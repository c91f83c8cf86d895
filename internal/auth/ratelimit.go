package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ArkinSolomon/xpkg-core/pkg/ratelimitport"
)

// RateLimiter limits authentication attempts (logins, auth-code exchanges)
// per caller using the shared Redis-backed limiter port.
type RateLimiter struct {
	limiter *ratelimitport.Limiter
}

// RateLimitResult holds the result of a rate limit check.
type RateLimitResult = ratelimitport.Result

// NewRateLimiter creates a rate limiter. maxAttempt is the max failed
// attempts allowed per key within the given window.
func NewRateLimiter(rdb *redis.Client, maxAttempt int, window time.Duration) *RateLimiter {
	return &RateLimiter{limiter: ratelimitport.New(rdb, "auth_ratelimit", maxAttempt, window)}
}

// Check returns whether key (an author id, or an ip when no author is
// known) is allowed to attempt another authentication. A nil RateLimiter
// always allows, so callers can hold an optional *RateLimiter without a nil
// check at every call site.
func (rl *RateLimiter) Check(ctx context.Context, key string) (*RateLimitResult, error) {
	if rl == nil {
		return &RateLimitResult{Allowed: true}, nil
	}
	return rl.limiter.Check(ctx, key)
}

// Record records a failed attempt for key.
func (rl *RateLimiter) Record(ctx context.Context, key string) error {
	if rl == nil {
		return nil
	}
	return rl.limiter.Record(ctx, key)
}

// Reset clears the rate limit counter for key, on successful authentication.
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	if rl == nil {
		return nil
	}
	return rl.limiter.Reset(ctx, key)
}
