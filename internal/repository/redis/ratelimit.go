package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "ratelimit:assistant:"

// RateLimiter bounds how many assistant turns a tenant may start per minute.
// Counting is a plain INCR on a per-tenant key; the first increment in a
// window attaches the expiry.
type RateLimiter struct {
	client         *Client
	turnsPerMinute int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, turnsPerMinute int) *RateLimiter {
	return &RateLimiter{client: client, turnsPerMinute: turnsPerMinute}
}

// Allow reports whether a tenant may start another turn, how many turns
// remain in the current window, and when the window resets.
func (r *RateLimiter) Allow(ctx context.Context, tenantID uuid.UUID) (bool, int, time.Time, error) {
	key := rateLimitPrefix + tenantID.String()

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, time.Minute)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limit check: %w", err)
	}

	used := int(incr.Val())
	remaining := r.turnsPerMinute - used
	if remaining < 0 {
		remaining = 0
	}
	return used <= r.turnsPerMinute, remaining, time.Now().Add(ttl.Val()), nil
}

// Reset clears the current window for a tenant.
func (r *RateLimiter) Reset(ctx context.Context, tenantID uuid.UUID) error {
	return r.client.rdb.Del(ctx, rateLimitPrefix+tenantID.String()).Err()
}
