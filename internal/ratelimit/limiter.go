package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ipWindow      = 15 * time.Minute
	ipMaxRequests = 10
)

// Limiter is a redis-backed fixed-window per-IP request limiter. It is
// advisory: callers treat backend errors as "not limited" so an
// unavailable redis never blocks sign-ins.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

func ipKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

// CheckIPRateLimit reports whether the IP has exhausted its window for the
// given purpose.
func (l *Limiter) CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, ipKey(ip, purpose)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check IP rate limit: %w", err)
	}

	return count >= ipMaxRequests, nil
}

// RecordIPRequest counts a request against the IP's window. The window TTL
// is set when the counter is created and rides out until expiry.
func (l *Limiter) RecordIPRequest(ctx context.Context, ip, purpose string) error {
	key := ipKey(ip, purpose)

	pipe := l.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ipWindow)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record IP request: %w", err)
	}

	return nil
}
