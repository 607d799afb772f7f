// Package ratelimit throttles brute-forceable endpoints with a fixed-window
// counter kept in redis, so the limit holds across server instances.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	rdb    *redis.Client
	max    int64
	window time.Duration
}

// New returns a limiter allowing max hits per key per window. A nil client
// disables limiting (local development without redis).
func New(rdb *redis.Client, max int64, window time.Duration) *Limiter {
	if max < 1 {
		max = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{rdb: rdb, max: max, window: window}
}

// Allow reports whether the caller identified by key may proceed. Redis
// being down fails open: losing throttling beats refusing every login.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.rdb == nil {
		return true
	}
	bucket := time.Now().Unix() / int64(l.window.Seconds())
	k := fmt.Sprintf("ratelimit:%s:%d", key, bucket)

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		slog.Error("rate limiter unavailable", "error", err)
		return true
	}
	if n == 1 {
		// First hit in the window owns the expiry.
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			slog.Error("rate limiter expire failed", "key", k, "error", err)
		}
	}
	return n <= l.max
}
