// Package ratelimit provides a Redis-backed fixed-window rate limiter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// One round trip: bump the counter and start the window on first hit.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

const defaultPrefix = "organlink:ratelimit"

// FixedWindowLimiter allows at most limit hits per key in each window.
// Windows are aligned to wall-clock multiples of the window length, so every
// server instance sharing the Redis agrees on the current slot.
type FixedWindowLimiter struct {
	limit  int
	window time.Duration

	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisFixedWindowLimiter connects to Redis at addr.
func NewRedisFixedWindowLimiter(addr, password, prefix string, limit int, window time.Duration) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("ratelimit: limit and window must be positive")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("ratelimit: redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &FixedWindowLimiter{
		limit:  limit,
		window: window,
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
		now:    time.Now,
	}, nil
}

// Allow records one hit for key and reports whether it is within quota.
// On Redis errors it fails closed: (false, err).
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}

	windowMs := l.window.Milliseconds()
	if windowMs <= 0 {
		return true, nil
	}
	slot := l.now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, fmt.Errorf("ratelimit: running script: %w", err)
	}
	return count <= int64(l.limit), nil
}

// Close releases the Redis connection pool.
func (l *FixedWindowLimiter) Close() error {
	return l.client.Close()
}
