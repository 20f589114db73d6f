// Package ratelimit enforces a cross-process QPS ceiling for a shared
// third-party quota. Callers poll-and-retry until the minimum inter-call
// interval has elapsed; the check-and-set is atomic so concurrent workers
// on different hosts cannot both win the same slot.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// checkAndSet stores the current timestamp only when the previous call is
// at least one interval old. Returns 1 on success, 0 when the caller must
// wait. The key expires shortly after the interval so an idle resource
// leaves nothing behind.
var checkAndSet = redis.NewScript(`
local last = redis.call("GET", KEYS[1])
if last and (tonumber(ARGV[1]) - tonumber(last)) < tonumber(ARGV[2]) then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[3])
return 1
`)

// Limiter spaces calls to a named resource at least one interval apart
// across every process sharing the redis instance.
type Limiter struct {
	redis    *redis.Client
	interval time.Duration
	poll     time.Duration
}

func NewLimiter(redisClient *redis.Client, interval time.Duration) *Limiter {
	poll := interval / 10
	if poll < 10*time.Millisecond {
		poll = 10 * time.Millisecond
	}
	return &Limiter{redis: redisClient, interval: interval, poll: poll}
}

// TryAcquire attempts to claim the next call slot for the resource.
func (l *Limiter) TryAcquire(ctx context.Context, resource string) (bool, error) {
	now := time.Now().UnixMilli()
	intervalMS := l.interval.Milliseconds()
	expiryMS := intervalMS * 2

	ok, err := checkAndSet.Run(ctx, l.redis,
		[]string{"ratelimit:last:" + resource},
		now, intervalMS, expiryMS,
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit check for %s: %w", resource, err)
	}
	return ok == 1, nil
}

// Wait blocks until a call slot is claimed or the context ends.
func (l *Limiter) Wait(ctx context.Context, resource string) error {
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		ok, err := l.TryAcquire(ctx, resource)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
