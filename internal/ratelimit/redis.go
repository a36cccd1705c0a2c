package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window counter shared by every instance pointing at the
// same server.
type Redis struct {
	rdb    redis.Cmdable
	prefix string
	limit  int64
	window time.Duration
	now    func() time.Time
}

// NewRedis allows limit requests per key in each window.
func NewRedis(rdb redis.Cmdable, prefix string, limit int, window time.Duration) *Redis {
	if window <= 0 {
		window = time.Second
	}
	return &Redis{
		rdb:    rdb,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
		now:    time.Now,
	}
}

// WindowFor spreads a token-bucket budget (rate per second, burst) over one
// fixed window of burst/rate seconds.
func WindowFor(rate float64, burst int) time.Duration {
	if rate <= 0 || burst <= 0 {
		return time.Second
	}
	return time.Duration(float64(burst) / rate * float64(time.Second))
}

func (l *Redis) key(key string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return l.prefix + "ratelimit:" + key + ":" + strconv.FormatInt(bucket, 10)
}

func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.Expire(ctx, k, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis: rate limit allow %s: %w", key, err)
	}
	return incr.Val() <= l.limit, nil
}
