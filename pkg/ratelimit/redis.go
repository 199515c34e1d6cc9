package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter counts requests per key in fixed windows so the limit holds
// across instances. The counter key expires with the window.
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
	prefix      string
}

func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
		prefix:      "ratelimit:",
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := time.Now().UnixNano() / int64(l.window)
	redisKey := l.prefix + key + ":" + time.Unix(0, bucket*int64(l.window)).Format("20060102150405")

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= int64(l.maxRequests), nil
}
