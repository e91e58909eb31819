package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisLimiter shares fixed windows across proxy replicas. The first hit in
// a window creates the counter with its expiry; INCR keeps that expiry.
type RedisLimiter struct {
	client redis.Cmdable
	limit  int64
	per    time.Duration
	prefix string
}

func NewRedisLimiter(client redis.Cmdable, limit int, per time.Duration, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "soraprobe:ratelimit"
	}
	return &RedisLimiter{client: client, limit: int64(limit), per: per, prefix: prefix}
}

func (l *RedisLimiter) key(ip string) string {
	return fmt.Sprintf("%s:%s", l.prefix, ip)
}

func (l *RedisLimiter) Allow(ctx context.Context, ip string) (bool, time.Duration, error) {
	key := l.key(ip)
	pipe := l.client.TxPipeline()
	pipe.SetNX(ctx, key, 0, l.per)
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("ratelimit: redis: %w", err)
	}
	if incr.Val() > l.limit {
		return false, ttl.Val(), nil
	}
	return true, 0, nil
}
