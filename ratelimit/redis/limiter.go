package redislimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/connelaide/connelaide-api/ratelimit"
)

// Limiter is a Redis-backed sliding window limiter using ZSETs, shared
// across API replicas.
type Limiter struct {
	rdb    *redis.Client
	limits map[string]ratelimit.Limit
}

func New(rdb *redis.Client, limits map[string]ratelimit.Limit) *Limiter {
	if limits == nil {
		limits = ratelimit.Defaults()
	}
	return &Limiter{rdb: rdb, limits: limits}
}

func (l *Limiter) get(bucket string) ratelimit.Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return ratelimit.Limit{Limit: 100, Window: time.Minute}
}

// Allow records the request in the bucket's ZSET and checks the window count
// in one pipeline round-trip.
func (l *Limiter) Allow(ctx context.Context, bucket, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}
	lim := l.get(bucket)
	now := time.Now().UnixNano() / 1e6 // ms
	start := now - lim.Window.Milliseconds()
	limitKey := fmt.Sprintf("ratelimit:%s:%s", key, bucket)

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, limitKey, redis.Z{Score: float64(now), Member: now})
	pipe.ZRemRangeByScore(ctx, limitKey, "0", fmt.Sprintf("%d", start))
	countCmd := pipe.ZCard(ctx, limitKey)
	pipe.Expire(ctx, limitKey, lim.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	count, err := countCmd.Result()
	if err != nil {
		return false, err
	}
	if count > int64(lim.Limit) {
		l.rdb.ZRem(ctx, limitKey, now)
		return false, nil
	}
	return true, nil
}
