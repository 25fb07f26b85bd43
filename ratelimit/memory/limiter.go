package memorylimiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/connelaide/connelaide-api/ratelimit"
)

type bucketState struct {
	// timestamps holds request times in Unix ms, newest last.
	timestamps []int64
}

// Limiter is an in-memory sliding-window rate limiter. It is the single-node
// fallback used when Redis is not configured.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]ratelimit.Limit
	buckets map[string]*bucketState
}

// New constructs an in-memory limiter with the provided per-bucket limits.
func New(limits map[string]ratelimit.Limit) *Limiter {
	if limits == nil {
		limits = ratelimit.Defaults()
	}
	return &Limiter{
		limits:  limits,
		buckets: make(map[string]*bucketState),
	}
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

// Allow applies a sliding window over the bucket's duration, pruning expired
// entries on each call and dropping empty buckets to avoid unbounded memory
// growth.
func (l *Limiter) Allow(_ context.Context, bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}

	lim := l.get(bucket)
	nowMs := time.Now().UnixNano() / 1e6
	windowStart := nowMs - lim.Window.Milliseconds()
	limitKey := fmt.Sprintf("%s:%s", key, bucket)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[limitKey]
	if !ok {
		b = &bucketState{}
		l.buckets[limitKey] = b
	}

	// Prune timestamps outside the window.
	ts := b.timestamps
	pruneIdx := 0
	for pruneIdx < len(ts) && ts[pruneIdx] < windowStart {
		pruneIdx++
	}
	if pruneIdx > 0 {
		ts = ts[pruneIdx:]
	}

	if len(ts) >= lim.Limit {
		// Deny without recording this attempt.
		b.timestamps = ts
		if len(ts) == 0 {
			delete(l.buckets, limitKey)
		}
		return false, nil
	}

	ts = append(ts, nowMs)
	b.timestamps = ts
	return true, nil
}
