// Package ratelimit defines per-bucket sliding-window limits applied to
// authenticated API traffic, keyed by the caller's subject.
package ratelimit

import (
	"context"
	"time"
)

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Buckets used by the API layer.
const (
	BucketRead    = "api_read"
	BucketWrite   = "api_write"
	BucketRefresh = "refresh"
)

// Defaults returns the stock limits; refresh is deliberately tight since
// each hit can enqueue background work.
func Defaults() map[string]Limit {
	return map[string]Limit{
		"default":     {Limit: 300, Window: time.Minute},
		BucketRead:    {Limit: 300, Window: time.Minute},
		BucketWrite:   {Limit: 60, Window: time.Minute},
		BucketRefresh: {Limit: 5, Window: time.Minute},
	}
}

// Limiter decides whether one more request fits the bucket's window.
type Limiter interface {
	Allow(ctx context.Context, bucket, key string) (bool, error)
}
