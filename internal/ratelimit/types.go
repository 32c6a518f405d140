// Package ratelimit implements fixed-window request limiting per client key.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// RetryAfter returns how long a rejected caller should wait, rounded up to whole seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	wait := r.Reset.Sub(now)
	if wait <= 0 {
		return 0
	}
	if rounded := wait.Truncate(time.Second); rounded < wait {
		return rounded + time.Second
	}
	return wait
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

// windowBounds returns the index of the window containing now and the instant it ends.
func windowBounds(now time.Time, window time.Duration) (int64, time.Time) {
	size := window.Milliseconds()
	if size <= 0 {
		size = 1
	}
	idx := now.UnixMilli() / size
	return idx, time.UnixMilli((idx + 1) * size).UTC()
}
