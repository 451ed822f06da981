// Package ratelimit paces requests against the target site. The crawl
// is sequential, so a fixed interval between actions is all it needs.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type RateLimiter interface {
	Wait(ctx context.Context) error
}

// Fixed enforces a fixed minimum interval between consecutive actions.
type Fixed struct {
	interval   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

func NewFixed(interval time.Duration) *Fixed {
	return &Fixed{interval: interval}
}

// Wait blocks until the configured interval since the previous action
// has elapsed, or the context is cancelled.
func (f *Fixed) Wait(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	elapsed := time.Since(f.lastAction)
	if elapsed < f.interval {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.interval - elapsed):
		}
	}

	f.lastAction = time.Now()
	return nil
}

// Sleep is a plain context-aware pause for the crawl's fixed waits that
// are not tied to the shared request interval.
func Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
