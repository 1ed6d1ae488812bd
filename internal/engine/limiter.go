package engine

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/IshaanNene/catalogcrawl/internal/observability"
)

// Limiter admits at most a fixed number of top-level fetch operations at
// once. One Limiter is shared by both pipelines of a run.
type Limiter struct {
	sem     *semaphore.Weighted
	size    int
	metrics *observability.Metrics
}

// NewLimiter creates a Limiter admitting n concurrent operations.
func NewLimiter(n int, metrics *observability.Metrics) *Limiter {
	if n < 1 {
		n = 1
	}
	return &Limiter{
		sem:     semaphore.NewWeighted(int64(n)),
		size:    n,
		metrics: metrics,
	}
}

// Size returns the admission limit.
func (l *Limiter) Size() int { return l.size }

// Do runs fn once a slot is free. It returns ctx.Err() without running fn
// if ctx is done before admission.
func (l *Limiter) Do(ctx context.Context, fn func()) error {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer l.sem.Release(1)

	if l.metrics != nil {
		l.metrics.InFlight.Add(1)
		defer l.metrics.InFlight.Add(-1)
	}

	fn()
	return nil
}
