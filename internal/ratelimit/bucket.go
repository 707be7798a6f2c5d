// Package ratelimit provides per-source token buckets and the registry that
// owns them.
package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-cli/internal/model"
)

// maxWait caps a single sleep between acquisition attempts.
const maxWait = time.Second

// Bucket is a token bucket with a fixed capacity and refill rate. The
// refill-and-take step is performed under the rate.Limiter mutex, so
// concurrent callers can never over-admit.
type Bucket struct {
	capacity int
	refill   float64
	limiter  *rate.Limiter

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Bucket.
type Option func(*Bucket)

// WithClock replaces the time source and sleep function. Tests use it to
// drive refill deterministically.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(b *Bucket) {
		if now != nil {
			b.now = now
		}
		if sleep != nil {
			b.sleep = sleep
		}
	}
}

// NewBucket creates a full bucket. capacity and refill (tokens per second)
// must both be positive.
func NewBucket(capacity int, refill float64, opts ...Option) (*Bucket, error) {
	if capacity <= 0 {
		return nil, &model.ConfigurationError{Field: "capacity", Reason: "must be greater than zero"}
	}
	if refill <= 0 || math.IsNaN(refill) || math.IsInf(refill, 0) {
		return nil, &model.ConfigurationError{Field: "refill_per_sec", Reason: "must be a positive finite number"}
	}

	b := &Bucket{
		capacity: capacity,
		refill:   refill,
		now:      time.Now,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.limiter = rate.NewLimiter(rate.Limit(refill), capacity)
	// Pin the limiter's refill baseline to the injected clock.
	b.limiter.SetLimitAt(b.now(), rate.Limit(refill))
	return b, nil
}

// Capacity returns the maximum number of tokens the bucket holds.
func (b *Bucket) Capacity() int { return b.capacity }

// RefillRate returns the refill rate in tokens per second.
func (b *Bucket) RefillRate() float64 { return b.refill }

// Tokens returns the number of tokens available now.
func (b *Bucket) Tokens() float64 {
	t := b.limiter.TokensAt(b.now())
	if t < 0 {
		return 0
	}
	return t
}

// TryAcquire takes n tokens if they are available and reports whether it did.
// On failure nothing is taken.
func (b *Bucket) TryAcquire(n int) bool {
	if n <= 0 {
		return true
	}
	return b.limiter.AllowN(b.now(), n)
}

// Acquire blocks until n tokens have been taken or ctx is done. Requests
// larger than the capacity can never succeed and fail immediately.
func (b *Bucket) Acquire(ctx context.Context, n int) error {
	if n > b.capacity {
		return &model.ConfigurationError{
			Field:  "tokens",
			Reason: "request exceeds bucket capacity",
		}
	}

	wait := time.Duration(float64(n) / b.refill * float64(time.Second))
	if wait > maxWait {
		wait = maxWait
	}
	if wait <= 0 {
		wait = time.Millisecond
	}

	for {
		if b.TryAcquire(n) {
			return nil
		}
		if err := b.sleep(ctx, wait); err != nil {
			return eris.Wrap(err, "ratelimit: acquire cancelled")
		}
	}
}

// Drain empties the bucket at the current instant.
func (b *Bucket) Drain() {
	now := b.now()
	avail := int(math.Floor(b.limiter.TokensAt(now)))
	if avail > 0 {
		b.limiter.AllowN(now, avail)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
