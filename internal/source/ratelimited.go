package source

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/model"
)

// Limiter grants per-source tokens. *ratelimit.Registry satisfies it.
type Limiter interface {
	Acquire(ctx context.Context, source string, n int) error
}

type rateLimited struct {
	Adapter
	limiter Limiter
}

// RateLimited wraps a so that every Fetch first takes one token from the
// adapter's bucket.
func RateLimited(a Adapter, l Limiter) Adapter {
	return &rateLimited{Adapter: a, limiter: l}
}

func (r *rateLimited) Fetch(ctx context.Context, req Request) ([]model.Record, error) {
	if err := r.limiter.Acquire(ctx, r.Name(), 1); err != nil {
		return nil, eris.Wrapf(err, "source: rate limit wait for %s", r.Name())
	}
	return r.Adapter.Fetch(ctx, req)
}

// Unwrap returns the decorated adapter.
func (r *rateLimited) Unwrap() Adapter { return r.Adapter }
