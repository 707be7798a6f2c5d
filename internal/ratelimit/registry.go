package ratelimit

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry owns one Bucket per source name. Buckets are independent:
// exhausting one source never delays another.
type Registry struct {
	mu      sync.RWMutex
	buckets map[string]*Bucket
	table   Table
	opts    []Option
}

// NewRegistry validates the table and builds a bucket for every configured
// source. Unconfigured sources get a default bucket on first use.
func NewRegistry(table Table, opts ...Option) (*Registry, error) {
	table = table.withDefaults()
	if err := table.Validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		buckets: make(map[string]*Bucket, len(table.Sources)),
		table:   table,
		opts:    opts,
	}
	for name, bc := range table.Sources {
		b, err := NewBucket(bc.Capacity, bc.RefillPerSec, opts...)
		if err != nil {
			return nil, err
		}
		r.buckets[name] = b
	}
	return r, nil
}

// Bucket returns the bucket for source, creating a default one if needed.
func (r *Registry) Bucket(source string) *Bucket {
	r.mu.RLock()
	b, ok := r.buckets[source]
	r.mu.RUnlock()
	if ok {
		return b
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok = r.buckets[source]; ok {
		return b
	}
	// The default config was validated in NewRegistry.
	b, _ = NewBucket(r.table.Default.Capacity, r.table.Default.RefillPerSec, r.opts...)
	r.buckets[source] = b
	zap.L().Debug("ratelimit: created default bucket",
		zap.String("source", source),
		zap.Int("capacity", b.Capacity()),
		zap.Float64("refill_per_sec", b.RefillRate()),
	)
	return b
}

// Acquire blocks until source's bucket grants n tokens or ctx is done.
func (r *Registry) Acquire(ctx context.Context, source string, n int) error {
	return r.Bucket(source).Acquire(ctx, n)
}

// Snapshot returns the tokens currently available per known source.
func (r *Registry) Snapshot() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]float64, len(r.buckets))
	for name, b := range r.buckets {
		out[name] = b.Tokens()
	}
	return out
}

// Sources returns the names of all buckets created so far, sorted.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.buckets))
	for name := range r.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Config returns the effective bucket configuration for source.
func (r *Registry) Config(source string) BucketConfig {
	if bc, ok := r.table.Sources[source]; ok {
		return bc
	}
	return r.table.Default
}
