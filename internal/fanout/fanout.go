// Package fanout issues one logical request to many source adapters at once
// and collects whatever succeeds.
package fanout

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/source"
)

// Coordinator runs adapters concurrently behind per-source breakers and
// retries. It is safe for concurrent use.
type Coordinator struct {
	breakers *resilience.Breakers
	retry    resilience.RetryPolicy
	timeout  time.Duration
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBreakers shares a per-source breaker set across coordinators.
func WithBreakers(b *resilience.Breakers) Option {
	return func(c *Coordinator) { c.breakers = b }
}

// WithRetry sets the retry policy applied to every adapter call.
func WithRetry(p resilience.RetryPolicy) Option {
	return func(c *Coordinator) { c.retry = p }
}

// WithTimeout bounds each adapter call, retries included. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) { c.timeout = d }
}

// New creates a Coordinator.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		retry: resilience.DefaultRetryPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.breakers == nil {
		c.breakers = resilience.NewBreakers(resilience.DefaultBreakerConfig())
	}
	return c
}

// Breakers returns the coordinator's breaker set.
func (c *Coordinator) Breakers() *resilience.Breakers { return c.breakers }

type slot struct {
	records []model.Record
	err     *model.AdapterError
}

// Run calls every adapter with req and waits for all of them. A failing
// adapter never cancels the others. Records are returned in adapter order,
// then in the order each adapter produced them.
func (c *Coordinator) Run(ctx context.Context, stage model.Stage, req source.Request, adapters []source.Adapter) *Outcome {
	slots := make([]slot, len(adapters))

	var g errgroup.Group
	for i, a := range adapters {
		g.Go(func() error {
			slots[i] = c.call(ctx, stage, req, a)
			return nil
		})
	}
	_ = g.Wait()

	out := &Outcome{Stage: stage, Attempted: len(adapters)}
	for _, s := range slots {
		if s.err != nil {
			out.Failures = append(out.Failures, s.err)
			continue
		}
		out.Records = append(out.Records, s.records...)
	}
	return out
}

func (c *Coordinator) call(ctx context.Context, stage model.Stage, req source.Request, a source.Adapter) (s slot) {
	name := a.Name()
	log := zap.L().With(zap.String("stage", string(stage)), zap.String("source", name))
	if req.Entity != nil {
		log = log.With(zap.String("entity_id", req.Entity.ID))
	}

	defer func() {
		if r := recover(); r != nil {
			s = slot{err: &model.AdapterError{Source: name, Stage: stage, Err: eris.Errorf("fanout: adapter panicked: %v", r)}}
			log.Warn("fanout: adapter failed", zap.String("error_type", "panic"), zap.Error(s.err.Err))
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	policy := c.retry
	policy.OnRetry = resilience.RetryLogger(name, stage)

	start := time.Now()
	recs, err := resilience.Guard(ctx, c.breakers.Get(name), func(ctx context.Context) ([]model.Record, error) {
		return resilience.Call(ctx, policy, func(ctx context.Context) ([]model.Record, error) {
			return a.Fetch(ctx, req)
		})
	})
	if err != nil {
		log.Warn("fanout: adapter failed",
			zap.String("error_type", resilience.Classify(err)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return slot{err: &model.AdapterError{Source: name, Stage: stage, Err: err}}
	}

	recs = slices.Clone(recs)
	for i := range recs {
		if recs[i].Source == "" {
			recs[i].Source = name
		}
		recs[i].Stage = stage
		recs[i].Confidence = clamp(recs[i].Confidence)
	}
	log.Debug("fanout: adapter returned", zap.Int("records", len(recs)), zap.Duration("elapsed", time.Since(start)))
	return slot{records: recs}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
