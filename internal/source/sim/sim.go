// Package sim provides deterministic simulated source adapters for every
// pipeline stage. Output depends only on the seed, the adapter and the query
// or entity, never on scheduling.
package sim

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/source"
)

// Config tunes the simulation.
type Config struct {
	Seed        uint64  `mapstructure:"seed"`
	LatencyMS   int     `mapstructure:"latency_ms"`
	FailureRate float64 `mapstructure:"failure_rate"`
}

// ErrUnavailable is the cause of simulated transient failures.
var ErrUnavailable = eris.New("sim: upstream unavailable")

type generator func(r *rand.Rand, req source.Request, limit int) []model.Record

type adapter struct {
	name     string
	stage    model.Stage
	max      int
	cfg      Config
	requires func(e *model.Entity) bool
	generate generator

	mu    sync.Mutex
	calls map[string]uint64
}

func newAdapter(name string, stage model.Stage, maxRecords int, cfg Config, gen generator) *adapter {
	return &adapter{
		name:     name,
		stage:    stage,
		max:      maxRecords,
		cfg:      cfg,
		generate: gen,
		calls:    make(map[string]uint64),
	}
}

func (a *adapter) Name() string       { return a.name }
func (a *adapter) Stage() model.Stage { return a.stage }
func (a *adapter) MaxRecords() int    { return a.max }

func (a *adapter) Fetch(ctx context.Context, req source.Request) ([]model.Record, error) {
	if a.stage != model.StageDiscovery && req.Entity == nil {
		return nil, eris.Errorf("sim: %s needs an entity", a.name)
	}

	key := requestKey(req)
	if err := a.simulate(ctx, key); err != nil {
		return nil, err
	}
	if a.requires != nil && !a.requires(req.Entity) {
		return nil, nil
	}

	limit := source.Cap(a, req)
	if limit == 0 {
		return nil, nil
	}
	recs := a.generate(a.rng(key, 0), req, limit)
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// simulate sleeps for the configured latency and fails transiently at the
// configured rate. Each call for the same key draws fresh numbers so that a
// retry can succeed.
func (a *adapter) simulate(ctx context.Context, key string) error {
	a.mu.Lock()
	a.calls[key]++
	n := a.calls[key]
	a.mu.Unlock()

	r := a.rng(key, n)
	if a.cfg.LatencyMS > 0 {
		half := a.cfg.LatencyMS / 2
		d := time.Duration(half+r.IntN(a.cfg.LatencyMS-half+1)) * time.Millisecond
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return eris.Wrapf(ctx.Err(), "sim: %s cancelled", a.name)
		case <-t.C:
		}
	}
	if a.cfg.FailureRate > 0 && r.Float64() < a.cfg.FailureRate {
		return resilience.NewTransientError(ErrUnavailable, "503")
	}
	return nil
}

func (a *adapter) rng(key string, call uint64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(a.name))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(key))
	return rand.New(rand.NewPCG(a.cfg.Seed+call*0x9e3779b97f4a7c15, h.Sum64()))
}

func requestKey(req source.Request) string {
	if req.Entity != nil {
		return req.Entity.ID
	}
	return req.Query.Industry + "\x00" + req.Query.Location
}

// Adapters returns every simulated adapter.
func Adapters(cfg Config) []source.Adapter {
	return []source.Adapter{
		googleMaps(cfg), yelp(cfg), yellowPages(cfg),
		businessDetails(cfg), socialMedia(cfg), newsAPI(cfg), directories(cfg),
		website(cfg), linkedIn(cfg), betterBusinessBureau(cfg), newsArticle(cfg),
	}
}

// Register adds every simulated adapter to c.
func Register(c *source.Catalog, cfg Config) {
	for _, a := range Adapters(cfg) {
		c.Register(a)
	}
}

func pick[T any](r *rand.Rand, items []T) T {
	return items[r.IntN(len(items))]
}

func between(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
