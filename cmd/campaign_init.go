package main

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-cli/internal/fanout"
	"github.com/sells-group/lead-cli/internal/pipeline"
	"github.com/sells-group/lead-cli/internal/ratelimit"
	"github.com/sells-group/lead-cli/internal/report"
	"github.com/sells-group/lead-cli/internal/resilience"
	"github.com/sells-group/lead-cli/internal/source"
	"github.com/sells-group/lead-cli/internal/source/sim"
)

// campaignEnv holds everything shared between campaigns: the rate-limit
// registry, the adapters wrapped with it, the breakers and the report writer.
type campaignEnv struct {
	Limits   *ratelimit.Registry
	Catalog  *source.Catalog
	Adapters pipeline.Adapters
	Fanout   *fanout.Coordinator
	Writer   *report.Writer
}

// initCampaign validates cfg for mode and wires the campaign environment.
func initCampaign(mode string) (*campaignEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	limits, err := ratelimit.NewRegistry(cfg.RateLimits)
	if err != nil {
		return nil, eris.Wrap(err, "init rate limits")
	}

	catalog := source.NewCatalog()
	sim.Register(catalog, cfg.Sources.Sim)

	adapters, err := pipeline.BuildAdapters(catalog, cfg.Sources.SourceLists, limits)
	if err != nil {
		return nil, err
	}

	writer, err := report.New(cfg.Export)
	if err != nil {
		return nil, err
	}

	co := fanout.New(
		fanout.WithBreakers(resilience.NewBreakers(cfg.Resilience.BreakerConfig())),
		fanout.WithRetry(cfg.Resilience.RetryPolicy()),
		fanout.WithTimeout(cfg.Pipeline.AdapterTimeout()),
	)

	return &campaignEnv{
		Limits:   limits,
		Catalog:  catalog,
		Adapters: adapters,
		Fanout:   co,
		Writer:   writer,
	}, nil
}

// newOrchestrator builds an orchestrator for one campaign on the shared
// environment.
func (e *campaignEnv) newOrchestrator() *pipeline.Orchestrator {
	return pipeline.New(cfg.Pipeline, e.Adapters,
		pipeline.WithCoordinator(e.Fanout),
		pipeline.WithReportWriter(e.Writer),
		pipeline.WithScoring(cfg.Scoring),
	)
}
