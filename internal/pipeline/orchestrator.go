// Package pipeline runs a lead campaign: discovery, enrichment and contact
// extraction over fanned-out source adapters, then export.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/fanout"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/scoring"
)

// ReportWriter persists a finished campaign and returns where it went.
type ReportWriter interface {
	Write(ctx context.Context, result *model.CampaignResult) (string, error)
}

// Orchestrator drives one campaign at a time through its states.
type Orchestrator struct {
	cfg      Config
	scoring  scoring.Config
	adapters Adapters
	fanout   *fanout.Coordinator
	writer   ReportWriter

	mu     sync.RWMutex
	status model.CampaignStatus

	nowFunc func() time.Time
	newID   func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithReportWriter sets the writer used in the exporting state. Without one,
// export is skipped.
func WithReportWriter(w ReportWriter) Option {
	return func(o *Orchestrator) { o.writer = w }
}

// WithCoordinator sets the fan-out coordinator, typically to share breakers
// between campaigns.
func WithCoordinator(c *fanout.Coordinator) Option {
	return func(o *Orchestrator) { o.fanout = c }
}

// WithScoring overrides the scoring weights.
func WithScoring(c scoring.Config) Option {
	return func(o *Orchestrator) { o.scoring = c }
}

// WithNow overrides the clock used for timestamps.
func WithNow(now func() time.Time) Option {
	return func(o *Orchestrator) { o.nowFunc = now }
}

// New creates an idle Orchestrator.
func New(cfg Config, adapters Adapters, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		scoring:  scoring.DefaultConfig(),
		adapters: adapters,
		status:   model.CampaignStatusIdle,
		nowFunc:  time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.fanout == nil {
		o.fanout = fanout.New(fanout.WithTimeout(cfg.AdapterTimeout()))
	}
	return o
}

// Status returns the current campaign state.
func (o *Orchestrator) Status() model.CampaignStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// setStatus moves to a new state and logs the transition.
func (o *Orchestrator) setStatus(to model.CampaignStatus) {
	o.mu.Lock()
	from := o.status
	o.status = to
	o.mu.Unlock()
	logTransition(from, to)
}

// begin claims the orchestrator for a new campaign. Only idle or finished
// orchestrators can start one.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	from := o.status
	switch from {
	case model.CampaignStatusIdle, model.CampaignStatusDone, model.CampaignStatusFailed:
		o.status = model.CampaignStatusDiscovering
	default:
		o.mu.Unlock()
		return eris.Errorf("pipeline: campaign already %s", from)
	}
	o.mu.Unlock()
	logTransition(from, model.CampaignStatusDiscovering)
	return nil
}

func logTransition(from, to model.CampaignStatus) {
	zap.L().Debug("pipeline: status changed", zap.String("from", string(from)), zap.String("to", string(to)))
}

// Run executes a full campaign for q. The returned result is non-nil whenever
// the campaign started, including on failure, so callers can inspect
// partial progress.
func (o *Orchestrator) Run(ctx context.Context, q model.Query) (*model.CampaignResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if err := o.scoring.Validate(); err != nil {
		return nil, err
	}
	if len(o.adapters.Discovery) == 0 {
		return nil, &model.ConfigurationError{Field: "sources.discovery", Reason: "must name at least one source"}
	}
	if err := o.begin(); err != nil {
		return nil, err
	}

	result := &model.CampaignResult{
		RunID:     o.newID(),
		Query:     q,
		Status:    model.CampaignStatusDiscovering,
		StartedAt: o.nowFunc().UTC(),
	}
	log := zap.L().With(zap.String("run_id", result.RunID))
	log.Info("pipeline: starting campaign",
		zap.String("industry", q.Industry),
		zap.String("location", q.Location),
		zap.Int("limit", q.Limit),
	)

	fail := func(reason string, err error) (*model.CampaignResult, error) {
		o.setStatus(model.CampaignStatusFailed)
		result.Status = model.CampaignStatusFailed
		result.Reason = reason
		result.CompletedAt = o.nowFunc().UTC()
		result.Stats = computeStats(result)
		log.Error("pipeline: campaign failed", zap.String("reason", reason), zap.Error(err))
		return result, err
	}

	// ===== Discovery =====
	entities, discoverErr := o.trackStage(log, result, model.StageDiscovery, func(rep *model.StageReport) ([]model.Entity, error) {
		return o.discover(ctx, q, rep)
	})
	if discoverErr != nil {
		return fail("no results", discoverErr)
	}
	result.Entities = entities
	if err := ctx.Err(); err != nil {
		return fail("cancelled", eris.Wrap(err, "pipeline: campaign cancelled"))
	}

	if len(entities) > 0 {
		// ===== Enrichment =====
		o.setStatus(model.CampaignStatusEnriching)
		result.Status = model.CampaignStatusEnriching
		_, _ = o.trackStage(log, result, model.StageEnrichment, func(rep *model.StageReport) ([]model.Entity, error) {
			o.forEachEntity(ctx, q, model.StageEnrichment, o.adapters.Enrichment, entities, rep, o.applyEnrichment)
			return entities, nil
		})
		if err := ctx.Err(); err != nil {
			return fail("cancelled", eris.Wrap(err, "pipeline: campaign cancelled"))
		}

		// ===== Contacts =====
		o.setStatus(model.CampaignStatusExtractingContacts)
		result.Status = model.CampaignStatusExtractingContacts
		_, _ = o.trackStage(log, result, model.StageContacts, func(rep *model.StageReport) ([]model.Entity, error) {
			o.forEachEntity(ctx, q, model.StageContacts, o.adapters.Contacts, entities, rep, o.applyContacts)
			return entities, nil
		})
		if err := ctx.Err(); err != nil {
			return fail("cancelled", eris.Wrap(err, "pipeline: campaign cancelled"))
		}
	}

	result.CompletedAt = o.nowFunc().UTC()
	result.Stats = computeStats(result)

	// ===== Export =====
	if o.writer != nil {
		o.setStatus(model.CampaignStatusExporting)
		result.Status = model.CampaignStatusExporting
		start := time.Now()
		path, err := o.writer.Write(ctx, result)
		if err != nil {
			return fail("export failed", eris.Wrap(err, "pipeline: export"))
		}
		result.ExportPath = path
		log.Info("pipeline: export complete", zap.String("path", path), zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	}

	o.setStatus(model.CampaignStatusDone)
	result.Status = model.CampaignStatusDone
	logSummary(log, result)
	return result, nil
}

// trackStage runs fn, timing it and appending its StageReport to result.
func (o *Orchestrator) trackStage(log *zap.Logger, result *model.CampaignResult, stage model.Stage, fn func(rep *model.StageReport) ([]model.Entity, error)) ([]model.Entity, error) {
	log = log.With(zap.String("stage", string(stage)))
	log.Info("pipeline: stage starting")

	rep := model.StageReport{Stage: stage}
	start := time.Now()
	entities, err := fn(&rep)
	rep.DurationMS = time.Since(start).Milliseconds()
	result.Stages = append(result.Stages, rep)

	if err != nil {
		log.Error("pipeline: stage failed", zap.Int64("duration_ms", rep.DurationMS), zap.Error(err))
		return entities, err
	}
	log.Info("pipeline: stage complete",
		zap.Int64("duration_ms", rep.DurationMS),
		zap.Int("records", rep.Records),
		zap.Int("survivors", rep.Survivors),
		zap.Int("failures", len(rep.Failures)),
	)
	return entities, nil
}
