package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-cli/internal/dedup"
	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/scoring"
	"github.com/sells-group/lead-cli/internal/source"
)

// discover fans the query out to the discovery adapters and turns the
// deduplicated, capped survivors into entities.
func (o *Orchestrator) discover(ctx context.Context, q model.Query, rep *model.StageReport) ([]model.Entity, error) {
	out := o.fanout.Run(ctx, model.StageDiscovery, source.Request{Query: q, Limit: q.Limit}, o.adapters.Discovery)
	rep.Records = len(out.Records)
	rep.Failures = out.FailureReports()

	kept := dedup.Records(out.Records, dedup.FieldKey(model.FieldName))
	if len(kept) > q.Limit {
		kept = kept[:q.Limit]
	}
	rep.Survivors = len(kept)

	if len(kept) == 0 {
		if o.cfg.AllowEmpty && !out.AllFailed() {
			zap.L().Warn("pipeline: discovery found nothing, continuing with an empty campaign")
			return nil, nil
		}
		return nil, out.Err()
	}

	entities := make([]model.Entity, len(kept))
	ids := make(map[string]struct{}, len(kept))
	for i, r := range kept {
		id := r.EntityID
		if id == "" {
			id = fmt.Sprintf("%s:%d", r.Source, i+1)
		}
		if _, dup := ids[id]; dup {
			id = fmt.Sprintf("%s#%d", id, i+1)
		}
		ids[id] = struct{}{}
		r.EntityID = id

		recs := []model.Record{r}
		entities[i] = model.Entity{
			ID:   id,
			Name: r.String(model.FieldName),
			Discovery: model.MergedEntity{
				EntityID:     id,
				Stage:        model.StageDiscovery,
				Records:      recs,
				MergedFields: dedup.MergeFields(recs),
				Score:        r.Confidence,
			},
		}
	}
	return entities, nil
}

// applyFunc folds an entity's own records for one stage into the entity and
// returns how many records it kept.
type applyFunc func(e *model.Entity, recs []model.Record) int

type entityTally struct {
	records  int
	kept     int
	failures []model.AdapterFailure
}

// forEachEntity runs one stage for every entity, at most
// MaxConcurrentEntities at a time. Each goroutine writes only its own
// entity and tally slot.
func (o *Orchestrator) forEachEntity(ctx context.Context, q model.Query, stage model.Stage, adapters []source.Adapter, entities []model.Entity, rep *model.StageReport, apply applyFunc) {
	if len(adapters) == 0 {
		zap.L().Info("pipeline: no adapters configured, skipping stage", zap.String("stage", string(stage)))
		return
	}

	tallies := make([]entityTally, len(entities))
	var g errgroup.Group
	g.SetLimit(o.cfg.MaxConcurrentEntities)
	for i := range entities {
		g.Go(func() error {
			tallies[i] = o.processEntity(ctx, q, stage, adapters, &entities[i], apply)
			return nil
		})
	}
	_ = g.Wait()

	for _, t := range tallies {
		rep.Records += t.records
		if t.kept > 0 {
			rep.Survivors++
		}
		rep.Failures = append(rep.Failures, t.failures...)
	}
}

func (o *Orchestrator) processEntity(ctx context.Context, q model.Query, stage model.Stage, adapters []source.Adapter, e *model.Entity, apply applyFunc) (t entityTally) {
	log := zap.L().With(zap.String("stage", string(stage)), zap.String("entity_id", e.ID))

	defer func() {
		if r := recover(); r != nil {
			entityFailed(log, e, &model.EntityProcessingError{
				EntityID: e.ID,
				Stage:    stage,
				Err:      eris.Errorf("pipeline: panic: %v", r),
			})
		}
	}()

	if err := ctx.Err(); err != nil {
		entityFailed(log, e, &model.EntityProcessingError{EntityID: e.ID, Stage: stage, Err: err})
		return t
	}

	out := o.fanout.Run(ctx, stage, source.Request{Query: q, Entity: e}, adapters)
	t.records = len(out.Records)
	t.failures = out.FailureReports()
	for i := range t.failures {
		t.failures[i].EntityID = e.ID
	}

	if err := ctx.Err(); err != nil {
		entityFailed(log, e, &model.EntityProcessingError{EntityID: e.ID, Stage: stage, Err: err})
		return t
	}

	t.kept = apply(e, ownRecords(log, e.ID, out.Records))
	return t
}

func entityFailed(log *zap.Logger, e *model.Entity, err *model.EntityProcessingError) {
	e.Errors = append(e.Errors, err.Error())
	log.Warn("pipeline: entity processing failed", zap.Error(err))
}

// ownRecords stamps records that carry no identity with entityID and drops
// records that name a different entity.
func ownRecords(log *zap.Logger, entityID string, recs []model.Record) []model.Record {
	out := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		switch r.EntityID {
		case "":
			r.EntityID = entityID
		case entityID:
		default:
			log.Debug("pipeline: dropping record for another entity",
				zap.String("source", r.Source),
				zap.String("record_entity_id", r.EntityID),
			)
			continue
		}
		out = append(out, r)
	}
	return out
}

func (o *Orchestrator) applyEnrichment(e *model.Entity, recs []model.Record) int {
	recs = dedup.Records(recs, dedup.KindURLKey)
	e.Enrichment = model.MergedEntity{
		EntityID:     e.ID,
		Stage:        model.StageEnrichment,
		Records:      recs,
		MergedFields: dedup.MergeFields(recs),
	}
	e.QualityScore = scoring.Quality(o.scoring.Quality, scoring.SignalsFor(e))
	e.Enrichment.Score = e.QualityScore
	return len(recs)
}

func (o *Orchestrator) applyContacts(e *model.Entity, recs []model.Record) int {
	var contacts []model.Contact
	for _, r := range recs {
		if r.Kind != model.KindContact && r.Kind != "" {
			continue
		}
		contacts = append(contacts, model.ContactFromRecord(r, len(contacts)))
	}
	contacts = dedup.Contacts(contacts)

	all, dms := scoring.Classify(o.scoring.Decision, contacts)
	set := model.ContactSet{
		All:            all,
		DecisionMakers: dms,
		SourcesUsed:    contactSources(all),
	}
	set.ExtractionScore = scoring.Extraction(o.scoring.Extraction, set)
	e.Contacts = set
	return len(all)
}

func contactSources(contacts []model.Contact) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range contacts {
		if _, ok := seen[c.Source]; ok || c.Source == "" {
			continue
		}
		seen[c.Source] = struct{}{}
		out = append(out, c.Source)
	}
	return out
}
