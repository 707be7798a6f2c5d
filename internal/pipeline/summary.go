package pipeline

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/lead-cli/internal/model"
)

// summarySamples is how many top entities the summary log line names.
const summarySamples = 3

// logSummary logs the campaign outcome with its best entities by quality.
func logSummary(log *zap.Logger, r *model.CampaignResult) {
	top := topEntities(r.Entities, summarySamples)
	samples := make([]string, len(top))
	for i, e := range top {
		samples[i] = e.Name
	}

	log.Info("pipeline: campaign complete",
		zap.String("status", string(r.Status)),
		zap.Int("entities", r.Stats.Entities),
		zap.Int("contacts", r.Stats.Contacts),
		zap.Int("decision_makers", r.Stats.DecisionMakers),
		zap.Float64("avg_quality", r.Stats.AvgQualityScore),
		zap.Float64("avg_extraction", r.Stats.AvgExtractionScore),
		zap.Int("adapter_failures", r.Stats.AdapterFailures),
		zap.String("export_path", r.ExportPath),
		zap.Strings("top_entities", samples),
		zap.Duration("elapsed", r.CompletedAt.Sub(r.StartedAt)),
	)
}

// topEntities returns up to n entities ordered by quality score, highest
// first, ties in discovery order.
func topEntities(entities []model.Entity, n int) []model.Entity {
	sorted := slices.Clone(entities)
	slices.SortStableFunc(sorted, func(a, b model.Entity) int {
		return cmp.Compare(b.QualityScore, a.QualityScore)
	})
	return sorted[:min(n, len(sorted))]
}
