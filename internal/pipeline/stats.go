package pipeline

import (
	"github.com/sells-group/lead-cli/internal/model"
)

// computeStats derives campaign-wide counts and averages from the entities
// and stage reports.
func computeStats(r *model.CampaignResult) model.Stats {
	s := model.Stats{
		Entities:          len(r.Entities),
		BySource:          make(map[string]int),
		EnrichmentSources: make(map[string]int),
		ContactSources:    make(map[string]int),
	}

	var discovery, quality, extraction float64
	for i := range r.Entities {
		e := &r.Entities[i]
		discovery += e.Discovery.Score
		quality += e.QualityScore
		extraction += e.Contacts.ExtractionScore

		s.Contacts += len(e.Contacts.All)
		s.DecisionMakers += len(e.Contacts.DecisionMakers)

		if len(e.Discovery.Records) > 0 {
			s.BySource[e.Discovery.Records[0].Source]++
		}
		used := make(map[string]struct{})
		for _, rec := range e.Enrichment.Records {
			if _, ok := used[rec.Source]; ok {
				continue
			}
			used[rec.Source] = struct{}{}
			s.EnrichmentSources[rec.Source]++
		}
		for _, c := range e.Contacts.All {
			s.ContactSources[c.Source]++
		}
	}

	if n := float64(len(r.Entities)); n > 0 {
		s.AvgDiscoveryConfidence = discovery / n
		s.AvgQualityScore = quality / n
		s.AvgExtractionScore = extraction / n
	}
	for _, st := range r.Stages {
		s.AdapterFailures += len(st.Failures)
	}
	return s
}
