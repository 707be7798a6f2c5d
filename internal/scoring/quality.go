package scoring

import "github.com/sells-group/lead-cli/internal/model"

// Thresholds for the "many" bonuses.
const (
	manySocialProfiles    = 3
	manyNewsArticles      = 2
	manyDirectoryListings = 2
)

// QualitySignals are the observable facts about an enriched entity.
type QualitySignals struct {
	HasDescription    bool
	HasFoundedYear    bool
	HasEmployeeCount  bool
	SocialProfiles    int
	NewsArticles      int
	DirectoryListings int
}

// SignalsFor reads quality signals from an entity's enrichment.
func SignalsFor(e *model.Entity) QualitySignals {
	return QualitySignals{
		HasDescription:    model.Present(e.Field(model.FieldDescription)),
		HasFoundedYear:    model.Present(e.Field(model.FieldFoundedYear)),
		HasEmployeeCount:  model.Present(e.Field(model.FieldEmployeeCount)),
		SocialProfiles:    len(e.RecordsOfKind(model.KindSocialProfile)),
		NewsArticles:      len(e.RecordsOfKind(model.KindNewsArticle)),
		DirectoryListings: len(e.RecordsOfKind(model.KindDirectoryListing)),
	}
}

// Quality scores how well an entity was enriched. Each signal contributes
// its weight once and the sum is clamped to [0, 1].
func Quality(w QualityWeights, s QualitySignals) float64 {
	var score float64
	if s.HasDescription {
		score += w.Description
	}
	if s.HasFoundedYear {
		score += w.FoundedYear
	}
	if s.HasEmployeeCount {
		score += w.EmployeeCount
	}
	score += tiered(s.SocialProfiles, manySocialProfiles, w.SocialPresent, w.SocialMany)
	score += tiered(s.NewsArticles, manyNewsArticles, w.NewsPresent, w.NewsMany)
	score += tiered(s.DirectoryListings, manyDirectoryListings, w.DirectoryPresent, w.DirectoryMany)
	return clamp01(score)
}

func tiered(n, many int, present, bonus float64) float64 {
	var s float64
	if n > 0 {
		s += present
	}
	if n >= many {
		s += bonus
	}
	return s
}
