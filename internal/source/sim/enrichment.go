package sim

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/source"
)

var (
	employeeRanges = []string{"1-10", "11-50", "51-200", "201-500", "500+"}
	revenueRanges  = []string{"$0-1M", "$1M-10M", "$10M-50M", "$50M+"}
	platforms      = []string{"linkedin", "facebook", "instagram", "twitter"}
	newsVerbs      = []string{"Expands", "Launches", "Announces", "Partners with"}
	newsObjects    = []string{"New Service", "Innovation", "Initiative", "Local Business"}
	newsOutlets    = []string{"Local News", "Business Journal", "Industry Today"}
	directoryNames = []string{"better_business_bureau", "chamber_commerce", "industry_specific"}
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns a business name into a URL path segment.
func slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func enrichRecord(e *model.Entity, src string, kind model.Kind, conf float64, fields map[string]any) model.Record {
	return model.Record{
		EntityID:   e.ID,
		Stage:      model.StageEnrichment,
		Source:     src,
		Kind:       kind,
		Confidence: conf,
		Fields:     fields,
	}
}

func businessDetails(cfg Config) *adapter {
	const name = "business_details"
	return newAdapter(name, model.StageEnrichment, 1, cfg, func(r *rand.Rand, req source.Request, _ int) []model.Record {
		e := req.Entity
		return []model.Record{enrichRecord(e, name, model.KindDetails, 0.8, map[string]any{
			model.FieldDescription: fmt.Sprintf("%s is a leading %s business located in %s.",
				e.Name, req.Query.Industry, req.Query.Location),
			model.FieldFoundedYear:   1980 + r.IntN(41),
			model.FieldEmployeeCount: pick(r, employeeRanges),
			model.FieldAnnualRevenue: pick(r, revenueRanges),
		})}
	})
}

func socialMedia(cfg Config) *adapter {
	const name = "social_media"
	return newAdapter(name, model.StageEnrichment, len(platforms), cfg, func(r *rand.Rand, req source.Request, limit int) []model.Record {
		e := req.Entity
		n := min(1+r.IntN(3), limit)
		out := make([]model.Record, 0, n)
		for _, p := range platforms[:n] {
			out = append(out, enrichRecord(e, name, model.KindSocialProfile, between(r, 0.6, 0.9), map[string]any{
				model.FieldPlatform: p,
				model.FieldURL:      fmt.Sprintf("https://%s.com/%s", p, slug(e.Name)),
				"followers":         100 + r.IntN(9901),
				"verified":          r.Float64() > 0.8,
			}))
		}
		return out
	})
}

func newsAPI(cfg Config) *adapter {
	const name = "news_api"
	return newAdapter(name, model.StageEnrichment, 3, cfg, func(r *rand.Rand, req source.Request, limit int) []model.Record {
		e := req.Entity
		n := min(r.IntN(4), limit)
		out := make([]model.Record, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, enrichRecord(e, name, model.KindNewsArticle, between(r, 0.5, 0.8), map[string]any{
				model.FieldTitle: fmt.Sprintf("%s %s %s", e.Name, pick(r, newsVerbs), pick(r, newsObjects)),
				model.FieldURL:   fmt.Sprintf("https://news.example.com/%s/article-%d", slug(e.Name), 1000+r.IntN(9000)),
				"outlet":         pick(r, newsOutlets),
				"days_ago":       1 + r.IntN(90),
			}))
		}
		return out
	})
}

func directories(cfg Config) *adapter {
	const name = "directories"
	return newAdapter(name, model.StageEnrichment, 2, cfg, func(r *rand.Rand, req source.Request, limit int) []model.Record {
		e := req.Entity
		n := min(1+r.IntN(2), limit)
		out := make([]model.Record, 0, n)
		for _, d := range directoryNames[:n] {
			out = append(out, enrichRecord(e, name, model.KindDirectoryListing, between(r, 0.6, 0.85), map[string]any{
				model.FieldDirectory: d,
				model.FieldURL:       fmt.Sprintf("https://%s.com/business/%s", d, slug(e.Name)),
				"rating":             between(r, 3.0, 5.0),
				"accredited":         r.Float64() > 0.6,
				"member_since":       2010 + r.IntN(14),
			}))
		}
		return out
	})
}
