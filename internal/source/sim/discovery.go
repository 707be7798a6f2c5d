package sim

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/lead-cli/internal/model"
	"github.com/sells-group/lead-cli/internal/source"
)

// listing describes how one directory-style search source names and places
// the businesses it returns.
type listing struct {
	source     string
	max        int
	nameFormat string // industry, index
	street     string
	number     int
	step       int
	host       string
	idPrefix   string
	confLo     float64
	confHi     float64
}

// titleCase builds a fresh caser per call; a Caser is not safe for
// concurrent use and discovery adapters run in parallel.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

func (l listing) generate(r *rand.Rand, req source.Request, limit int) []model.Record {
	industry := titleCase(req.Query.Industry)
	out := make([]model.Record, 0, limit)
	for i := 1; i <= limit; i++ {
		localID := fmt.Sprintf("%s_%d", l.idPrefix, i)
		out = append(out, model.Record{
			EntityID:   l.source + ":" + localID,
			Stage:      model.StageDiscovery,
			Source:     l.source,
			Kind:       model.KindBusiness,
			Confidence: between(r, l.confLo, l.confHi),
			Fields: map[string]any{
				model.FieldName:     fmt.Sprintf(l.nameFormat, industry, i),
				model.FieldAddress:  fmt.Sprintf("%d %s, %s", l.number+(i-1)*l.step, l.street, req.Query.Location),
				model.FieldPhone:    phone(r),
				model.FieldWebsite:  fmt.Sprintf("https://%s%d.example.com", l.host, i),
				model.FieldIndustry: req.Query.Industry,
				model.FieldLocation: req.Query.Location,
				model.FieldSourceID: localID,
			},
		})
	}
	return out
}

func phone(r *rand.Rand) string {
	return fmt.Sprintf("(%d) %d-%04d", 200+r.IntN(800), 200+r.IntN(800), 1000+r.IntN(9000))
}

func googleMaps(cfg Config) *adapter {
	l := listing{
		source: "google_maps", max: 5,
		nameFormat: "Sample %s Business %d",
		street:     "Main St", number: 100, step: 10,
		host: "business", idPrefix: "place",
		confLo: 0.6, confHi: 0.9,
	}
	return newAdapter(l.source, model.StageDiscovery, l.max, cfg, l.generate)
}

func yelp(cfg Config) *adapter {
	l := listing{
		source: "yelp", max: 3,
		nameFormat: "Yelp %s Spot %d",
		street:     "Second Ave", number: 200, step: 15,
		host: "yelpbiz", idPrefix: "biz",
		confLo: 0.5, confHi: 0.8,
	}
	return newAdapter(l.source, model.StageDiscovery, l.max, cfg, l.generate)
}

// yellowPages also re-lists the first Google Maps business under an
// upper-cased name, the way directory aggregators copy each other.
func yellowPages(cfg Config) *adapter {
	l := listing{
		source: "yellow_pages", max: 2,
		nameFormat: "YP %s Co. %d",
		street:     "Third St", number: 300, step: 20,
		host: "ypbiz", idPrefix: "yp",
		confLo: 0.4, confHi: 0.7,
	}
	gen := func(r *rand.Rand, req source.Request, limit int) []model.Record {
		recs := l.generate(r, req, limit)
		if len(recs) > 1 {
			industry := titleCase(req.Query.Industry)
			recs[1].Fields[model.FieldName] = strings.ToUpper(fmt.Sprintf("Sample %s Business 1", industry))
		}
		return recs
	}
	return newAdapter(l.source, model.StageDiscovery, l.max, cfg, gen)
}
