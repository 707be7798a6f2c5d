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
	websiteFirst    = []string{"John", "Jane", "Mike", "Sarah", "David", "Lisa"}
	websiteLast     = []string{"Smith", "Johnson", "Williams", "Brown", "Davis", "Miller"}
	websiteTitles   = []string{"General Manager", "Operations Manager", "Owner", "Sales Manager", "Marketing Director", "Customer Service Manager"}
	linkedInFirst   = []string{"Michael", "Jennifer", "Robert", "Patricia", "William", "Linda"}
	linkedInLast    = []string{"Anderson", "Taylor", "Thomas", "Jackson", "White", "Harris"}
	linkedInTitles  = []string{"CEO", "President", "VP of Sales", "Director of Operations", "Founder", "Managing Director", "Business Development Manager"}
	bbbFirst        = []string{"Chris", "Alex", "Jordan", "Taylor", "Casey", "Morgan"}
	bbbLast         = []string{"Wilson", "Moore", "Clark", "Lewis", "Walker", "Hall"}
	bbbTitles       = []string{"Business Owner", "Manager", "Director", "Principal"}
	newsFirst       = []string{"Executive", "Spokesperson", "Owner"}
	newsLast        = []string{"Thompson", "Garcia", "Martinez", "Robinson", "Rodriguez", "Young"}
	newsTitles      = []string{"CEO", "Founder", "President", "Spokesperson"}
	mailboxPrefixes = []string{"info", "contact", "sales", "admin", "office"}
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]`)

// businessEmail builds a plausible mailbox on a domain derived from the
// business name.
func businessEmail(r *rand.Rand, businessName string) string {
	domain := nonAlnum.ReplaceAllString(strings.ToLower(businessName), "")
	if len(domain) > 10 {
		domain = domain[:10]
	}
	return fmt.Sprintf("%s@%s.com", pick(r, mailboxPrefixes), domain)
}

func contactRecord(e *model.Entity, src string, conf float64, fields map[string]any) model.Record {
	return model.Record{
		EntityID:   e.ID,
		Stage:      model.StageContacts,
		Source:     src,
		Kind:       model.KindContact,
		Confidence: conf,
		Fields:     fields,
	}
}

func personName(r *rand.Rand, first, last []string) string {
	return pick(r, first) + " " + pick(r, last)
}

func hasRecord(e *model.Entity, kind model.Kind, field, value string) bool {
	for _, rec := range e.RecordsOfKind(kind) {
		if field == "" || rec.String(field) == value {
			return true
		}
	}
	return false
}

func website(cfg Config) *adapter {
	const name = "website"
	a := newAdapter(name, model.StageContacts, 3, cfg, func(r *rand.Rand, req source.Request, limit int) []model.Record {
		e := req.Entity
		n := min(1+r.IntN(3), limit)
		out := make([]model.Record, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, contactRecord(e, name, between(r, 0.6, 0.9), map[string]any{
				model.FieldName:  personName(r, websiteFirst, websiteLast),
				model.FieldTitle: pick(r, websiteTitles),
				model.FieldEmail: businessEmail(r, e.Name),
				model.FieldPhone: model.AsString(e.Field(model.FieldPhone)),
				model.FieldURL:   model.AsString(e.Field(model.FieldWebsite)),
			}))
		}
		return out
	})
	a.requires = func(e *model.Entity) bool { return model.Present(e.Field(model.FieldWebsite)) }
	return a
}

func linkedIn(cfg Config) *adapter {
	const name = "linkedin"
	a := newAdapter(name, model.StageContacts, 1, cfg, func(r *rand.Rand, req source.Request, _ int) []model.Record {
		e := req.Entity
		var profile string
		for _, rec := range e.RecordsOfKind(model.KindSocialProfile) {
			if rec.String(model.FieldPlatform) == "linkedin" {
				profile = rec.String(model.FieldURL)
				break
			}
		}
		return []model.Record{contactRecord(e, name, between(r, 0.7, 0.95), map[string]any{
			model.FieldName:        personName(r, linkedInFirst, linkedInLast),
			model.FieldTitle:       pick(r, linkedInTitles),
			model.FieldEmail:       businessEmail(r, e.Name),
			model.FieldLinkedInURL: profile,
		})}
	})
	a.requires = func(e *model.Entity) bool {
		return hasRecord(e, model.KindSocialProfile, model.FieldPlatform, "linkedin")
	}
	return a
}

func betterBusinessBureau(cfg Config) *adapter {
	const name = "better_business_bureau"
	a := newAdapter(name, model.StageContacts, 1, cfg, func(r *rand.Rand, req source.Request, _ int) []model.Record {
		e := req.Entity
		return []model.Record{contactRecord(e, name, between(r, 0.5, 0.8), map[string]any{
			model.FieldName:  personName(r, bbbFirst, bbbLast),
			model.FieldTitle: pick(r, bbbTitles),
			model.FieldPhone: model.AsString(e.Field(model.FieldPhone)),
		})}
	})
	a.requires = func(e *model.Entity) bool {
		return hasRecord(e, model.KindDirectoryListing, model.FieldDirectory, "better_business_bureau")
	}
	return a
}

func newsArticle(cfg Config) *adapter {
	const name = "news_article"
	a := newAdapter(name, model.StageContacts, 1, cfg, func(r *rand.Rand, req source.Request, _ int) []model.Record {
		e := req.Entity
		if r.Float64() <= 0.5 {
			return nil
		}
		article := e.RecordsOfKind(model.KindNewsArticle)[0]
		return []model.Record{contactRecord(e, name, between(r, 0.4, 0.7), map[string]any{
			model.FieldName:  personName(r, newsFirst, newsLast),
			model.FieldTitle: pick(r, newsTitles),
			model.FieldURL:   article.String(model.FieldURL),
		})}
	})
	a.requires = func(e *model.Entity) bool { return hasRecord(e, model.KindNewsArticle, "", "") }
	return a
}
