package report

import (
	"strconv"
	"time"

	"github.com/sells-group/lead-cli/internal/model"
)

// businessSummary is one line of the master summary.
type businessSummary struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Source              string  `json:"source"`
	Address             string  `json:"address,omitempty"`
	Phone               string  `json:"phone,omitempty"`
	Website             string  `json:"website,omitempty"`
	DiscoveryConfidence float64 `json:"discovery_confidence"`
	QualityScore        float64 `json:"quality_score"`
	ExtractionScore     float64 `json:"extraction_score"`
	Contacts            int     `json:"contacts"`
	DecisionMakers      int     `json:"decision_makers"`
	TopContact          string  `json:"top_contact,omitempty"`
	TopContactTitle     string  `json:"top_contact_title,omitempty"`
	TopContactEmail     string  `json:"top_contact_email,omitempty"`
	Dir                 string  `json:"folder"`
}

var summaryHeader = []string{
	"id", "name", "source", "address", "phone", "website",
	"discovery_confidence", "quality_score", "extraction_score",
	"contacts", "decision_makers",
	"top_contact", "top_contact_title", "top_contact_email",
}

func (s businessSummary) row() []string {
	return []string{
		s.ID, s.Name, s.Source, s.Address, s.Phone, s.Website,
		formatScore(s.DiscoveryConfidence), formatScore(s.QualityScore), formatScore(s.ExtractionScore),
		strconv.Itoa(s.Contacts), strconv.Itoa(s.DecisionMakers),
		s.TopContact, s.TopContactTitle, s.TopContactEmail,
	}
}

// contactRow flattens one contact with its owning business.
type contactRow struct {
	EntityID string
	Business string
	Contact  model.Contact
	IsDM     bool
}

var contactHeader = []string{
	"entity_id", "business", "name", "title", "email", "phone", "linkedin_url",
	"source", "confidence", "decision_maker_score", "decision_maker",
}

func (c contactRow) row() []string {
	return []string{
		c.EntityID, c.Business, c.Contact.Name, c.Contact.Title, c.Contact.Email,
		c.Contact.Phone, c.Contact.LinkedInURL, c.Contact.Source,
		formatScore(c.Contact.Confidence), formatScore(c.Contact.DecisionMakerScore),
		strconv.FormatBool(c.IsDM),
	}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// campaignReport is the flattened view every format renders from.
type campaignReport struct {
	result     *model.CampaignResult
	businesses []businessSummary
	contacts   []contactRow
}

func newCampaignReport(r *model.CampaignResult) *campaignReport {
	rep := &campaignReport{result: r}
	for i := range r.Entities {
		e := &r.Entities[i]
		s := businessSummary{
			ID:                  e.ID,
			Name:                e.Name,
			Source:              discoverySource(e),
			Address:             model.AsString(e.Field(model.FieldAddress)),
			Phone:               model.AsString(e.Field(model.FieldPhone)),
			Website:             model.AsString(e.Field(model.FieldWebsite)),
			DiscoveryConfidence: e.Discovery.Score,
			QualityScore:        e.QualityScore,
			ExtractionScore:     e.Contacts.ExtractionScore,
			Contacts:            len(e.Contacts.All),
			DecisionMakers:      len(e.Contacts.DecisionMakers),
			Dir:                 businessDir(i, e.Name),
		}
		if len(e.Contacts.All) > 0 {
			top := e.Contacts.All[0]
			s.TopContact, s.TopContactTitle, s.TopContactEmail = top.Name, top.Title, top.Email
		}
		rep.businesses = append(rep.businesses, s)

		dms := make(map[int]bool, len(e.Contacts.DecisionMakers))
		for _, c := range e.Contacts.DecisionMakers {
			dms[c.Order] = true
		}
		for _, c := range e.Contacts.All {
			rep.contacts = append(rep.contacts, contactRow{
				EntityID: e.ID, Business: e.Name, Contact: c, IsDM: dms[c.Order],
			})
		}
	}
	return rep
}

func discoverySource(e *model.Entity) string {
	if len(e.Discovery.Records) == 0 {
		return ""
	}
	return e.Discovery.Records[0].Source
}

// contactsOf returns the contact rows belonging to one entity.
func (rep *campaignReport) contactsOf(entityID string) []contactRow {
	var out []contactRow
	for _, c := range rep.contacts {
		if c.EntityID == entityID {
			out = append(out, c)
		}
	}
	return out
}

type statistics struct {
	RunID       string               `json:"run_id"`
	Query       model.Query          `json:"query"`
	Status      model.CampaignStatus `json:"status"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt time.Time            `json:"completed_at"`
	Stats       model.Stats          `json:"stats"`
	Stages      []model.StageReport  `json:"stages"`
}

func (rep *campaignReport) statistics() statistics {
	r := rep.result
	return statistics{
		RunID:       r.RunID,
		Query:       r.Query,
		Status:      r.Status,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Stats:       r.Stats,
		Stages:      r.Stages,
	}
}
