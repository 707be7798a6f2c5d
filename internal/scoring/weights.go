// Package scoring turns entity and contact signals into bounded [0,1] scores.
package scoring

import (
	"fmt"
	"math"

	"github.com/sells-group/lead-cli/internal/model"
)

// QualityWeights weight each entity enrichment signal.
type QualityWeights struct {
	Description      float64 `mapstructure:"description"`
	FoundedYear      float64 `mapstructure:"founded_year"`
	EmployeeCount    float64 `mapstructure:"employee_count"`
	SocialPresent    float64 `mapstructure:"social_present"`
	SocialMany       float64 `mapstructure:"social_many"`
	NewsPresent      float64 `mapstructure:"news_present"`
	NewsMany         float64 `mapstructure:"news_many"`
	DirectoryPresent float64 `mapstructure:"directory_present"`
	DirectoryMany    float64 `mapstructure:"directory_many"`
}

// DecisionWeights weight each contact signal and set the decision-maker
// threshold.
type DecisionWeights struct {
	TitleMatch float64            `mapstructure:"title_match"`
	Management float64            `mapstructure:"management"`
	Seniority  float64            `mapstructure:"seniority"`
	Email      float64            `mapstructure:"email"`
	Phone      float64            `mapstructure:"phone"`
	LinkedIn   float64            `mapstructure:"linkedin"`
	Sources    map[string]float64 `mapstructure:"sources"`
	Threshold  float64            `mapstructure:"threshold"`

	Titles             []string `mapstructure:"titles"`
	ManagementKeywords []string `mapstructure:"management_keywords"`
	SeniorityKeywords  []string `mapstructure:"seniority_keywords"`
}

// ExtractionWeights weight the signals of a whole contact set.
type ExtractionWeights struct {
	AnyContacts        float64 `mapstructure:"any_contacts"`
	AnyDecisionMakers  float64 `mapstructure:"any_decision_makers"`
	ManyDecisionMakers float64 `mapstructure:"many_decision_makers"`
	CompleteContact    float64 `mapstructure:"complete_contact"`
	ManySources        float64 `mapstructure:"many_sources"`
}

// Config is the scoring section of the application config.
type Config struct {
	Quality    QualityWeights    `mapstructure:"quality"`
	Decision   DecisionWeights   `mapstructure:"decision"`
	Extraction ExtractionWeights `mapstructure:"extraction"`
}

// DefaultConfig returns the stock weights.
func DefaultConfig() Config {
	return Config{
		Quality: QualityWeights{
			Description:      0.10,
			FoundedYear:      0.05,
			EmployeeCount:    0.05,
			SocialPresent:    0.20,
			SocialMany:       0.10,
			NewsPresent:      0.15,
			NewsMany:         0.10,
			DirectoryPresent: 0.15,
			DirectoryMany:    0.10,
		},
		Decision: DecisionWeights{
			TitleMatch: 0.40,
			Management: 0.20,
			Seniority:  0.10,
			Email:      0.10,
			Phone:      0.05,
			LinkedIn:   0.10,
			Sources: map[string]float64{
				"linkedin":               0.30,
				"website":                0.20,
				"news_article":           0.20,
				"better_business_bureau": 0.10,
			},
			Threshold: 0.6,
			Titles: []string{
				"CEO", "President", "Owner", "Founder", "Manager", "Director",
				"VP", "Vice President", "Chief", "Head", "Principal",
			},
			ManagementKeywords: []string{"manager", "director", "head"},
			SeniorityKeywords:  []string{"senior", "lead", "principal", "chief", "ceo", "founder", "president", "owner"},
		},
		Extraction: ExtractionWeights{
			AnyContacts:        0.3,
			AnyDecisionMakers:  0.4,
			ManyDecisionMakers: 0.1,
			CompleteContact:    0.2,
			ManySources:        0.1,
		},
	}
}

// Validate rejects negative weights and thresholds outside (0, 1].
func (c Config) Validate() error {
	checks := map[string]float64{
		"quality.description":             c.Quality.Description,
		"quality.founded_year":            c.Quality.FoundedYear,
		"quality.employee_count":          c.Quality.EmployeeCount,
		"quality.social_present":          c.Quality.SocialPresent,
		"quality.social_many":             c.Quality.SocialMany,
		"quality.news_present":            c.Quality.NewsPresent,
		"quality.news_many":               c.Quality.NewsMany,
		"quality.directory_present":       c.Quality.DirectoryPresent,
		"quality.directory_many":          c.Quality.DirectoryMany,
		"decision.title_match":            c.Decision.TitleMatch,
		"decision.management":             c.Decision.Management,
		"decision.seniority":              c.Decision.Seniority,
		"decision.email":                  c.Decision.Email,
		"decision.phone":                  c.Decision.Phone,
		"decision.linkedin":               c.Decision.LinkedIn,
		"extraction.any_contacts":         c.Extraction.AnyContacts,
		"extraction.any_decision_makers":  c.Extraction.AnyDecisionMakers,
		"extraction.many_decision_makers": c.Extraction.ManyDecisionMakers,
		"extraction.complete_contact":     c.Extraction.CompleteContact,
		"extraction.many_sources":         c.Extraction.ManySources,
	}
	for src, w := range c.Decision.Sources {
		checks["decision.sources."+src] = w
	}
	for field, w := range checks {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return &model.ConfigurationError{Field: "scoring." + field, Reason: fmt.Sprintf("must be a non-negative number, got %v", w)}
		}
	}
	if t := c.Decision.Threshold; !(t > 0 && t <= 1) {
		return &model.ConfigurationError{Field: "scoring.decision.threshold", Reason: fmt.Sprintf("must be in (0, 1], got %v", t)}
	}
	return nil
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
