package scoring

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sells-group/lead-cli/internal/model"
)

// thresholdEpsilon absorbs float error when a score lands exactly on the
// threshold.
const thresholdEpsilon = 1e-9

// DecisionMaker scores how likely a contact is to be a decision maker.
func DecisionMaker(w DecisionWeights, c model.Contact) float64 {
	title := strings.ToLower(c.Title)

	var score float64
	if title != "" {
		if containsAny(title, w.Titles) {
			score += w.TitleMatch
		}
		if containsAny(title, w.ManagementKeywords) {
			score += w.Management
		}
		if containsAny(title, w.SeniorityKeywords) {
			score += w.Seniority
		}
	}
	score += w.Sources[c.Source]
	if c.Email != "" {
		score += w.Email
	}
	if c.Phone != "" {
		score += w.Phone
	}
	if c.LinkedInURL != "" {
		score += w.LinkedIn
	}
	return clamp01(score)
}

// IsDecisionMaker reports whether score meets the threshold.
func IsDecisionMaker(w DecisionWeights, score float64) bool {
	return score >= w.Threshold-thresholdEpsilon
}

// Classify scores every contact and returns them all, in input order, along
// with the decision makers sorted by descending score. Ties keep discovery
// order.
func Classify(w DecisionWeights, contacts []model.Contact) (all, decisionMakers []model.Contact) {
	all = make([]model.Contact, len(contacts))
	for i, c := range contacts {
		c.DecisionMakerScore = DecisionMaker(w, c)
		all[i] = c
		if IsDecisionMaker(w, c.DecisionMakerScore) {
			decisionMakers = append(decisionMakers, c)
		}
	}
	slices.SortStableFunc(decisionMakers, func(a, b model.Contact) int {
		if c := cmp.Compare(b.DecisionMakerScore, a.DecisionMakerScore); c != 0 {
			return c
		}
		return cmp.Compare(a.Order, b.Order)
	})
	return all, decisionMakers
}

// Extraction scores the contact set extracted for one entity.
func Extraction(w ExtractionWeights, set model.ContactSet) float64 {
	var score float64
	if len(set.All) > 0 {
		score += w.AnyContacts
	}
	if n := len(set.DecisionMakers); n > 0 {
		score += w.AnyDecisionMakers
		if n >= 2 {
			score += w.ManyDecisionMakers
		}
	}
	for _, c := range set.All {
		if c.Email != "" && c.Title != "" {
			score += w.CompleteContact
			break
		}
	}
	if len(set.SourcesUsed) >= 2 {
		score += w.ManySources
	}
	return clamp01(score)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}
