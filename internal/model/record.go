package model

import (
	"fmt"
	"strconv"
)

// Kind distinguishes record shapes produced within a stage.
type Kind string

const (
	KindBusiness         Kind = "business"
	KindDetails          Kind = "details"
	KindSocialProfile    Kind = "social_profile"
	KindNewsArticle      Kind = "news_article"
	KindDirectoryListing Kind = "directory_listing"
	KindContact          Kind = "contact"
)

// Common field keys shared by adapters, scorers and report writers.
const (
	FieldName          = "name"
	FieldAddress       = "address"
	FieldPhone         = "phone"
	FieldWebsite       = "website"
	FieldEmail         = "email"
	FieldIndustry      = "industry"
	FieldLocation      = "location"
	FieldSourceID      = "source_id"
	FieldDescription   = "description"
	FieldFoundedYear   = "founded_year"
	FieldEmployeeCount = "employee_count"
	FieldAnnualRevenue = "annual_revenue"
	FieldPlatform      = "platform"
	FieldURL           = "url"
	FieldDirectory     = "directory"
	FieldTitle         = "title"
	FieldLinkedInURL   = "linkedin_url"
)

// Record is one unit of data returned by a source adapter.
type Record struct {
	EntityID   string         `json:"entity_id"`
	Stage      Stage          `json:"stage"`
	Source     string         `json:"source"`
	Kind       Kind           `json:"kind"`
	Fields     map[string]any `json:"fields"`
	Confidence float64        `json:"confidence"`
}

// String returns a string field, or "" when missing or not a string.
func (r Record) String(key string) string {
	return AsString(r.Fields[key])
}

// MergedEntity accumulates all records for one identity within one stage.
type MergedEntity struct {
	EntityID     string         `json:"entity_id"`
	Stage        Stage          `json:"stage"`
	Records      []Record       `json:"records"`
	MergedFields map[string]any `json:"merged_fields"`
	Score        float64        `json:"score"`
}

// Contact is the typed view of a contact record.
type Contact struct {
	Name               string  `json:"name"`
	Title              string  `json:"title,omitempty"`
	Email              string  `json:"email,omitempty"`
	Phone              string  `json:"phone,omitempty"`
	LinkedInURL        string  `json:"linkedin_url,omitempty"`
	Source             string  `json:"source"`
	Confidence         float64 `json:"confidence"`
	DecisionMakerScore float64 `json:"decision_maker_score"`
	Order              int     `json:"order"`
}

// ContactFromRecord converts a contact record; order is its discovery position.
func ContactFromRecord(r Record, order int) Contact {
	return Contact{
		Name:        r.String(FieldName),
		Title:       r.String(FieldTitle),
		Email:       r.String(FieldEmail),
		Phone:       r.String(FieldPhone),
		LinkedInURL: r.String(FieldLinkedInURL),
		Source:      r.Source,
		Confidence:  r.Confidence,
		Order:       order,
	}
}

// ContactSet holds the contacts extracted for one entity.
type ContactSet struct {
	All             []Contact `json:"all"`
	DecisionMakers  []Contact `json:"decision_makers"`
	ExtractionScore float64   `json:"extraction_score"`
	SourcesUsed     []string  `json:"sources_used"`
}

// AsString renders scalar field values as strings.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Present reports whether a field value carries data.
func Present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}
