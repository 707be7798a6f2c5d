package model

import (
	"strings"
	"time"
)

// CampaignStatus represents the current state of a campaign run.
type CampaignStatus string

const (
	CampaignStatusIdle               CampaignStatus = "idle"
	CampaignStatusDiscovering        CampaignStatus = "discovering"
	CampaignStatusEnriching          CampaignStatus = "enriching"
	CampaignStatusExtractingContacts CampaignStatus = "extracting_contacts"
	CampaignStatusExporting          CampaignStatus = "exporting"
	CampaignStatusDone               CampaignStatus = "done"
	CampaignStatusFailed             CampaignStatus = "failed"
)

// Stage names one acquisition phase of a campaign.
type Stage string

const (
	StageDiscovery  Stage = "discovery"
	StageEnrichment Stage = "enrichment"
	StageContacts   Stage = "contacts"
)

// Query is the immutable input of a campaign.
type Query struct {
	Industry string `json:"industry"`
	Location string `json:"location"`
	Limit    int    `json:"limit"`
}

// Validate rejects queries the pipeline cannot run.
func (q Query) Validate() error {
	if strings.TrimSpace(q.Industry) == "" {
		return &ConfigurationError{Field: "industry", Reason: "must not be blank"}
	}
	if strings.TrimSpace(q.Location) == "" {
		return &ConfigurationError{Field: "location", Reason: "must not be blank"}
	}
	if q.Limit <= 0 {
		return &ConfigurationError{Field: "limit", Reason: "must be greater than zero"}
	}
	return nil
}

// Entity is one discovered business and everything later stages attached to it.
type Entity struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Discovery    MergedEntity `json:"discovery"`
	Enrichment   MergedEntity `json:"enrichment"`
	Contacts     ContactSet   `json:"contacts"`
	QualityScore float64      `json:"quality_score"`
	Errors       []string     `json:"errors,omitempty"`
}

// Field returns a merged field, preferring enrichment over discovery values.
func (e *Entity) Field(key string) any {
	if v, ok := e.Enrichment.MergedFields[key]; ok {
		return v
	}
	return e.Discovery.MergedFields[key]
}

// RecordsOfKind returns the enrichment records of the given kind.
func (e *Entity) RecordsOfKind(kind Kind) []Record {
	var out []Record
	for _, r := range e.Enrichment.Records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

// AdapterFailure is the diagnostic form of an AdapterError.
type AdapterFailure struct {
	Source   string `json:"source"`
	EntityID string `json:"entity_id,omitempty"`
	Error    string `json:"error"`
}

// StageReport summarizes one stage of a campaign run.
type StageReport struct {
	Stage      Stage            `json:"stage"`
	Records    int              `json:"records"`
	Survivors  int              `json:"survivors"`
	Failures   []AdapterFailure `json:"failures,omitempty"`
	DurationMS int64            `json:"duration_ms"`
}

// Stats holds campaign-wide counts and averages.
type Stats struct {
	Entities               int            `json:"entities"`
	Contacts               int            `json:"contacts"`
	DecisionMakers         int            `json:"decision_makers"`
	AvgDiscoveryConfidence float64        `json:"avg_discovery_confidence"`
	AvgQualityScore        float64        `json:"avg_quality_score"`
	AvgExtractionScore     float64        `json:"avg_extraction_score"`
	BySource               map[string]int `json:"by_source"`
	EnrichmentSources      map[string]int `json:"enrichment_sources"`
	ContactSources         map[string]int `json:"contact_sources"`
	AdapterFailures        int            `json:"adapter_failures"`
}

// CampaignResult is the handoff structure given to the report writer.
type CampaignResult struct {
	RunID       string         `json:"run_id"`
	Query       Query          `json:"query"`
	Status      CampaignStatus `json:"status"`
	Reason      string         `json:"reason,omitempty"`
	Entities    []Entity       `json:"entities"`
	Stats       Stats          `json:"stats"`
	Stages      []StageReport  `json:"stages"`
	ExportPath  string         `json:"export_path,omitempty"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}
