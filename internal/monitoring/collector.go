// Package monitoring watches finished campaigns and circuit breakers and
// raises alerts when failure thresholds are crossed.
package monitoring

import (
	"slices"
	"time"

	"github.com/sells-group/lead-cli/internal/model"
)

// Config is the monitoring section of the application config.
type Config struct {
	CheckIntervalSecs      int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours    int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold   float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	SourceFailureThreshold int     `yaml:"source_failure_threshold" mapstructure:"source_failure_threshold"`
	WebhookURL             string  `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// MetricsSnapshot holds a point-in-time view of campaign health.
type MetricsSnapshot struct {
	CampaignsTotal   int     `json:"campaigns_total"`
	CampaignsDone    int     `json:"campaigns_done"`
	CampaignsFailed  int     `json:"campaigns_failed"`
	CampaignsRunning int     `json:"campaigns_running"`
	CampaignFailRate float64 `json:"campaign_fail_rate"`

	Entities        int     `json:"entities"`
	Contacts        int     `json:"contacts"`
	DecisionMakers  int     `json:"decision_makers"`
	AvgQualityScore float64 `json:"avg_quality_score"`

	// Adapter failures by source within the window.
	SourceFailures map[string]int `json:"source_failures"`
	OpenCircuits   []string       `json:"open_circuits,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// ResultLister lists campaign results held by the process.
type ResultLister interface {
	List() []*model.CampaignResult
}

// CircuitReporter reports sources whose circuit is open.
type CircuitReporter interface {
	Open() []string
}

// Collector gathers metrics from campaign results and breakers.
type Collector struct {
	results  ResultLister
	circuits CircuitReporter
	nowFunc  func() time.Time
}

// NewCollector creates a new metrics collector. circuits may be nil.
func NewCollector(results ResultLister, circuits CircuitReporter) *Collector {
	return &Collector{results: results, circuits: circuits, nowFunc: time.Now}
}

// Collect gathers a snapshot over the given lookback window. A non-positive
// window covers every result.
func (c *Collector) Collect(lookbackHours int) *MetricsSnapshot {
	now := c.nowFunc().UTC()
	snap := &MetricsSnapshot{
		SourceFailures: map[string]int{},
		LookbackHours:  lookbackHours,
		CollectedAt:    now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	var quality float64
	for _, r := range c.results.List() {
		if lookbackHours > 0 && r.StartedAt.Before(cutoff) {
			continue
		}
		snap.CampaignsTotal++
		switch r.Status {
		case model.CampaignStatusDone:
			snap.CampaignsDone++
		case model.CampaignStatusFailed:
			snap.CampaignsFailed++
		default:
			snap.CampaignsRunning++
		}

		snap.Entities += r.Stats.Entities
		snap.Contacts += r.Stats.Contacts
		snap.DecisionMakers += r.Stats.DecisionMakers
		quality += r.Stats.AvgQualityScore * float64(r.Stats.Entities)

		for _, st := range r.Stages {
			for _, f := range st.Failures {
				snap.SourceFailures[f.Source]++
			}
		}
	}

	if finished := snap.CampaignsDone + snap.CampaignsFailed; finished > 0 {
		snap.CampaignFailRate = float64(snap.CampaignsFailed) / float64(finished)
	}
	if snap.Entities > 0 {
		snap.AvgQualityScore = quality / float64(snap.Entities)
	}
	if c.circuits != nil {
		snap.OpenCircuits = slices.Clone(c.circuits.Open())
	}
	return snap
}
