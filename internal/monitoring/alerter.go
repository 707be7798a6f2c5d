package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertCampaignFailureRate AlertType = "campaign_failure_rate"
	AlertSourceFailures      AlertType = "source_failures"
	AlertCircuitOpen         AlertType = "circuit_open"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    Config
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg Config) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// Check campaign failure rate.
	finished := snap.CampaignsDone + snap.CampaignsFailed
	if finished >= 5 && snap.CampaignFailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertCampaignFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Campaign failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
				snap.CampaignFailRate*100, a.cfg.FailureRateThreshold*100,
				snap.CampaignsFailed, finished, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.CampaignFailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.CampaignsFailed,
				"finished":     finished,
			},
			Timestamp: now,
		})
	}

	// Check per-source adapter failures.
	if a.cfg.SourceFailureThreshold > 0 {
		for _, src := range slices.Sorted(maps.Keys(snap.SourceFailures)) {
			n := snap.SourceFailures[src]
			if n < a.cfg.SourceFailureThreshold {
				continue
			}
			alerts = append(alerts, Alert{
				Type:     AlertSourceFailures,
				Severity: "medium",
				Message:  fmt.Sprintf("Source %s failed %d time(s) in last %dh", src, n, snap.LookbackHours),
				Details: map[string]any{
					"source":    src,
					"failures":  n,
					"threshold": a.cfg.SourceFailureThreshold,
				},
				Timestamp: now,
			})
		}
	}

	// Check open circuits.
	if len(snap.OpenCircuits) > 0 {
		alerts = append(alerts, Alert{
			Type:      AlertCircuitOpen,
			Severity:  "high",
			Message:   fmt.Sprintf("%d source circuit(s) open: %v", len(snap.OpenCircuits), snap.OpenCircuits),
			Details:   map[string]any{"sources": snap.OpenCircuits},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL, or logs them
// when no webhook is set. Returns the number of alerts delivered.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if len(alerts) == 0 {
		return 0
	}
	if a.cfg.WebhookURL == "" {
		for _, alert := range alerts {
			zap.L().Warn("monitoring: alert",
				zap.String("type", string(alert.Type)),
				zap.String("severity", alert.Severity),
				zap.String("message", alert.Message),
			)
		}
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
