package monitoring

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultCheckInterval = 5 * time.Minute

// Checker periodically collects a snapshot, evaluates it and delivers alerts
// for conditions that were not already active on the previous check. A
// condition that clears and later returns is alerted again.
type Checker struct {
	collector *Collector
	alerter   *Alerter
	cfg       Config

	// active holds the keys of alerts raised by the previous check.
	active map[string]Alert
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg Config) *Checker {
	return &Checker{
		collector: collector,
		alerter:   alerter,
		cfg:       cfg,
		active:    map[string]Alert{},
	}
}

// Run checks campaign health every CheckIntervalSecs until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = defaultCheckInterval
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("monitoring: checker started",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("monitoring: checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

// check runs one evaluation and returns the newly raised alerts.
func (c *Checker) check(ctx context.Context, log *zap.Logger) []Alert {
	snap := c.collector.Collect(c.cfg.LookbackWindowHours)
	log.Debug("monitoring: snapshot",
		zap.Int("campaigns", snap.CampaignsTotal),
		zap.Int("failed", snap.CampaignsFailed),
		zap.Int("running", snap.CampaignsRunning),
		zap.Float64("fail_rate", snap.CampaignFailRate),
		zap.Int("entities", snap.Entities),
		zap.Strings("open_circuits", snap.OpenCircuits),
	)

	current := map[string]Alert{}
	var raised []Alert
	for _, a := range c.alerter.Evaluate(snap) {
		key := alertKey(a)
		current[key] = a
		if _, seen := c.active[key]; !seen {
			raised = append(raised, a)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(c.active)) {
		if _, ok := current[key]; !ok {
			log.Info("monitoring: alert cleared", zap.String("alert", key))
		}
	}
	c.active = current

	if len(raised) == 0 {
		return nil
	}
	sent := c.alerter.SendAlerts(ctx, raised)
	log.Info("monitoring: alert check complete",
		zap.Int("alerts_active", len(current)),
		zap.Int("alerts_raised", len(raised)),
		zap.Int("alerts_sent", sent),
	)
	return raised
}

// alertKey identifies the condition behind an alert so repeated checks can
// tell a standing condition from a new one.
func alertKey(a Alert) string {
	switch a.Type {
	case AlertSourceFailures:
		return fmt.Sprintf("%s:%v", a.Type, a.Details["source"])
	case AlertCircuitOpen:
		if srcs, ok := a.Details["sources"].([]string); ok {
			return string(a.Type) + ":" + strings.Join(srcs, ",")
		}
	}
	return string(a.Type)
}
