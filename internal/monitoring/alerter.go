package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/violation-portal/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertLoadFailed       AlertType = "load_failed"
	AlertGeocodeErrorRate AlertType = "geocode_error_rate"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a LoadSnapshot against configured thresholds and sends
// alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *LoadSnapshot) []Alert {
	now := time.Now().UTC()

	if snap.Failed {
		return []Alert{{
			Type:     AlertLoadFailed,
			Severity: "high",
			Message:  fmt.Sprintf("Loading collection %q failed: %s", snap.Collection, snap.Error),
			Details: map[string]any{
				"collection": snap.Collection,
				"error":      snap.Error,
			},
			Timestamp: now,
		}}
	}

	var alerts []Alert
	lookups := snap.Lookups()
	if a.cfg.GeocodeErrorRateThreshold > 0 && lookups >= a.cfg.MinLookups &&
		snap.GeocodeErrorRate > a.cfg.GeocodeErrorRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertGeocodeErrorRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Geocode error rate %.1f%% exceeds threshold %.1f%% (%d errors / %d lookups)",
				snap.GeocodeErrorRate*100, a.cfg.GeocodeErrorRateThreshold*100,
				snap.LookupErrors, lookups,
			),
			Details: map[string]any{
				"error_rate": snap.GeocodeErrorRate,
				"threshold":  a.cfg.GeocodeErrorRateThreshold,
				"errors":     snap.LookupErrors,
				"lookups":    lookups,
			},
			Timestamp: now,
		})
	}
	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
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
