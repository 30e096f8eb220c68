package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/leozw/vitals-guardian/internal/diagnosis"
	"github.com/leozw/vitals-guardian/internal/metrics"
	"go.uber.org/zap"
)

const (
	ChannelLog     = "log"
	ChannelWebhook = "webhook"
)

type Payload struct {
	TargetID     string    `json:"target_id"`
	URL          string    `json:"url"`
	DisplayName  string    `json:"display_name"`
	DetectedAt   time.Time `json:"detected_at"`
	Degradations []Entry   `json:"degradations"`
}

type Entry struct {
	Metric        core.Metric `json:"metric"`
	PreviousValue float64     `json:"previous_value"`
	NewValue      float64     `json:"new_value"`
	ThresholdPoor float64     `json:"threshold_poor"`
	Message       string      `json:"message"`
}

// Dispatcher notifies about degradations. The log channel is always on;
// the webhook channel needs a URL.
type Dispatcher struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
	metrics    *metrics.Collector
	now        func() time.Time
}

func NewDispatcher(webhookURL string, timeout time.Duration, logger *zap.Logger, metrics *metrics.Collector) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger.With(zap.String("component", "alerts")),
		metrics:    metrics,
		now:        time.Now,
	}
}

// Dispatch sends events for target. webhookURL overrides the configured
// endpoint when set. It returns the webhook delivery error, if any.
func (d *Dispatcher) Dispatch(ctx context.Context, target core.Target, events []core.DegradationEvent, webhookURL string) error {
	if len(events) == 0 {
		return nil
	}

	payload := BuildPayload(target, events, d.now().UTC())
	for _, e := range payload.Degradations {
		d.logger.Warn("Metric degraded",
			zap.String("target_id", target.ID),
			zap.String("url", target.URL),
			zap.String("metric", string(e.Metric)),
			zap.String("message", e.Message),
		)
	}
	d.metrics.RecordAlert(ChannelLog, true)

	url := webhookURL
	if url == "" {
		url = d.webhookURL
	}
	if url == "" {
		return nil
	}

	err := d.postWebhook(ctx, url, payload)
	d.metrics.RecordAlert(ChannelWebhook, err == nil)
	if err != nil {
		d.logger.Error("Failed to deliver webhook",
			zap.String("target_id", target.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (d *Dispatcher) postWebhook(ctx context.Context, url string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "vitals-guardian")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func BuildPayload(target core.Target, events []core.DegradationEvent, at time.Time) Payload {
	p := Payload{
		TargetID:     target.ID,
		URL:          target.URL,
		DisplayName:  target.DisplayName,
		DetectedAt:   at,
		Degradations: make([]Entry, 0, len(events)),
	}
	for _, e := range events {
		p.Degradations = append(p.Degradations, Entry{
			Metric:        e.Metric,
			PreviousValue: e.PreviousValue,
			NewValue:      e.NewValue,
			ThresholdPoor: e.ThresholdPoor,
			Message:       FormatEvent(e),
		})
	}
	return p
}

var metricLabels = map[core.Metric]string{
	core.MetricPerformance: "Performance score",
	core.MetricLCP:         "LCP",
	core.MetricFCP:         "FCP",
	core.MetricCLS:         "CLS",
	core.MetricTTFB:        "TTFB",
	core.MetricINP:         "INP",
}

// FormatEvent renders e.g. "LCP degraded from 2.00s to 4.50s".
func FormatEvent(e core.DegradationEvent) string {
	label, ok := metricLabels[e.Metric]
	if !ok {
		label = string(e.Metric)
	}
	if e.Metric == core.MetricPerformance {
		return fmt.Sprintf("%s dropped from %.0f to %.0f", label, e.PreviousValue, e.NewValue)
	}
	return fmt.Sprintf("%s degraded from %s to %s", label,
		diagnosis.FormatValue(e.Metric, e.PreviousValue),
		diagnosis.FormatValue(e.Metric, e.NewValue),
	)
}
