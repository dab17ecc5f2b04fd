package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/plantpulse/plantpulse/internal/config"
	"github.com/plantpulse/plantpulse/internal/model"
)

// WebhookDispatcher delivers notifications to the configured webhook
// targets (teams, slack, plain http) and logs every outcome.
type WebhookDispatcher struct {
	webhooks []config.WebhookConfig
	client   *http.Client
}

// NewWebhookDispatcher builds a dispatcher for the given targets.
func NewWebhookDispatcher(cfg config.NotifyConfig) *WebhookDispatcher {
	return &WebhookDispatcher{
		webhooks: cfg.Webhooks,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Dispatch posts n to every configured webhook. Failures are logged and
// reported in the returned statuses, never escalated to the caller.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, n Notification) []Delivery {
	out := make([]Delivery, 0, len(d.webhooks))
	for _, wh := range d.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		var err error
		switch wh.Type {
		case "slack":
			err = d.sendSlack(ctx, url, n)
		case "teams":
			err = d.sendTeams(ctx, url, n)
		case "http":
			err = d.sendHTTP(ctx, url, n)
		default:
			slog.Warn("notify: unknown webhook type — skipping", "type", wh.Type)
			continue
		}

		status := Delivery{Channel: wh.Type, OK: err == nil}
		if err != nil {
			status.Detail = err.Error()
			slog.Error("notify: webhook delivery failed",
				"type", wh.Type,
				"title", n.Title,
				"err", err,
			)
		} else {
			slog.Debug("notify: webhook delivered",
				"type", wh.Type,
				"title", n.Title,
				"severity", n.Severity,
			)
		}
		out = append(out, status)
	}
	return out
}

func (d *WebhookDispatcher) sendSlack(ctx context.Context, url string, n Notification) error {
	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s* %s: %s", severityLabel(n.Severity), n.Title, n.Message),
	})
	return d.post(ctx, url, body)
}

func (d *WebhookDispatcher) sendTeams(ctx context.Context, url string, n Notification) error {
	payload := map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(n.Severity),
		"summary":    n.Title,
		"title":      fmt.Sprintf("PlantPulse Alert: %s", n.Title),
		"text":       n.Message,
	}
	body, _ := json.Marshal(payload)
	return d.post(ctx, url, body)
}

func (d *WebhookDispatcher) sendHTTP(ctx context.Context, url string, n Notification) error {
	body, _ := json.Marshal(map[string]interface{}{"notification": n})
	return d.post(ctx, url, body)
}

func (d *WebhookDispatcher) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s model.Tier) string {
	switch s {
	case model.TierCritical:
		return "[CRITICAL]"
	case model.TierHigh:
		return "[HIGH]"
	case model.TierMedium:
		return "[MEDIUM]"
	default:
		return "[LOW]"
	}
}

func severityColor(s model.Tier) string {
	switch s {
	case model.TierCritical:
		return "FF4F6A"
	case model.TierHigh:
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
