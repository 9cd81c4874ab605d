// Package notify delivers alert text to webhook sinks. Delivery is a single
// POST with no retry; the alert engine's cooldown stamping handles broken
// endpoints.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/opinionhub/opinionhub/internal/metrics"
)

// WebhookSender posts chat-ops style messages to arbitrary webhook URLs.
type WebhookSender struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookSender creates a webhook sender with a bounded request timeout.
func NewWebhookSender(logger *slog.Logger) *WebhookSender {
	return &WebhookSender{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With(slog.String("component", "notify")),
	}
}

// webhookMessage is the payload shape accepted by Discord-compatible sinks.
type webhookMessage struct {
	Content string `json:"content"`
}

// Send posts content to the webhook URL and reports delivery success.
func (s *WebhookSender) Send(ctx context.Context, webhookURL, content string) error {
	body, err := json.Marshal(webhookMessage{Content: content})
	if err != nil {
		return fmt.Errorf("notify: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		return fmt.Errorf("notify: post webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.WebhookDeliveries.WithLabelValues("error").Inc()
		return fmt.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}

	metrics.WebhookDeliveries.WithLabelValues("ok").Inc()
	s.logger.DebugContext(ctx, "webhook delivered", slog.Int("status", resp.StatusCode))
	return nil
}
