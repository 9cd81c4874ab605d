package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// AlertService is the slice of the alert engine the HTTP layer needs.
type AlertService interface {
	Create(ctx context.Context, payload domain.AlertPayload) (domain.AlertRule, error)
	List(ctx context.Context) ([]domain.AlertRule, error)
}

// TestSender delivers a probe message to a webhook URL.
type TestSender interface {
	Send(ctx context.Context, webhookURL, content string) error
}

// AlertHandler serves alert-rule CRUD and the webhook test endpoint.
type AlertHandler struct {
	service        AlertService
	sender         TestSender
	defaultWebhook string
}

// NewAlertHandler creates an AlertHandler.
func NewAlertHandler(service AlertService, sender TestSender, defaultWebhook string) *AlertHandler {
	return &AlertHandler{
		service:        service,
		sender:         sender,
		defaultWebhook: defaultWebhook,
	}
}

// ListAlerts returns all stored alert rules.
// GET /api/alerts
func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	rules, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": rules})
}

// CreateAlert validates and stores a new alert rule.
// POST /api/alerts
func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var payload domain.AlertPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rule, err := h.service.Create(r.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "alert store unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "failed to create alert")
		}
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

// TestAlert fires a probe message at the given webhook (or the configured
// default) so users can verify their sink before creating rules.
// POST /api/alerts/test
func (h *AlertHandler) TestAlert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Webhook string `json:"webhook"`
	}
	// An empty body is fine; the default webhook is used.
	_ = json.NewDecoder(r.Body).Decode(&body)

	webhookURL := body.Webhook
	if webhookURL == "" {
		webhookURL = h.defaultWebhook
	}
	if webhookURL == "" {
		writeError(w, http.StatusBadRequest, "no webhook configured")
		return
	}

	if err := h.sender.Send(r.Context(), webhookURL, "Test notification: alerts are wired up."); err != nil {
		writeError(w, http.StatusBadGateway, "webhook delivery failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "delivered"})
}
