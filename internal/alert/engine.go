// Package alert owns threshold rules and their cadence-driven evaluation.
// Each rule is a two-state machine: armed until a delivered trigger, then
// cooling until its cooldown elapses. The transition back to armed is lazy,
// checked on each tick rather than by a timer.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/opinionhub/opinionhub/internal/domain"
	"github.com/opinionhub/opinionhub/internal/metrics"
)

// Sender delivers one message to a webhook URL.
type Sender interface {
	Send(ctx context.Context, webhookURL, content string) error
}

// Engine stores rules and evaluates them against live probabilities.
type Engine struct {
	store          domain.AlertStore
	sender         Sender
	defaultWebhook string
	siteURL        string
	logger         *slog.Logger
	now            func() time.Time
}

// NewEngine creates an alert engine. defaultWebhook applies to rules that
// carry no webhook of their own; siteURL, when set, is appended to alert
// messages as a backlink.
func NewEngine(store domain.AlertStore, sender Sender, defaultWebhook, siteURL string, logger *slog.Logger) *Engine {
	return &Engine{
		store:          store,
		sender:         sender,
		defaultWebhook: defaultWebhook,
		siteURL:        siteURL,
		logger:         logger.With(slog.String("component", "alert")),
		now:            time.Now,
	}
}

// Create validates the payload, assigns an ID, and appends the rule to the
// store. Store failures surface to the caller: alert state must not silently
// vanish.
func (e *Engine) Create(ctx context.Context, payload domain.AlertPayload) (domain.AlertRule, error) {
	if err := payload.Validate(); err != nil {
		return domain.AlertRule{}, err
	}

	cooldown := payload.CooldownMinutes
	if cooldown == 0 {
		cooldown = domain.DefaultCooldownMinutes
	}

	rule := domain.AlertRule{
		ID:              uuid.NewString(),
		MarketID:        payload.MarketID,
		Title:           payload.Title,
		Direction:       payload.Direction,
		Threshold:       payload.Threshold,
		Webhook:         payload.Webhook,
		CooldownMinutes: cooldown,
	}

	rules, err := e.store.List(ctx)
	if err != nil {
		return domain.AlertRule{}, fmt.Errorf("alert: load rules: %w", err)
	}
	rules = append(rules, rule)
	if err := e.store.Save(ctx, rules); err != nil {
		return domain.AlertRule{}, fmt.Errorf("alert: persist rule: %w", err)
	}

	e.logger.InfoContext(ctx, "alert rule created",
		slog.String("rule_id", rule.ID),
		slog.String("market_id", rule.MarketID),
		slog.String("direction", rule.Direction),
		slog.Float64("threshold", rule.Threshold),
	)
	return rule, nil
}

// List returns all stored rules.
func (e *Engine) List(ctx context.Context) ([]domain.AlertRule, error) {
	return e.store.List(ctx)
}

// Evaluate runs one cadence tick over the rule list against the given
// market probabilities. Rules whose market is absent are skipped without
// error; per-rule failures are isolated into the summary's error list.
func (e *Engine) Evaluate(ctx context.Context, markets []domain.Market) domain.CycleSummary {
	now := e.now()
	summary := domain.CycleSummary{
		ID:        uuid.NewString(),
		StartedAt: now,
	}

	rules, err := e.store.List(ctx)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("load rules: %v", err))
		metrics.CycleErrors.Inc()
		return summary
	}

	probs := make(map[string]float64, len(markets))
	for _, m := range markets {
		probs[m.ID] = m.Probability
	}

	changed := false
	for i := range rules {
		rule := &rules[i]

		// Every rule counts as evaluated, present market or not, so the
		// cycle summary reflects the full rule list.
		summary.AlertsEvaluated++
		metrics.AlertsEvaluated.Inc()

		prob, ok := probs[rule.MarketID]
		if !ok {
			continue
		}

		if !rule.Hit(prob) {
			continue
		}
		if !rule.Cooled(now) {
			metrics.AlertsSuppressed.Inc()
			continue
		}

		webhookURL := rule.Webhook
		if webhookURL == "" {
			webhookURL = e.defaultWebhook
		}

		delivered := false
		if webhookURL != "" {
			if err := e.sender.Send(ctx, webhookURL, e.message(*rule, prob)); err != nil {
				summary.Errors = append(summary.Errors, fmt.Sprintf("rule %s: %v", rule.ID, err))
				e.logger.WarnContext(ctx, "webhook delivery failed",
					slog.String("rule_id", rule.ID),
					slog.String("error", err.Error()),
				)
			} else {
				delivered = true
			}
		}

		// A rule with no webhook at all still stamps, so it does not
		// re-trigger on every tick; a failing webhook stays unstamped and
		// the next tick retries.
		if delivered || webhookURL == "" {
			rule.LastTriggered = now
			changed = true
		}
		if delivered {
			summary.AlertsTriggered++
			metrics.AlertsTriggered.Inc()
		}
	}

	if changed {
		if err := e.store.Save(ctx, rules); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("save rules: %v", err))
			metrics.CycleErrors.Inc()
			e.logger.ErrorContext(ctx, "failed to persist triggered rules",
				slog.String("error", err.Error()),
			)
		}
	}

	return summary
}

// message renders the alert text delivered to the webhook.
func (e *Engine) message(rule domain.AlertRule, prob float64) string {
	msg := fmt.Sprintf("**%s** is at %.1f%% (%s %.1f%%)",
		rule.Title, prob*100, rule.Direction, rule.Threshold*100)
	if e.siteURL != "" {
		msg += "\n" + e.siteURL
	}
	return msg
}
