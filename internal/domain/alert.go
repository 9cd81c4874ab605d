package domain

import (
	"fmt"
	"strings"
	"time"
)

// Alert rule directions.
const (
	AlertAbove = "above"
	AlertBelow = "below"
)

// DefaultCooldownMinutes applies when a rule omits its cooldown.
const DefaultCooldownMinutes = 30

// AlertRule is a user-defined threshold rule. Rules are owned exclusively by
// the alert store; the evaluation cycle is the only writer of LastTriggered.
type AlertRule struct {
	ID              string    `json:"id"`
	MarketID        string    `json:"marketId"`
	Title           string    `json:"title"`
	Direction       string    `json:"direction"`
	Threshold       float64   `json:"threshold"`
	Webhook         string    `json:"webhook,omitempty"`
	CooldownMinutes int       `json:"cooldownMinutes"`
	LastTriggered   time.Time `json:"lastTriggered,omitempty"`
}

// Cooled reports whether the rule's cooldown window has elapsed at the given
// instant. A rule that has never triggered is always cooled.
func (r AlertRule) Cooled(now time.Time) bool {
	if r.LastTriggered.IsZero() {
		return true
	}
	return now.Sub(r.LastTriggered) >= time.Duration(r.CooldownMinutes)*time.Minute
}

// Hit reports whether the given probability crosses the rule's threshold in
// the configured direction.
func (r AlertRule) Hit(prob float64) bool {
	if r.Direction == AlertAbove {
		return prob >= r.Threshold
	}
	return prob <= r.Threshold
}

// AlertPayload is the client-submitted body for rule creation, before an ID
// is assigned.
type AlertPayload struct {
	MarketID        string  `json:"marketId"`
	Title           string  `json:"title"`
	Direction       string  `json:"direction"`
	Threshold       float64 `json:"threshold"`
	Webhook         string  `json:"webhook,omitempty"`
	CooldownMinutes int     `json:"cooldownMinutes,omitempty"`
}

// Validate checks the payload against the rule invariants. Invalid payloads
// must be rejected before any store mutation.
func (p AlertPayload) Validate() error {
	if strings.TrimSpace(p.MarketID) == "" {
		return fmt.Errorf("%w: marketId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if p.Direction != AlertAbove && p.Direction != AlertBelow {
		return fmt.Errorf("%w: direction must be %q or %q", ErrInvalidInput, AlertAbove, AlertBelow)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be in [0,1]", ErrInvalidInput)
	}
	if p.CooldownMinutes != 0 && (p.CooldownMinutes < 1 || p.CooldownMinutes > 1440) {
		return fmt.Errorf("%w: cooldownMinutes must be in [1,1440]", ErrInvalidInput)
	}
	return nil
}

// CycleSummary records the outcome of one cadence tick. Per-rule and
// per-instrument failures are isolated into Errors rather than aborting
// sibling work.
type CycleSummary struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"startedAt"`
	MarketsWarmed   int       `json:"marketsWarmed"`
	StrategyWarmed  int       `json:"strategyWarmed"`
	AlertsEvaluated int       `json:"alertsEvaluated"`
	AlertsTriggered int       `json:"alertsTriggered"`
	Errors          []string  `json:"errors,omitempty"`
}
