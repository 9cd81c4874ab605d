package alert

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinionhub/opinionhub/internal/domain"
)

type memStore struct {
	rules   []domain.AlertRule
	saveErr error
}

func (s *memStore) List(context.Context) ([]domain.AlertRule, error) {
	out := make([]domain.AlertRule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *memStore) Save(_ context.Context, rules []domain.AlertRule) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.rules = make([]domain.AlertRule, len(rules))
	copy(s.rules, rules)
	return nil
}

type recordingSender struct {
	sent []string
	err  error
}

func (s *recordingSender) Send(_ context.Context, _, content string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, content)
	return nil
}

func testEngine(store *memStore, sender Sender) *Engine {
	return NewEngine(store, sender, "https://hooks.example/default", "", slog.Default())
}

func TestCreateRejectsEmptyMarketID(t *testing.T) {
	store := &memStore{}
	engine := testEngine(store, &recordingSender{})

	_, err := engine.Create(context.Background(), domain.AlertPayload{
		MarketID:  "",
		Title:     "x",
		Direction: domain.AlertAbove,
		Threshold: 0.5,
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, store.rules, "store must not be touched on invalid input")
}

func TestCreateAppliesCooldownDefault(t *testing.T) {
	store := &memStore{}
	engine := testEngine(store, &recordingSender{})

	rule, err := engine.Create(context.Background(), domain.AlertPayload{
		MarketID:  "m1",
		Title:     "BTC above 100k",
		Direction: domain.AlertAbove,
		Threshold: 0.7,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, domain.DefaultCooldownMinutes, rule.CooldownMinutes)
	require.Len(t, store.rules, 1)
}

func TestEvaluateCooldownAllowsOneTrigger(t *testing.T) {
	store := &memStore{rules: []domain.AlertRule{{
		ID:              "r1",
		MarketID:        "m1",
		Title:           "Fed holds rates",
		Direction:       domain.AlertAbove,
		Threshold:       0.7,
		CooldownMinutes: 30,
	}}}
	sender := &recordingSender{}
	engine := testEngine(store, sender)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	probs := []float64{0.65, 0.72, 0.73}

	triggered := 0
	for i, prob := range probs {
		tick := base.Add(time.Duration(i) * 10 * time.Minute)
		engine.now = func() time.Time { return tick }

		summary := engine.Evaluate(context.Background(), []domain.Market{
			{ID: "m1", Probability: prob},
		})
		triggered += summary.AlertsTriggered
		assert.Equal(t, 1, summary.AlertsEvaluated)
	}

	assert.Equal(t, 1, triggered, "second crossing is inside the cooldown")
	assert.Len(t, sender.sent, 1)
	assert.Equal(t, base.Add(10*time.Minute), store.rules[0].LastTriggered)
}

func TestEvaluateRearmsAfterCooldown(t *testing.T) {
	store := &memStore{rules: []domain.AlertRule{{
		ID:              "r1",
		MarketID:        "m1",
		Direction:       domain.AlertAbove,
		Threshold:       0.7,
		CooldownMinutes: 30,
	}}}
	sender := &recordingSender{}
	engine := testEngine(store, sender)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, 30 * time.Minute} {
		tick := base.Add(offset)
		engine.now = func() time.Time { return tick }
		engine.Evaluate(context.Background(), []domain.Market{{ID: "m1", Probability: 0.8}})
	}

	assert.Len(t, sender.sent, 2, "cooldown elapsed exactly, rule re-armed")
}

func TestEvaluateSkipsAbsentMarket(t *testing.T) {
	store := &memStore{rules: []domain.AlertRule{{
		ID:              "r1",
		MarketID:        "missing",
		Direction:       domain.AlertAbove,
		Threshold:       0.1,
		CooldownMinutes: 30,
	}}}
	engine := testEngine(store, &recordingSender{})

	summary := engine.Evaluate(context.Background(), []domain.Market{{ID: "m1", Probability: 0.9}})
	assert.Equal(t, 1, summary.AlertsEvaluated, "absent market still counts as an evaluated rule")
	assert.Equal(t, 0, summary.AlertsTriggered)
	assert.Empty(t, summary.Errors)
	assert.True(t, store.rules[0].LastTriggered.IsZero())
}

func TestEvaluateFailedDeliveryDoesNotStamp(t *testing.T) {
	store := &memStore{rules: []domain.AlertRule{{
		ID:              "r1",
		MarketID:        "m1",
		Direction:       domain.AlertAbove,
		Threshold:       0.5,
		CooldownMinutes: 30,
	}}}
	sender := &recordingSender{err: errors.New("boom")}
	engine := testEngine(store, sender)

	summary := engine.Evaluate(context.Background(), []domain.Market{{ID: "m1", Probability: 0.9}})
	assert.Equal(t, 0, summary.AlertsTriggered)
	require.Len(t, summary.Errors, 1)
	assert.True(t, store.rules[0].LastTriggered.IsZero(), "failed delivery must leave the rule armed")
}

func TestEvaluateNoWebhookStillStamps(t *testing.T) {
	store := &memStore{rules: []domain.AlertRule{{
		ID:              "r1",
		MarketID:        "m1",
		Direction:       domain.AlertBelow,
		Threshold:       0.5,
		CooldownMinutes: 30,
	}}}
	sender := &recordingSender{}
	engine := NewEngine(store, sender, "", "", slog.Default())

	summary := engine.Evaluate(context.Background(), []domain.Market{{ID: "m1", Probability: 0.3}})
	assert.Equal(t, 0, summary.AlertsTriggered, "nothing delivered, nothing counted")
	assert.Empty(t, sender.sent)
	assert.False(t, store.rules[0].LastTriggered.IsZero(), "stamp prevents re-trigger spam")
}

func TestEvaluatePerRuleIsolation(t *testing.T) {
	store := &memStore{rules: []domain.AlertRule{
		{ID: "bad", MarketID: "m1", Direction: domain.AlertAbove, Threshold: 0.5, CooldownMinutes: 30, Webhook: "https://hooks.example/broken"},
		{ID: "good", MarketID: "m2", Direction: domain.AlertAbove, Threshold: 0.5, CooldownMinutes: 30},
	}}
	// First send fails, subsequent ones succeed.
	sender := &flakySender{failFirst: true}
	engine := testEngine(store, sender)

	summary := engine.Evaluate(context.Background(), []domain.Market{
		{ID: "m1", Probability: 0.9},
		{ID: "m2", Probability: 0.9},
	})

	assert.Equal(t, 2, summary.AlertsEvaluated)
	assert.Equal(t, 1, summary.AlertsTriggered)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "bad")
}

type flakySender struct {
	failFirst bool
	calls     int
}

func (s *flakySender) Send(context.Context, string, string) error {
	s.calls++
	if s.failFirst && s.calls == 1 {
		return errors.New("boom")
	}
	return nil
}
