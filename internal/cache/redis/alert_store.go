package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// alertKey holds the full rule list as one JSON blob. The store is
// deliberately read-whole-list / write-whole-list: rule counts are tiny and
// last-writer-wins is acceptable given the cooldown already bounds duplicate
// triggers.
const alertKey = "alerts:list"

// AlertStore implements domain.AlertStore on Redis. Reads degrade to an
// empty list when the backend is unreachable; writes surface
// domain.ErrStoreUnavailable so rule state never silently vanishes.
type AlertStore struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewAlertStore creates an AlertStore backed by the given Client.
func NewAlertStore(c *Client, logger *slog.Logger) *AlertStore {
	return &AlertStore{
		rdb:    c.Underlying(),
		logger: logger.With(slog.String("component", "alert_store")),
	}
}

// List returns every stored alert rule. An absent key or unreachable backend
// yields an empty list, never an error.
func (s *AlertStore) List(ctx context.Context) ([]domain.AlertRule, error) {
	data, err := s.rdb.Get(ctx, alertKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "alert list read failed",
				slog.String("error", err.Error()),
			)
		}
		return []domain.AlertRule{}, nil
	}

	var rules []domain.AlertRule
	if err := json.Unmarshal(data, &rules); err != nil {
		s.logger.WarnContext(ctx, "alert list payload corrupt",
			slog.String("error", err.Error()),
		)
		return []domain.AlertRule{}, nil
	}
	return rules, nil
}

// Save replaces the stored rule list. The alert list has no TTL; rules live
// until overwritten.
func (s *AlertStore) Save(ctx context.Context, rules []domain.AlertRule) error {
	data, err := json.Marshal(rules)
	if err != nil {
		return fmt.Errorf("redis: marshal alert rules: %w", err)
	}
	if err := s.rdb.Set(ctx, alertKey, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: save alert rules: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

var _ domain.AlertStore = (*AlertStore)(nil)
