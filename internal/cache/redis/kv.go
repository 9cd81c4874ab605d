package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opinionhub/opinionhub/internal/domain"
	"github.com/opinionhub/opinionhub/internal/metrics"
)

// KV implements domain.Cache with JSON-serialized values and per-key TTL.
// Every failure mode on the read path (missing key, expired key, backend
// down, corrupt payload) collapses into domain.ErrNotFound so callers always
// recompute. Write failures are logged and swallowed.
type KV struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewKV creates a KV cache backed by the given Client.
func NewKV(c *Client, logger *slog.Logger) *KV {
	return &KV{
		rdb:    c.Underlying(),
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Get unmarshals the cached value for key into dest. It returns
// domain.ErrNotFound on any miss, including backend errors.
func (kv *KV) Get(ctx context.Context, key string, dest any) error {
	data, err := kv.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			kv.logger.WarnContext(ctx, "cache get failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		metrics.CacheOps.WithLabelValues("get", "miss").Inc()
		return domain.ErrNotFound
	}

	if err := json.Unmarshal(data, dest); err != nil {
		kv.logger.WarnContext(ctx, "cache payload corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		metrics.CacheOps.WithLabelValues("get", "miss").Inc()
		return domain.ErrNotFound
	}

	metrics.CacheOps.WithLabelValues("get", "hit").Inc()
	return nil
}

// Set stores value under key with the given TTL. Failures are logged and
// swallowed; Set never fails the caller's primary operation.
func (kv *KV) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		kv.logger.WarnContext(ctx, "cache marshal failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil
	}

	if err := kv.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		kv.logger.WarnContext(ctx, "cache set failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		metrics.CacheOps.WithLabelValues("set", "error").Inc()
		return nil
	}

	metrics.CacheOps.WithLabelValues("set", "ok").Inc()
	return nil
}

var _ domain.Cache = (*KV)(nil)
