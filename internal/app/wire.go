package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opinionhub/opinionhub/internal/alert"
	s3blob "github.com/opinionhub/opinionhub/internal/blob/s3"
	"github.com/opinionhub/opinionhub/internal/cache/redis"
	"github.com/opinionhub/opinionhub/internal/config"
	"github.com/opinionhub/opinionhub/internal/feed"
	"github.com/opinionhub/opinionhub/internal/notify"
	"github.com/opinionhub/opinionhub/internal/platform/goldsky"
	"github.com/opinionhub/opinionhub/internal/platform/opinion"
	"github.com/opinionhub/opinionhub/internal/platform/polymarket"
	"github.com/opinionhub/opinionhub/internal/strategy"
)

// Dependencies bundles everything the run loop needs. Feed and Archiver are
// nil when their config is absent.
type Dependencies struct {
	Redis    *redis.Client
	Opinion  *opinion.Client
	Poly     *polymarket.Client
	Goldsky  *goldsky.Client
	Strategy *strategy.Engine
	Alerts   *alert.Engine
	Sender   *notify.WebhookSender
	Feed     *feed.Feed
	Archiver *s3blob.Archiver
}

// Wire constructs all dependencies from config. The returned cleanup closes
// held connections and must run after every consumer has stopped.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	rdb, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("app: connect redis: %w", err)
	}
	cleanup := func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("redis close failed", slog.String("error", err.Error()))
		}
	}

	cache := redis.NewKV(rdb, logger)
	alertStore := redis.NewAlertStore(rdb, logger)

	opinionClient := opinion.NewClient(cfg.Opinion.BaseURL, cfg.Opinion.APIKey, cache, logger)
	polyClient := polymarket.NewClient(cfg.Polymarket.GammaHost, cfg.Polymarket.ClobHost, cache, logger)
	goldskyClient := goldsky.NewClient(cfg.Polymarket.GoldskyURL, cache, logger)

	sender := notify.NewWebhookSender(logger)

	deps := &Dependencies{
		Redis:    rdb,
		Opinion:  opinionClient,
		Poly:     polyClient,
		Goldsky:  goldskyClient,
		Strategy: strategy.NewEngine(opinionClient, polyClient, goldskyClient, cache, logger),
		Alerts:   alert.NewEngine(alertStore, sender, cfg.Notify.DefaultWebhook, cfg.Notify.SiteURL, logger),
		Sender:   sender,
	}

	if cfg.Polymarket.WsHost != "" {
		deps.Feed = feed.New(cfg.Polymarket.WsHost, cache, logger)
	}

	if cfg.S3.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: connect s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(s3Client, logger)
	}

	return deps, cleanup, nil
}
