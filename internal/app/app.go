// Package app owns the application lifecycle: it wires dependencies from
// config, runs the HTTP server, refresh worker, and price feed under one
// errgroup, and tears everything down in reverse order on shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opinionhub/opinionhub/internal/config"
	"github.com/opinionhub/opinionhub/internal/server"
	"github.com/opinionhub/opinionhub/internal/server/handler"
	"github.com/opinionhub/opinionhub/internal/worker"
)

// App is the root application object.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies and blocks until the context is cancelled or a
// component fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
		slog.Bool("server", a.cfg.Server.Enabled),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	g, gctx := errgroup.WithContext(ctx)

	var tracker worker.Tracker
	if deps.Feed != nil {
		tracker = deps.Feed
		g.Go(func() error {
			return deps.Feed.Run(gctx)
		})
	}

	var archiver worker.CycleArchiver
	if deps.Archiver != nil {
		archiver = deps.Archiver
	}

	w := worker.New(
		deps.Opinion,
		deps.Poly,
		deps.Strategy,
		deps.Alerts,
		tracker,
		archiver,
		a.cfg.Worker.RefreshInterval.Duration,
		a.cfg.Worker.WarmMarkets,
		a.logger,
	)
	g.Go(func() error {
		return w.Run(gctx)
	})

	if a.cfg.Server.Enabled {
		srv := server.NewServer(
			server.Config{
				Port:        a.cfg.Server.Port,
				CORSOrigins: a.cfg.Server.CORSOrigins,
			},
			server.Handlers{
				Health:   handler.NewHealthHandler(deps.Redis),
				Markets:  handler.NewMarketHandler(deps.Opinion),
				Strategy: handler.NewStrategyHandler(deps.Strategy),
				Alerts:   handler.NewAlertHandler(deps.Alerts, deps.Sender, a.cfg.Notify.DefaultWebhook),
			},
			a.logger,
		)

		g.Go(func() error {
			err := srv.Start()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: run: %w", err)
	}
	return nil
}

// Close tears down resources in reverse registration order. Safe to call
// more than once.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
