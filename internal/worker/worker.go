// Package worker drives the periodic refresh cycle: warm venue caches,
// recompute strategy output, evaluate alert rules, and optionally archive
// the cycle. Each tick is best-effort; a failing stage never stops the
// ticker.
package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opinionhub/opinionhub/internal/domain"
	"github.com/opinionhub/opinionhub/internal/metrics"
)

// OpinionVenue is the primary-venue slice the worker warms.
type OpinionVenue interface {
	ListMarkets(ctx context.Context, category string) ([]domain.Market, error)
	GetOrderbook(ctx context.Context, tokenID string) (domain.Orderbook, error)
	GetHistory(ctx context.Context, tokenID, interval string, limit int) ([]domain.HistoryPoint, error)
}

// PolyVenue provides the counterpart listing whose token ids feed the
// streaming tracker.
type PolyVenue interface {
	ListMarkets(ctx context.Context) ([]domain.PolyMarket, error)
}

// StrategySource recomputes signal and spread caches.
type StrategySource interface {
	Signals(ctx context.Context) ([]domain.StrategySignal, error)
	Spreads(ctx context.Context) ([]domain.SpreadRow, error)
}

// AlertEvaluator runs one alert tick over the given markets.
type AlertEvaluator interface {
	Evaluate(ctx context.Context, markets []domain.Market) domain.CycleSummary
}

// Tracker receives token ids worth streaming.
type Tracker interface {
	Track(ids ...string)
}

// CycleArchiver persists one cycle's output to blob storage.
type CycleArchiver interface {
	ArchiveCycle(ctx context.Context, summary domain.CycleSummary, rows []domain.SpreadRow) (string, error)
}

// Worker owns the refresh cadence. Tracker and CycleArchiver are optional;
// nil disables the corresponding stage.
type Worker struct {
	opinion  OpinionVenue
	poly     PolyVenue
	strategy StrategySource
	alerts   AlertEvaluator
	tracker  Tracker
	archiver CycleArchiver

	interval    time.Duration
	warmMarkets int
	logger      *slog.Logger
}

// New creates a worker with the given cadence and warm depth.
func New(
	op OpinionVenue,
	poly PolyVenue,
	strategy StrategySource,
	alerts AlertEvaluator,
	tracker Tracker,
	archiver CycleArchiver,
	interval time.Duration,
	warmMarkets int,
	logger *slog.Logger,
) *Worker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if warmMarkets <= 0 {
		warmMarkets = 3
	}
	return &Worker{
		opinion:     op,
		poly:        poly,
		strategy:    strategy,
		alerts:      alerts,
		tracker:     tracker,
		archiver:    archiver,
		interval:    interval,
		warmMarkets: warmMarkets,
		logger:      logger.With(slog.String("component", "worker")),
	}
}

// Run ticks immediately, then on the configured interval, until ctx is
// cancelled. It always returns nil so cancellation does not read as a
// pipeline failure.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	start := time.Now()

	markets, err := w.opinion.ListMarkets(ctx, "")
	if err != nil {
		w.logger.WarnContext(ctx, "market refresh failed", slog.String("error", err.Error()))
		metrics.CycleErrors.Inc()
	}

	warmed := w.warm(ctx, markets)

	if w.tracker != nil {
		if poly, err := w.poly.ListMarkets(ctx); err == nil {
			ids := make([]string, 0, len(poly))
			for _, p := range poly {
				ids = append(ids, p.YesTokenID)
			}
			w.tracker.Track(ids...)
		}
	}

	strategyWarmed := 0
	if _, err := w.strategy.Signals(ctx); err != nil {
		w.logger.WarnContext(ctx, "signal refresh failed", slog.String("error", err.Error()))
		metrics.CycleErrors.Inc()
	} else {
		strategyWarmed++
	}

	spreads, err := w.strategy.Spreads(ctx)
	if err != nil {
		w.logger.WarnContext(ctx, "spread refresh failed", slog.String("error", err.Error()))
		metrics.CycleErrors.Inc()
	} else {
		strategyWarmed++
	}

	summary := w.alerts.Evaluate(ctx, markets)
	summary.MarketsWarmed = warmed
	summary.StrategyWarmed = strategyWarmed

	if w.archiver != nil {
		if _, err := w.archiver.ArchiveCycle(ctx, summary, spreads); err != nil {
			w.logger.WarnContext(ctx, "cycle archive failed", slog.String("error", err.Error()))
		}
	}

	w.logger.InfoContext(ctx, "cycle complete",
		slog.String("cycle_id", summary.ID),
		slog.Int("markets", len(markets)),
		slog.Int("warmed", warmed),
		slog.Int("alerts_evaluated", summary.AlertsEvaluated),
		slog.Int("alerts_triggered", summary.AlertsTriggered),
		slog.Int("errors", len(summary.Errors)),
		slog.Duration("took", time.Since(start)),
	)
}

// warm prefetches orderbook and history for the top markets. Fetches for
// one market run concurrently and failures are tolerated; the venue adapter
// already degrades to synthetic data.
func (w *Worker) warm(ctx context.Context, markets []domain.Market) int {
	n := w.warmMarkets
	if n > len(markets) {
		n = len(markets)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, m := range markets[:n] {
		tokenID := m.ID
		g.Go(func() error {
			_, _ = w.opinion.GetOrderbook(gctx, tokenID)
			return nil
		})
		g.Go(func() error {
			_, _ = w.opinion.GetHistory(gctx, tokenID, "", 0)
			return nil
		})
	}
	_ = g.Wait()
	return n
}
