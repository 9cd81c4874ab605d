package strategy

import (
	"context"
	"log/slog"
	"sort"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// Signals returns confidence-scored directional signals for all matched
// pairs whose edge clears the dead zone. Results are cached wholesale; on a
// miss the full set is recomputed and every surviving pair appends one
// sample to its history ring.
func (e *Engine) Signals(ctx context.Context) ([]domain.StrategySignal, error) {
	// An empty cached set is recomputed rather than served: a transiently
	// empty cycle must not pin an empty result for the whole TTL.
	var cached []domain.StrategySignal
	if err := e.cache.Get(ctx, signalsKey, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	comps, err := e.comparisons(ctx)
	if err != nil {
		return nil, err
	}

	rings := e.loadHistoryRings(ctx)
	now := e.now()

	signals := make([]domain.StrategySignal, 0, len(comps))
	for _, c := range comps {
		if absFloat(c.edge) < deadZone {
			continue
		}

		confidence := e.confidence(ctx, c)

		ring := append(rings[c.market.ID], domain.SignalSample{
			Timestamp:  now.UnixMilli(),
			Edge:       round(c.edge, 3),
			Confidence: round(confidence, 3),
		})
		if len(ring) > domain.SignalHistoryCap {
			ring = ring[len(ring)-domain.SignalHistoryCap:]
		}
		rings[c.market.ID] = ring

		direction := "short"
		if c.edge > 0 {
			direction = "long"
		}

		signals = append(signals, domain.StrategySignal{
			MarketID:        c.market.ID,
			Title:           c.market.Title,
			Direction:       direction,
			Confidence:      round(confidence, 3),
			Edge:            round(c.edge, 3),
			MatchConfidence: c.matchConfidence,
			UpdatedAt:       now,
			History:         ring,
		})
	}

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].Confidence > signals[j].Confidence
	})

	_ = e.cache.Set(ctx, historyKey, rings, historyRingTTL)
	_ = e.cache.Set(ctx, signalsKey, signals, strategyTTL)

	e.logger.InfoContext(ctx, "signals recomputed",
		slog.Int("pairs", len(comps)),
		slog.Int("signals", len(signals)),
	)
	return signals, nil
}

// confidence blends spread, depth, and volatility scores into [0.5, 0.95].
func (e *Engine) confidence(ctx context.Context, c comparison) float64 {
	spreadScore := minFloat(1, absFloat(c.edge)/0.2)

	volume := 0.0
	if c.poly != nil {
		volume = c.poly.Volume24h
	}

	depthScore := minFloat(1, log10(volume+1)/3)
	if domain.IsLiveTokenID(c.market.ID) {
		if book, err := e.opinion.GetOrderbook(ctx, c.market.ID); err == nil &&
			len(book.Bids) > 0 && len(book.Asks) > 0 {
			depthScore = minFloat(1, (book.Bids[0].Size+book.Asks[0].Size)/10)
		}
	}

	// A thin series is treated as a fixed small volatility rather than zero
	// so sparse markets do not zero out the blended score.
	volScore := 0.2
	prices := e.priceSeries(ctx, c)
	if len(prices) >= 6 {
		if m := mean(prices); m > 0 {
			volScore = minFloat(1, stdev(prices)/m/0.5)
		}
	}

	return clamp(0.5*spreadScore+0.3*depthScore+0.2*volScore, 0.5, 0.95)
}

// loadHistoryRings reads the per-market sample rings, degrading to empty on
// any miss.
func (e *Engine) loadHistoryRings(ctx context.Context) map[string][]domain.SignalSample {
	rings := make(map[string][]domain.SignalSample)
	_ = e.cache.Get(ctx, historyKey, &rings)
	if rings == nil {
		rings = make(map[string][]domain.SignalSample)
	}
	return rings
}
