// Package strategy derives cross-venue trading signals and the raw spread
// comparison table from matched market pairs. Both outputs are recomputed
// wholesale on cache miss; there is no incremental update path.
package strategy

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opinionhub/opinionhub/internal/domain"
	"github.com/opinionhub/opinionhub/internal/matcher"
	"github.com/opinionhub/opinionhub/internal/platform/opinion"
)

const (
	strategyTTL = 2 * time.Minute
	// The history ring must outlive several signal recomputes or it would
	// never accumulate more than one sample.
	historyRingTTL = time.Hour

	signalsKey = "strategy:signals"
	spreadsKey = "strategy:spreads"
	historyKey = "strategy:history"

	deadZone = 0.03
)

// OpinionVenue is the slice of the primary venue adapter the engine needs.
type OpinionVenue interface {
	ListMarkets(ctx context.Context, category string) ([]domain.Market, error)
	GetOrderbook(ctx context.Context, tokenID string) (domain.Orderbook, error)
	GetHistory(ctx context.Context, tokenID, interval string, limit int) ([]domain.HistoryPoint, error)
}

// PolyVenue is the slice of the secondary venue adapter the engine needs.
type PolyVenue interface {
	ListMarkets(ctx context.Context) ([]domain.PolyMarket, error)
	LivePrice(ctx context.Context, tokenID string) (float64, bool)
}

// FillSource provides historical fills for a condition id.
type FillSource interface {
	FillHistory(ctx context.Context, conditionID string) ([]domain.HistoryPoint, error)
}

// Engine computes strategy signals and spread rows.
type Engine struct {
	opinion OpinionVenue
	poly    PolyVenue
	fills   FillSource
	cache   domain.Cache
	logger  *slog.Logger
	now     func() time.Time
}

// NewEngine creates a strategy engine over the two venue adapters.
func NewEngine(op OpinionVenue, poly PolyVenue, fills FillSource, cache domain.Cache, logger *slog.Logger) *Engine {
	return &Engine{
		opinion: op,
		poly:    poly,
		fills:   fills,
		cache:   cache,
		logger:  logger.With(slog.String("component", "strategy")),
		now:     time.Now,
	}
}

// comparison is one matched pair resolved to comparable probabilities.
type comparison struct {
	market          domain.Market
	poly            *domain.PolyMarket
	opinionProb     float64
	polyProb        float64
	edge            float64
	priceSource     string
	matchConfidence string
}

// comparisons fetches both venues concurrently, pairs them, and resolves
// each pair to a probability comparison. A failed branch degrades to an
// empty list rather than failing the whole computation.
func (e *Engine) comparisons(ctx context.Context) ([]comparison, error) {
	var (
		markets []domain.Market
		poly    []domain.PolyMarket
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		markets, err = e.opinion.ListMarkets(gctx, "")
		if err != nil {
			e.logger.WarnContext(gctx, "opinion listing failed", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		poly, err = e.poly.ListMarkets(gctx)
		if err != nil {
			e.logger.WarnContext(gctx, "polymarket listing failed", slog.String("error", err.Error()))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pairings := matcher.Pair(markets, poly, matcher.DefaultTopN)
	comps := make([]comparison, 0, len(pairings))
	for _, p := range pairings {
		c := comparison{
			market:          p.Market,
			poly:            p.Poly,
			opinionProb:     clamp(p.Market.Probability, 0.05, 0.95),
			matchConfidence: p.Confidence,
		}
		c.polyProb, c.priceSource = e.counterpartProb(ctx, p)
		c.edge = c.opinionProb - c.polyProb
		comps = append(comps, c)
	}
	return comps, nil
}

// counterpartProb resolves the secondary-venue probability for a pairing.
// Live CLOB pricing wins when the token id supports it; otherwise the Gamma
// metadata probability is used. With no counterpart at all, a deterministic
// placeholder keeps the comparison populated and repeatable.
func (e *Engine) counterpartProb(ctx context.Context, p matcher.Pairing) (float64, string) {
	if p.Poly == nil {
		prob := clamp(opinion.DeterministicProbability(p.Market.ID+p.Market.Title, 1000)-0.5, 0.01, 0.99)
		return prob, domain.PriceSourceFallback
	}
	if price, ok := e.poly.LivePrice(ctx, p.Poly.YesTokenID); ok {
		return price, domain.PriceSourceLive
	}
	return clamp(p.Poly.Probability, 0.01, 0.99), domain.PriceSourceFallback
}

// priceSeries returns the best available price history for a comparison:
// indexed fills when the counterpart has a condition id, else the primary
// venue's candle series. Sorted ascending by timestamp.
func (e *Engine) priceSeries(ctx context.Context, c comparison) []float64 {
	var points []domain.HistoryPoint
	if c.poly != nil && c.poly.ConditionID != "" {
		points, _ = e.fills.FillHistory(ctx, c.poly.ConditionID)
	}
	if len(points) == 0 {
		points, _ = e.opinion.GetHistory(ctx, c.market.ID, "", 0)
	}

	sortPoints(points)
	prices := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Price > 0 {
			prices = append(prices, p.Price)
		}
	}
	return prices
}

func sortPoints(points []domain.HistoryPoint) {
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp < points[j].Timestamp
	})
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdev is the sample standard deviation.
func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}
