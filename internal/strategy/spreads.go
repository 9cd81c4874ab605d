package strategy

import (
	"context"
	"math"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// Liquidity buckets for the execution hint.
const (
	hintStrongFloor   = 0.66
	hintModerateFloor = 0.40
)

// Spreads returns the raw cross-venue comparison table. Unlike Signals it
// has no dead zone and no history: every matched pair produces a row every
// cycle.
func (e *Engine) Spreads(ctx context.Context) ([]domain.SpreadRow, error) {
	var cached []domain.SpreadRow
	if err := e.cache.Get(ctx, spreadsKey, &cached); err == nil {
		return cached, nil
	}

	comps, err := e.comparisons(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.SpreadRow, 0, len(comps))
	for _, c := range comps {
		volume := 0.0
		if c.poly != nil {
			volume = c.poly.Volume24h
		}
		liquidity := minFloat(1, log10(volume+10)/3)

		// Edge is opinionProb minus polyProb: a positive edge means Opinion
		// prices the outcome higher, the long side of the comparison.
		direction := "poly-long"
		action := "Buy Polymarket / Sell Opinion"
		if c.edge >= 0 {
			direction = "opinion-long"
			action = "Buy Opinion / Sell Polymarket"
		}

		rows = append(rows, domain.SpreadRow{
			MarketID:        c.market.ID,
			Title:           c.market.Title,
			OpinionProb:     round(c.opinionProb, 3),
			PolyProb:        round(c.polyProb, 3),
			Edge:            round(c.edge, 3),
			EVPct:           round(c.edge*100, 1),
			Direction:       direction,
			Volume24h:       volume,
			LiquidityScore:  round(liquidity, 3),
			Action:          action,
			Hint:            executionHint(liquidity),
			PriceSource:     c.priceSource,
			MatchConfidence: c.matchConfidence,
		})
	}

	_ = e.cache.Set(ctx, spreadsKey, rows, strategyTTL)
	return rows, nil
}

// executionHint buckets the liquidity score into sizing guidance.
func executionHint(liquidity float64) string {
	switch {
	case liquidity >= hintStrongFloor:
		return "strong"
	case liquidity >= hintModerateFloor:
		return "moderate"
	default:
		return "weak"
	}
}

func minFloat(a, b float64) float64 {
	return math.Min(a, b)
}

func absFloat(v float64) float64 {
	return math.Abs(v)
}

func log10(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Log10(v)
}
