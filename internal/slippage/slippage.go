// Package slippage projects average fill prices and market impact by walking
// a two-sided orderbook. Estimation is a pure function of the book and the
// requested sizes: no time dependency, no caching across sizes.
package slippage

import (
	"math"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// DefaultSizes are the trade sizes projected when the caller does not supply
// its own set.
var DefaultSizes = []float64{100, 500, 1000}

// Estimate walks the book for each size on both sides and returns one band
// per (side, size) pair, buy first. An empty or one-sided book yields nil.
func Estimate(book domain.Orderbook, sizes []float64) []domain.SlippageBand {
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return nil
	}

	bands := make([]domain.SlippageBand, 0, 2*len(sizes))
	for _, size := range sizes {
		buyAvg, buyImpact := walk(book.Asks, book.Mid, size, true)
		sellAvg, sellImpact := walk(book.Bids, book.Mid, size, false)

		bands = append(bands,
			domain.SlippageBand{
				Side:      "buy",
				Size:      size,
				AvgPrice:  round4(buyAvg),
				Impact:    round4(buyImpact),
				ImpactPct: pct(buyImpact, book.Mid),
			},
			domain.SlippageBand{
				Side:      "sell",
				Size:      size,
				AvgPrice:  round4(sellAvg),
				Impact:    round4(sellImpact),
				ImpactPct: pct(sellImpact, book.Mid),
			},
		)
	}
	return bands
}

// walk consumes levels in price priority, taking min(remaining, levelSize) at
// each level until qty is filled or levels run out. When nothing fills, the
// average falls back to mid with zero impact. Impact is signed so that paying
// above mid on a buy and receiving below mid on a sell are both positive.
func walk(levels []domain.PriceLevel, mid, qty float64, buy bool) (avg, impact float64) {
	remaining := qty
	cost := 0.0
	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		take := math.Min(remaining, lvl.Size)
		cost += take * lvl.Price
		remaining -= take
	}

	filled := qty - remaining
	if filled <= 0 {
		return mid, 0
	}

	avg = cost / filled
	if buy {
		impact = avg - mid
	} else {
		impact = mid - avg
	}
	return avg, impact
}

func pct(impact, mid float64) float64 {
	if mid == 0 {
		return 0
	}
	return round4(impact / mid)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
