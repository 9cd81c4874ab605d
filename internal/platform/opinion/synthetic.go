package opinion

import (
	"fmt"
	"math"
	"time"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// DeterministicProbability maps a seed string to a stable value derived from
// the sum of its character codes. The same seed always produces the same
// output, so repeated upstream failures yield repeatable placeholder data.
// The raw value lies in [0.5, 1.5); callers clamp to their working range.
func DeterministicProbability(seed string, factor int) float64 {
	var hash int
	for _, r := range seed {
		hash += int(r)
	}
	return (float64(hash%factor) + float64(factor)/2) / float64(factor)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round truncates v to the given number of decimal places.
func round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}

// syntheticMarkets builds the placeholder market list served when the
// upstream listing endpoint fails.
func syntheticMarkets(now time.Time) []domain.Market {
	markets := make([]domain.Market, 0, 10)
	for i := 0; i < 10; i++ {
		category := "Macro"
		if i%2 == 1 {
			category = "Crypto"
		}
		markets = append(markets, domain.Market{
			ID:          fmt.Sprintf("mock-%d", i),
			Title:       fmt.Sprintf("Sample market %d", i+1),
			Category:    category,
			Probability: 0.35 + float64(i)*0.02,
			UpdatedAt:   now,
		})
	}
	return markets
}

// syntheticOrderbook builds a plausible two-sided book seeded from the token
// ID: eight levels per side stepping one cent away from a deterministic base
// price in [0.1, 0.9].
func syntheticOrderbook(tokenID string, now time.Time) domain.Orderbook {
	base := clamp(DeterministicProbability(tokenID, 100), 0.1, 0.9)

	bids := make([]domain.PriceLevel, 0, 8)
	asks := make([]domain.PriceLevel, 0, 8)
	for i := 0; i < 8; i++ {
		bids = append(bids, domain.PriceLevel{
			Price: round(base-float64(i)*0.01, 3),
			Size:  round(math.Max(0.2, 2.5-float64(i)*0.2), 2),
		})
		asks = append(asks, domain.PriceLevel{
			Price: round(base+float64(i)*0.01, 3),
			Size:  round(math.Max(0.2, 2+float64(i)*0.25), 2),
		})
	}

	return domain.Orderbook{
		TokenID:   tokenID,
		Bids:      bids,
		Asks:      asks,
		Mid:       round(base, 3),
		Spread:    round(asks[0].Price-bids[0].Price, 3),
		UpdatedAt: now,
	}
}

// syntheticHistory builds a drifting price series seeded from the token ID,
// one point per minute ending at now.
func syntheticHistory(tokenID string, limit int, now time.Time) []domain.HistoryPoint {
	start := clamp(DeterministicProbability(tokenID, 80), 0.1, 0.9)

	points := make([]domain.HistoryPoint, 0, limit)
	for i := 0; i < limit; i++ {
		drift := math.Sin(float64(i)/5)*0.05 + float64(i)*0.002
		if i%2 == 1 {
			drift = -drift
		}
		price := clamp(start+drift, 0.05, 0.95)
		volume := math.Round(50 + math.Abs(math.Sin(float64(i)))*40 + float64(i)*2)
		points = append(points, domain.HistoryPoint{
			Timestamp: now.Add(-time.Duration(limit-1-i) * time.Minute).UnixMilli(),
			Price:     round(price, 3),
			Volume:    volume,
		})
	}
	return points
}
