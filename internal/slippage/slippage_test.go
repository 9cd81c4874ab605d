package slippage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinionhub/opinionhub/internal/domain"
)

func book(bids, asks []domain.PriceLevel) domain.Orderbook {
	b := domain.Orderbook{TokenID: "tok", Bids: bids, Asks: asks}
	if len(bids) > 0 && len(asks) > 0 {
		b.Mid = (asks[0].Price + bids[0].Price) / 2
		b.Spread = asks[0].Price - bids[0].Price
	}
	return b
}

func TestEstimateSingleLevelFill(t *testing.T) {
	b := book(
		[]domain.PriceLevel{{Price: 0.60, Size: 10}},
		[]domain.PriceLevel{{Price: 0.62, Size: 10}},
	)
	require.InDelta(t, 0.61, b.Mid, 1e-9)
	require.InDelta(t, 0.02, b.Spread, 1e-9)

	bands := Estimate(b, []float64{5})
	require.Len(t, bands, 2)

	buy := bands[0]
	assert.Equal(t, "buy", buy.Side)
	assert.InDelta(t, 0.62, buy.AvgPrice, 1e-9)
	assert.InDelta(t, 0.01, buy.Impact, 1e-9)
	assert.InDelta(t, 0.0164, buy.ImpactPct, 1e-4)

	sell := bands[1]
	assert.Equal(t, "sell", sell.Side)
	assert.InDelta(t, 0.60, sell.AvgPrice, 1e-9)
	assert.InDelta(t, 0.01, sell.Impact, 1e-9)
}

func TestEstimateWalksMultipleLevels(t *testing.T) {
	b := book(
		[]domain.PriceLevel{{Price: 0.50, Size: 100}},
		[]domain.PriceLevel{{Price: 0.52, Size: 100}, {Price: 0.55, Size: 100}},
	)

	bands := Estimate(b, []float64{200})
	require.Len(t, bands, 2)

	// 100 @ 0.52 + 100 @ 0.55 -> avg 0.535.
	buy := bands[0]
	assert.InDelta(t, 0.535, buy.AvgPrice, 1e-9)
	assert.InDelta(t, 0.535-0.51, buy.Impact, 1e-4)
}

func TestEstimatePartialFillUsesFilledQty(t *testing.T) {
	b := book(
		[]domain.PriceLevel{{Price: 0.40, Size: 5}},
		[]domain.PriceLevel{{Price: 0.44, Size: 5}},
	)

	// Requested 50 but only 5 available: avg is the level price, not mid.
	bands := Estimate(b, []float64{50})
	require.Len(t, bands, 2)
	assert.InDelta(t, 0.44, bands[0].AvgPrice, 1e-9)
	assert.InDelta(t, 0.40, bands[1].AvgPrice, 1e-9)
}

func TestEstimateImpactSignSymmetry(t *testing.T) {
	b := book(
		[]domain.PriceLevel{{Price: 0.48, Size: 20}},
		[]domain.PriceLevel{{Price: 0.52, Size: 20}},
	)

	bands := Estimate(b, []float64{10})
	require.Len(t, bands, 2)
	buy, sell := bands[0], bands[1]
	assert.Greater(t, buy.Impact, 0.0)
	assert.Greater(t, sell.Impact, 0.0)
	assert.InDelta(t, buy.Impact, sell.Impact, 1e-9, "symmetric book, symmetric impact")
	assert.GreaterOrEqual(t, buy.AvgPrice, b.Mid)
	assert.LessOrEqual(t, sell.AvgPrice, b.Mid)
}

func TestEstimateEmptyBook(t *testing.T) {
	assert.Nil(t, Estimate(domain.Orderbook{}, DefaultSizes))
	assert.Nil(t, Estimate(book([]domain.PriceLevel{{Price: 0.5, Size: 1}}, nil), DefaultSizes))
}

func TestEstimateDeterministic(t *testing.T) {
	b := book(
		[]domain.PriceLevel{{Price: 0.61, Size: 300}, {Price: 0.60, Size: 500}},
		[]domain.PriceLevel{{Price: 0.63, Size: 250}, {Price: 0.65, Size: 800}},
	)

	first := Estimate(b, DefaultSizes)
	second := Estimate(b, DefaultSizes)
	assert.Equal(t, first, second)
	assert.Len(t, first, 2*len(DefaultSizes))
}
