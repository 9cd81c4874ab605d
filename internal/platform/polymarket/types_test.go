package polymarket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloatDecodesBothEncodings(t *testing.T) {
	var v struct {
		A flexFloat `json:"a"`
		B flexFloat `json:"b"`
		C flexFloat `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":0.55,"b":"123.4","c":""}`), &v))
	assert.InDelta(t, 0.55, float64(v.A), 1e-9)
	assert.InDelta(t, 123.4, float64(v.B), 1e-9)
	assert.Zero(t, float64(v.C))
}

func TestToDomainPicksOutcomeTokens(t *testing.T) {
	m := APIMarket{
		ID:          "123",
		Question:    "Will the Fed hold rates in March 2026?",
		ConditionID: "0xcond",
		Tokens: []APIToken{
			{TokenID: "no-token", Outcome: "No"},
			{TokenID: "yes-token", Outcome: "Yes"},
		},
		OutcomePrices: []flexFloat{0.62, 0.38},
		Volume:        15000,
	}

	dm := m.ToDomain(0)
	assert.Equal(t, "yes-token", dm.YesTokenID)
	assert.Equal(t, "no-token", dm.NoTokenID)
	assert.Equal(t, "yes-token", dm.TokenID)
	assert.Equal(t, "0xcond", dm.ConditionID)
	assert.InDelta(t, 0.62, dm.Probability, 1e-9)
	assert.InDelta(t, 0.62, dm.YesPrice, 1e-9)
	assert.InDelta(t, 0.38, dm.NoPrice, 1e-9)
	assert.InDelta(t, 15000, dm.Volume24h, 1e-9)
}

func TestToDomainPositionalTokenFallback(t *testing.T) {
	m := APIMarket{
		Title: "Unlabeled outcomes",
		Tokens: []APIToken{
			{TokenID: "first"},
			{TokenID: "second"},
		},
	}

	dm := m.ToDomain(3)
	assert.Equal(t, "first", dm.YesTokenID)
	assert.Equal(t, "second", dm.NoTokenID)
}

func TestToDomainDefaults(t *testing.T) {
	dm := (&APIMarket{}).ToDomain(7)
	assert.Equal(t, "poly-7", dm.ID)
	assert.Equal(t, "Polymarket market", dm.Title)
	assert.Equal(t, "General", dm.Category)
	assert.InDelta(t, 0.5, dm.Probability, 1e-9, "missing price defaults to even odds")
}

func TestToDomainClampsProbability(t *testing.T) {
	hot := APIMarket{Title: "t", OutcomePrices: []flexFloat{0.999}}
	cold := APIMarket{Title: "t", OutcomePrices: []flexFloat{0.001}}
	assert.InDelta(t, 0.95, hot.ToDomain(0).Probability, 1e-9)
	assert.InDelta(t, 0.05, cold.ToDomain(0).Probability, 1e-9)
}

func TestDecodeGammaMarketsEnvelopes(t *testing.T) {
	bare := decodeGammaMarkets([]byte(`[{"question":"q"}]`))
	require.Len(t, bare, 1)

	wrapped := decodeGammaMarkets([]byte(`{"markets":[{"question":"q"}]}`))
	require.Len(t, wrapped, 1)

	assert.Nil(t, decodeGammaMarkets([]byte(`"nope"`)))
}
