package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinionhub/opinionhub/internal/domain"
)

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"Will the Fed hold rates? (March)": "will the fed hold rates march",
		"  BTC   above $100k!  ":           "btc above 100k",
		"中文 标题 Test":                       "中文 标题 test",
		"???":                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeTitle(in), "input %q", in)
	}
}

func TestPairTitleContainment(t *testing.T) {
	markets := []domain.Market{
		{ID: "m1", Title: "Fed holds rates"},
	}
	poly := []domain.PolyMarket{
		{ID: "p1", Title: "Will BTC hit 100k?"},
		{ID: "p2", Title: "Will the Fed holds rates in March?"},
	}

	pairings := Pair(markets, poly, DefaultTopN)
	require.Len(t, pairings, 1)
	require.NotNil(t, pairings[0].Poly)
	assert.Equal(t, "p2", pairings[0].Poly.ID)
	assert.Equal(t, domain.MatchTitle, pairings[0].Confidence)
}

func TestPairPositionalFallback(t *testing.T) {
	markets := []domain.Market{
		{ID: "m1", Title: "Alpha question"},
		{ID: "m2", Title: "Beta question"},
		{ID: "m3", Title: "Gamma question"},
	}
	poly := []domain.PolyMarket{
		{ID: "p1", Title: "Unrelated one"},
		{ID: "p2", Title: "Unrelated two"},
	}

	pairings := Pair(markets, poly, DefaultTopN)
	require.Len(t, pairings, 3)
	for _, p := range pairings {
		require.NotNil(t, p.Poly)
		assert.Equal(t, domain.MatchPositional, p.Confidence)
	}
	// Index wraps modulo the counterpart list length.
	assert.Equal(t, "p1", pairings[0].Poly.ID)
	assert.Equal(t, "p2", pairings[1].Poly.ID)
	assert.Equal(t, "p1", pairings[2].Poly.ID)
}

func TestPairEmptyCounterparts(t *testing.T) {
	markets := []domain.Market{{ID: "m1", Title: "Anything"}}

	pairings := Pair(markets, nil, DefaultTopN)
	require.Len(t, pairings, 1)
	assert.Nil(t, pairings[0].Poly)
	assert.Equal(t, domain.MatchPositional, pairings[0].Confidence)
}

func TestPairRespectsTopN(t *testing.T) {
	markets := make([]domain.Market, 20)
	for i := range markets {
		markets[i] = domain.Market{ID: "m", Title: "q"}
	}
	poly := []domain.PolyMarket{{ID: "p1", Title: "q extended"}}

	pairings := Pair(markets, poly, 0)
	assert.Len(t, pairings, DefaultTopN)
}
