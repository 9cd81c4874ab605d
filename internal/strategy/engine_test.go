package strategy

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// memCache is a map-backed domain.Cache for tests; TTLs are ignored.
type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) error {
	raw, ok := c.data[key]
	if !ok {
		return domain.ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	c.data[key] = raw
	return nil
}

type fakeOpinion struct {
	markets []domain.Market
	book    domain.Orderbook
	history []domain.HistoryPoint
}

func (f *fakeOpinion) ListMarkets(context.Context, string) ([]domain.Market, error) {
	return f.markets, nil
}

func (f *fakeOpinion) GetOrderbook(context.Context, string) (domain.Orderbook, error) {
	return f.book, nil
}

func (f *fakeOpinion) GetHistory(context.Context, string, string, int) ([]domain.HistoryPoint, error) {
	return f.history, nil
}

type fakePoly struct {
	markets   []domain.PolyMarket
	livePrice float64
	live      bool
}

func (f *fakePoly) ListMarkets(context.Context) ([]domain.PolyMarket, error) {
	return f.markets, nil
}

func (f *fakePoly) LivePrice(context.Context, string) (float64, bool) {
	return f.livePrice, f.live
}

type fakeFills struct {
	points []domain.HistoryPoint
}

func (f *fakeFills) FillHistory(context.Context, string) ([]domain.HistoryPoint, error) {
	return f.points, nil
}

func testEngine(op *fakeOpinion, poly *fakePoly, cache domain.Cache) *Engine {
	e := NewEngine(op, poly, &fakeFills{}, cache, slog.Default())
	e.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return e
}

func pairFixture(opinionProb, polyProb float64) (*fakeOpinion, *fakePoly) {
	op := &fakeOpinion{
		markets: []domain.Market{{ID: "tok-1", Title: "Fed holds rates", Probability: opinionProb}},
	}
	poly := &fakePoly{
		markets: []domain.PolyMarket{{
			ID:          "p1",
			Title:       "Will the Fed holds rates in March?",
			Probability: polyProb,
			YesTokenID:  "p1-yes",
			Volume24h:   5000,
		}},
	}
	return op, poly
}

func TestSignalsDeadZone(t *testing.T) {
	op, poly := pairFixture(0.50, 0.52)

	signals, err := testEngine(op, poly, newMemCache()).Signals(context.Background())
	require.NoError(t, err)
	assert.Empty(t, signals, "2% edge is inside the dead zone")
}

func TestSignalsEmitAboveDeadZone(t *testing.T) {
	op, poly := pairFixture(0.60, 0.50)

	signals, err := testEngine(op, poly, newMemCache()).Signals(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)

	s := signals[0]
	assert.Equal(t, "tok-1", s.MarketID)
	assert.Equal(t, "long", s.Direction)
	assert.InDelta(t, 0.10, s.Edge, 1e-9)
	assert.Equal(t, domain.MatchTitle, s.MatchConfidence)
	assert.GreaterOrEqual(t, s.Confidence, 0.5)
	assert.LessOrEqual(t, s.Confidence, 0.95)
	require.Len(t, s.History, 1)
	assert.InDelta(t, s.Edge, s.History[0].Edge, 1e-9)
}

func TestSignalsHistoryRingCapped(t *testing.T) {
	op, poly := pairFixture(0.70, 0.40)
	cache := newMemCache()
	engine := testEngine(op, poly, cache)

	for i := 0; i < 9; i++ {
		delete(cache.data, signalsKey)
		_, err := engine.Signals(context.Background())
		require.NoError(t, err)
	}

	delete(cache.data, signalsKey)
	signals, err := engine.Signals(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Len(t, signals[0].History, domain.SignalHistoryCap)
}

func TestSignalsConfidenceClamped(t *testing.T) {
	// Huge edge, deep book, jumpy history: every component saturates.
	op, poly := pairFixture(0.90, 0.10)
	op.history = []domain.HistoryPoint{
		{Timestamp: 1, Price: 0.2}, {Timestamp: 2, Price: 0.9},
		{Timestamp: 3, Price: 0.1}, {Timestamp: 4, Price: 0.8},
		{Timestamp: 5, Price: 0.3}, {Timestamp: 6, Price: 0.7},
	}

	signals, err := testEngine(op, poly, newMemCache()).Signals(context.Background())
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.LessOrEqual(t, signals[0].Confidence, 0.95)
}

func TestSignalsServedFromCache(t *testing.T) {
	op, poly := pairFixture(0.60, 0.50)
	cache := newMemCache()
	engine := testEngine(op, poly, cache)

	first, err := engine.Signals(context.Background())
	require.NoError(t, err)

	// Drain the venue: a cached result must not refetch.
	op.markets = nil
	second, err := engine.Signals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
}

func TestSpreadsUnconditional(t *testing.T) {
	op, poly := pairFixture(0.50, 0.51)

	rows, err := testEngine(op, poly, newMemCache()).Spreads(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1, "spread table has no dead zone")

	row := rows[0]
	assert.InDelta(t, -0.01, row.Edge, 1e-9)
	assert.InDelta(t, -1.0, row.EVPct, 1e-9)
	assert.Equal(t, "poly-long", row.Direction)
	assert.Equal(t, "Buy Polymarket / Sell Opinion", row.Action)
	assert.Equal(t, domain.PriceSourceFallback, row.PriceSource)
}

func TestSpreadsDirectionFollowsEdgeSign(t *testing.T) {
	// Opinion 0.60 vs Poly 0.50: edge +0.10 means Opinion prices higher,
	// so the row reads long on Opinion.
	op, poly := pairFixture(0.60, 0.50)
	rows, err := testEngine(op, poly, newMemCache()).Spreads(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "opinion-long", rows[0].Direction)
	assert.Equal(t, "Buy Opinion / Sell Polymarket", rows[0].Action)

	// Flipped probabilities, flipped labels.
	op, poly = pairFixture(0.40, 0.55)
	rows, err = testEngine(op, poly, newMemCache()).Spreads(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "poly-long", rows[0].Direction)
	assert.Equal(t, "Buy Polymarket / Sell Opinion", rows[0].Action)
}

func TestSpreadsLivePriceSource(t *testing.T) {
	op, poly := pairFixture(0.60, 0.50)
	poly.live = true
	poly.livePrice = 0.45

	rows, err := testEngine(op, poly, newMemCache()).Spreads(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.PriceSourceLive, rows[0].PriceSource)
	assert.InDelta(t, 0.45, rows[0].PolyProb, 1e-9)
	assert.Equal(t, "opinion-long", rows[0].Direction)
	assert.Equal(t, "Buy Opinion / Sell Polymarket", rows[0].Action)
}

func TestSignalsRecomputeWhenCachedEmpty(t *testing.T) {
	op, poly := pairFixture(0.60, 0.50)
	cache := newMemCache()
	require.NoError(t, cache.Set(context.Background(), signalsKey, []domain.StrategySignal{}, 0))

	signals, err := testEngine(op, poly, cache).Signals(context.Background())
	require.NoError(t, err)
	assert.Len(t, signals, 1, "an empty cached set must not be served for the TTL")
}

func TestSpreadsClampOpinionProbability(t *testing.T) {
	op, poly := pairFixture(0.99, 0.50)
	rows, err := testEngine(op, poly, newMemCache()).Spreads(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 0.95, rows[0].OpinionProb, 1e-9, "market-level bounds apply")
}

func TestExecutionHintBuckets(t *testing.T) {
	assert.Equal(t, "strong", executionHint(0.80))
	assert.Equal(t, "strong", executionHint(0.66))
	assert.Equal(t, "moderate", executionHint(0.50))
	assert.Equal(t, "weak", executionHint(0.10))
}
