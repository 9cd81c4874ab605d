package domain

import "time"

// Match confidence levels for cross-venue pairings. A positional pairing is a
// fallback guess and may join semantically unrelated markets.
const (
	MatchTitle      = "title"
	MatchPositional = "positional"
)

// Price source labels for spread rows.
const (
	PriceSourceLive     = "live"
	PriceSourceFallback = "fallback"
)

// SignalSample is one entry of a signal's rolling history ring.
type SignalSample struct {
	Timestamp  int64   `json:"ts"`
	Edge       float64 `json:"edge"`
	Confidence float64 `json:"confidence"`
}

// SignalHistoryCap bounds the per-market signal history ring. The cap is an
// application invariant enforced on every append, not a store feature.
const SignalHistoryCap = 5

// StrategySignal is a confidence-scored directional signal for one matched
// market pair. History carries the last SignalHistoryCap samples and survives
// across evaluation cycles via the cache.
type StrategySignal struct {
	MarketID        string         `json:"marketId"`
	Title           string         `json:"title"`
	Direction       string         `json:"direction"` // "long" or "short"
	Confidence      float64        `json:"confidence"`
	Edge            float64        `json:"edge"`
	MatchConfidence string         `json:"matchConfidence"`
	UpdatedAt       time.Time      `json:"updatedAt"`
	History         []SignalSample `json:"history,omitempty"`
}

// SpreadRow is one line of the raw cross-venue spread comparison table.
// Fully derived per cycle and never historized.
type SpreadRow struct {
	MarketID        string  `json:"marketId"`
	Title           string  `json:"title"`
	OpinionProb     float64 `json:"opinionProb"`
	PolyProb        float64 `json:"polyProb"`
	Edge            float64 `json:"edge"`
	EVPct           float64 `json:"evPct"`
	Direction       string  `json:"direction"` // "opinion-long" or "poly-long"
	Volume24h       float64 `json:"volume24h"`
	LiquidityScore  float64 `json:"liquidityScore"`
	Action          string  `json:"action"`
	Hint            string  `json:"hint"`
	PriceSource     string  `json:"priceSource"`
	MatchConfidence string  `json:"matchConfidence"`
}
