package domain

import "time"

// PriceLevel is a single price+size entry in an orderbook.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Orderbook is an immutable two-sided snapshot for one instrument. Bids are
// sorted descending by price, asks ascending. Mid and Spread are 0 when
// either side is empty.
type Orderbook struct {
	TokenID   string         `json:"tokenId"`
	Bids      []PriceLevel   `json:"bids"`
	Asks      []PriceLevel   `json:"asks"`
	Mid       float64        `json:"mid"`
	Spread    float64        `json:"spread"`
	Slippage  []SlippageBand `json:"slippage,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// SlippageBand projects the average fill price and market impact of a trade
// of the given size against one side of the book. Derived from an Orderbook,
// never persisted on its own.
type SlippageBand struct {
	Side      string  `json:"side"` // "buy" or "sell"
	Size      float64 `json:"size"`
	AvgPrice  float64 `json:"avgPrice"`
	Impact    float64 `json:"impact"`
	ImpactPct float64 `json:"impactPct"`
}
