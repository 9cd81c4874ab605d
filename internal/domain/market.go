// Package domain defines the core entity types and collaborator contracts
// shared by every layer of the quote-reconciliation backend.
package domain

import "time"

// Market is a normalized prediction-market listing from the Opinion venue.
// It is recomputed on every cache miss and never mutated in place.
type Market struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Probability float64   `json:"probability"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PolyMarket is a normalized Polymarket listing. Token IDs are long opaque
// strings (>= 40 chars) usable for live CLOB pricing; shorter identifiers are
// condition/market IDs and must not be used for price lookups.
type PolyMarket struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Probability float64 `json:"probability"`
	TokenID     string  `json:"tokenId,omitempty"`
	YesTokenID  string  `json:"yesTokenId,omitempty"`
	NoTokenID   string  `json:"noTokenId,omitempty"`
	ConditionID string  `json:"conditionId,omitempty"`
	YesPrice    float64 `json:"yesPrice,omitempty"`
	NoPrice     float64 `json:"noPrice,omitempty"`
	Volume24h   float64 `json:"volume24h"`
}

// HistoryPoint is a single sample in a price/volume series. Timestamp is Unix
// milliseconds. Series arrive in arbitrary order; callers sort ascending by
// timestamp before use.
type HistoryPoint struct {
	Timestamp int64   `json:"ts"`
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
}

// MinLiveTokenIDLen separates tradable outcome token IDs from structural
// condition/market IDs. Only IDs at or above this length are valid for live
// price lookups against the CLOB.
const MinLiveTokenIDLen = 40

// IsLiveTokenID reports whether id can be used for live CLOB pricing.
func IsLiveTokenID(id string) bool {
	return len(id) >= MinLiveTokenIDLen
}
