package handler

import (
	"context"
	"net/http"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// MarketSource is the venue-adapter slice the market endpoints need.
type MarketSource interface {
	ListMarkets(ctx context.Context, category string) ([]domain.Market, error)
	GetOrderbook(ctx context.Context, tokenID string) (domain.Orderbook, error)
	GetHistory(ctx context.Context, tokenID, interval string, limit int) ([]domain.HistoryPoint, error)
}

// MarketHandler serves market listings, orderbooks, and price history.
type MarketHandler struct {
	source MarketSource
}

// NewMarketHandler creates a MarketHandler over the given venue adapter.
func NewMarketHandler(source MarketSource) *MarketHandler {
	return &MarketHandler{source: source}
}

// ListMarkets returns the normalized market listing, optionally filtered by
// category.
// GET /api/markets?category=
func (h *MarketHandler) ListMarkets(w http.ResponseWriter, r *http.Request) {
	markets, err := h.source.ListMarkets(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list markets")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"markets": markets})
}

// GetOrderbook returns the orderbook with embedded slippage bands.
// GET /api/orderbook/{tokenId}
func (h *MarketHandler) GetOrderbook(w http.ResponseWriter, r *http.Request) {
	tokenID := r.PathValue("tokenId")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "tokenId is required")
		return
	}

	book, err := h.source.GetOrderbook(r.Context(), tokenID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch orderbook")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// GetHistory returns the price history series for a token.
// GET /api/history/{tokenId}?interval=&limit=
func (h *MarketHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	tokenID := r.PathValue("tokenId")
	if tokenID == "" {
		writeError(w, http.StatusBadRequest, "tokenId is required")
		return
	}

	points, err := h.source.GetHistory(r.Context(), tokenID,
		r.URL.Query().Get("interval"), queryInt(r, "limit", 0))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": points})
}
