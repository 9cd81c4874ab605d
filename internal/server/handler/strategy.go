package handler

import (
	"context"
	"net/http"

	"github.com/opinionhub/opinionhub/internal/domain"
)

// SignalSource computes strategy signals and spread rows.
type SignalSource interface {
	Signals(ctx context.Context) ([]domain.StrategySignal, error)
	Spreads(ctx context.Context) ([]domain.SpreadRow, error)
}

// StrategyHandler serves the computed signal and spread tables.
type StrategyHandler struct {
	source SignalSource
}

// NewStrategyHandler creates a StrategyHandler over the strategy engine.
func NewStrategyHandler(source SignalSource) *StrategyHandler {
	return &StrategyHandler{source: source}
}

// GetSignals returns the current confidence-scored signals.
// GET /api/strategy/signals
func (h *StrategyHandler) GetSignals(w http.ResponseWriter, r *http.Request) {
	signals, err := h.source.Signals(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute signals")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signals": signals})
}

// GetSpreads returns the raw cross-venue spread comparison table.
// GET /api/strategy/spreads
func (h *StrategyHandler) GetSpreads(w http.ResponseWriter, r *http.Request) {
	rows, err := h.source.Spreads(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute spreads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"spreads": rows})
}
