// Package opinion is the REST adapter for the Opinion exchange, the primary
// quoting venue. Every call is memoized through the injected cache, and every
// upstream failure degrades to deterministic synthetic data so derived
// computations keep producing stable output.
package opinion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/opinionhub/opinionhub/internal/domain"
	"github.com/opinionhub/opinionhub/internal/metrics"
	"github.com/opinionhub/opinionhub/internal/slippage"
)

// Cache TTL tiers. Synthetic fallbacks are cached with the same tier as live
// data so a failing upstream is not hammered.
const (
	marketsTTL   = 20 * time.Second
	orderbookTTL = 15 * time.Second
	historyTTL   = 5 * time.Minute
)

const (
	defaultHistoryInterval = "1h"
	defaultHistoryLimit    = 50
	maxHistoryLimit        = 200
)

// Client fetches and normalizes Opinion market data. It holds no mutable
// state beyond the cache, so concurrent fetches are safe.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      domain.Cache
	logger     *slog.Logger
}

// NewClient creates a new Opinion API client.
//
// baseURL is the API root, e.g. "https://proxy.opinion.trade:8443/openapi".
func NewClient(baseURL, apiKey string, cache domain.Cache, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache:  cache,
		logger: logger.With(slog.String("component", "opinion")),
	}
}

// ListMarkets returns activated markets, optionally filtered by category.
// The read path never fails: on upstream error it serves a deterministic
// placeholder list.
func (c *Client) ListMarkets(ctx context.Context, category string) ([]domain.Market, error) {
	key := "markets:all"
	if category != "" {
		key = "markets:q:" + category
	}

	var cached []domain.Market
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	params := url.Values{}
	params.Set("status", "activated")
	params.Set("limit", "50")
	if category != "" {
		params.Set("category", category)
	}

	body, err := c.doGet(ctx, "/market?"+params.Encode())
	if err != nil {
		c.logger.WarnContext(ctx, "market list upstream failed, serving synthetic",
			slog.String("error", err.Error()),
		)
		metrics.UpstreamFetches.WithLabelValues("opinion", "markets", "synthetic").Inc()
		markets := syntheticMarkets(time.Now().UTC())
		_ = c.cache.Set(ctx, key, markets, marketsTTL)
		return markets, nil
	}

	markets := normalizeMarkets(extractList(body), time.Now().UTC())
	metrics.UpstreamFetches.WithLabelValues("opinion", "markets", "live").Inc()
	_ = c.cache.Set(ctx, key, markets, marketsTTL)
	return markets, nil
}

// GetOrderbook returns the two-sided book for a token with the default
// slippage bands embedded. Upstream failure degrades to a synthetic book
// seeded from the token ID.
func (c *Client) GetOrderbook(ctx context.Context, tokenID string) (domain.Orderbook, error) {
	key := "orderbook:" + tokenID

	var cached domain.Orderbook
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	body, err := c.doGet(ctx, "/token/orderbook?tokenId="+url.QueryEscape(tokenID))
	if err != nil {
		c.logger.WarnContext(ctx, "orderbook upstream failed, serving synthetic",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		metrics.UpstreamFetches.WithLabelValues("opinion", "orderbook", "synthetic").Inc()
		book := syntheticOrderbook(tokenID, time.Now().UTC())
		book.Slippage = slippage.Estimate(book, slippage.DefaultSizes)
		_ = c.cache.Set(ctx, key, book, orderbookTTL)
		return book, nil
	}

	book := normalizeOrderbook(tokenID, body, time.Now().UTC())
	book.Slippage = slippage.Estimate(book, slippage.DefaultSizes)
	metrics.UpstreamFetches.WithLabelValues("opinion", "orderbook", "live").Inc()
	_ = c.cache.Set(ctx, key, book, orderbookTTL)
	return book, nil
}

// GetHistory returns the recent price series for a token. interval defaults
// to "1h" and limit to 50 (capped at 200). Upstream failure degrades to a
// synthetic drifting series.
func (c *Client) GetHistory(ctx context.Context, tokenID, interval string, limit int) ([]domain.HistoryPoint, error) {
	if interval == "" {
		interval = defaultHistoryInterval
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	key := fmt.Sprintf("history:%s:%s:%d", tokenID, interval, limit)

	var cached []domain.HistoryPoint
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	params := url.Values{}
	params.Set("tokenId", tokenID)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.doGet(ctx, "/token/price-history?"+params.Encode())
	if err != nil {
		c.logger.WarnContext(ctx, "history upstream failed, serving synthetic",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		metrics.UpstreamFetches.WithLabelValues("opinion", "history", "synthetic").Inc()
		points := syntheticHistory(tokenID, limit, time.Now().UTC())
		_ = c.cache.Set(ctx, key, points, historyTTL)
		return points, nil
	}

	points := normalizeHistory(extractList(body), time.Now().UTC())
	metrics.UpstreamFetches.WithLabelValues("opinion", "history", "live").Inc()
	_ = c.cache.Set(ctx, key, points, historyTTL)
	return points, nil
}

// --------------------------------------------------------------------------
// Normalization
// --------------------------------------------------------------------------

// normalizeMarkets maps raw listing objects to canonical markets using the
// candidate-key table. Markets without a price get a deterministic one so the
// derived layers always have something to chew on.
func normalizeMarkets(list []rawObject, now time.Time) []domain.Market {
	markets := make([]domain.Market, 0, len(list))
	for idx, m := range list {
		id, ok := m.pickString(marketFields.ID)
		if !ok {
			id = fmt.Sprintf("m-%d", idx)
		}
		title, ok := m.pickString(marketFields.Title)
		if !ok {
			title = "Untitled market"
		}
		category, ok := m.pickString(marketFields.Category)
		if !ok {
			category = "General"
		}
		prob, ok := m.pickFloat(marketFields.Price)
		if !ok {
			prob = DeterministicProbability(strconv.Itoa(idx), 100)
		}
		markets = append(markets, domain.Market{
			ID:          id,
			Title:       title,
			Category:    category,
			Probability: clamp(prob, 0.05, 0.95),
			UpdatedAt:   now,
		})
	}
	return markets
}

// normalizeOrderbook decodes a raw book payload, tolerating both the
// {data:{bids,asks}} envelope and a bare {bids,asks} object, and levels sent
// as objects or tuples.
func normalizeOrderbook(tokenID string, body []byte, now time.Time) domain.Orderbook {
	var envelope struct {
		Data struct {
			Bids []rawLevel `json:"bids"`
			Asks []rawLevel `json:"asks"`
		} `json:"data"`
		Bids []rawLevel `json:"bids"`
		Asks []rawLevel `json:"asks"`
	}
	_ = json.Unmarshal(body, &envelope)

	rawBids := envelope.Data.Bids
	if len(rawBids) == 0 {
		rawBids = envelope.Bids
	}
	rawAsks := envelope.Data.Asks
	if len(rawAsks) == 0 {
		rawAsks = envelope.Asks
	}

	bids := make([]domain.PriceLevel, 0, len(rawBids))
	for _, l := range rawBids {
		bids = append(bids, domain.PriceLevel{Price: l.Price, Size: l.Size})
	}
	asks := make([]domain.PriceLevel, 0, len(rawAsks))
	for _, l := range rawAsks {
		asks = append(asks, domain.PriceLevel{Price: l.Price, Size: l.Size})
	}

	book := domain.Orderbook{
		TokenID:   tokenID,
		Bids:      bids,
		Asks:      asks,
		UpdatedAt: now,
	}
	if len(bids) > 0 && len(asks) > 0 {
		book.Mid = round((asks[0].Price+bids[0].Price)/2, 3)
		book.Spread = round(asks[0].Price-bids[0].Price, 3)
	}
	return book
}

// normalizeHistory maps raw series objects to canonical points. Points
// missing a timestamp get stamped with now.
func normalizeHistory(list []rawObject, now time.Time) []domain.HistoryPoint {
	points := make([]domain.HistoryPoint, 0, len(list))
	for _, p := range list {
		ts, ok := p.pickFloat(historyFields.Timestamp)
		if !ok {
			ts = float64(now.UnixMilli())
		}
		price, _ := p.pickFloat(historyFields.Price)
		volume, _ := p.pickFloat(historyFields.Volume)
		points = append(points, domain.HistoryPoint{
			Timestamp: int64(ts),
			Price:     price,
			Volume:    volume,
		})
	}
	return points
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet sends an authenticated GET request to the Opinion API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("opinion: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opinion: http request: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("opinion: read response: %w: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opinion: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	return body, nil
}
