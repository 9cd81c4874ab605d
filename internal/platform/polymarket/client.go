// Package polymarket is the adapter for the secondary public venue. It
// exposes two feeds with different freshness: the Gamma API for broad market
// metadata and the CLOB price endpoint for live per-token prices. Live
// pricing only works for long opaque outcome token IDs; shorter structural
// IDs are rejected before any request is made.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/opinionhub/opinionhub/internal/domain"
	"github.com/opinionhub/opinionhub/internal/metrics"
)

const (
	gammaTTL = 2 * time.Minute
	priceTTL = 15 * time.Second
)

// Client fetches and normalizes Polymarket data. It holds no mutable state
// beyond the cache, so concurrent fetches are safe.
type Client struct {
	gammaURL   string
	clobURL    string
	httpClient *http.Client
	cache      domain.Cache
	logger     *slog.Logger
}

// NewClient creates a new Polymarket client.
//
// gammaURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// clobURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClient(gammaURL, clobURL string, cache domain.Cache, logger *slog.Logger) *Client {
	return &Client{
		gammaURL: gammaURL,
		clobURL:  clobURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache:  cache,
		logger: logger.With(slog.String("component", "polymarket")),
	}
}

// ListMarkets returns active Gamma markets. On upstream failure it returns an
// empty list so derived computations degrade instead of breaking; the matcher
// tolerates an empty counterpart list.
func (c *Client) ListMarkets(ctx context.Context) ([]domain.PolyMarket, error) {
	const key = "poly:gamma"

	var cached []domain.PolyMarket
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	params := url.Values{}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("limit", "100")
	params.Set("offset", "0")

	body, err := c.doGet(ctx, c.gammaURL+"/markets?"+params.Encode())
	if err != nil {
		c.logger.WarnContext(ctx, "gamma markets upstream failed",
			slog.String("error", err.Error()),
		)
		metrics.UpstreamFetches.WithLabelValues("polymarket", "markets", "synthetic").Inc()
		return []domain.PolyMarket{}, nil
	}

	apiMarkets := decodeGammaMarkets(body)
	markets := make([]domain.PolyMarket, 0, len(apiMarkets))
	for i := range apiMarkets {
		markets = append(markets, apiMarkets[i].ToDomain(i))
	}

	metrics.UpstreamFetches.WithLabelValues("polymarket", "markets", "live").Inc()
	_ = c.cache.Set(ctx, key, markets, gammaTTL)
	return markets, nil
}

// LivePrice returns the CLOB price for an outcome token, clamped to
// [0.01, 0.99]. The second return is false when the ID is structural (too
// short for live pricing) or the upstream could not be reached; callers fall
// back to the slower Gamma probability.
func (c *Client) LivePrice(ctx context.Context, tokenID string) (float64, bool) {
	if !domain.IsLiveTokenID(tokenID) {
		return 0, false
	}

	key := "poly:price:" + tokenID
	var cached float64
	if err := c.cache.Get(ctx, key, &cached); err == nil && cached > 0 {
		return cached, true
	}

	body, err := c.doGet(ctx, c.clobURL+"/price?token_id="+url.QueryEscape(tokenID))
	if err != nil {
		c.logger.WarnContext(ctx, "clob price upstream failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
		metrics.UpstreamFetches.WithLabelValues("polymarket", "price", "synthetic").Inc()
		return 0, false
	}

	var resp struct {
		Price flexFloat `json:"price"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Price == 0 {
		return 0, false
	}

	prob := math.Max(0.01, math.Min(0.99, float64(resp.Price)))
	metrics.UpstreamFetches.WithLabelValues("polymarket", "price", "live").Inc()
	_ = c.cache.Set(ctx, key, prob, priceTTL)
	return prob, true
}

// decodeGammaMarkets tolerates both a bare array and the {markets:[...]}
// envelope.
func decodeGammaMarkets(body []byte) []APIMarket {
	var list []APIMarket
	if err := json.Unmarshal(body, &list); err == nil {
		return list
	}

	var envelope struct {
		Markets []APIMarket `json:"markets"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		return envelope.Markets
	}
	return nil
}

// doGet sends an unauthenticated GET request and returns the body.
func (c *Client) doGet(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket: http request: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polymarket: read response: %w: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("polymarket: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	return body, nil
}
