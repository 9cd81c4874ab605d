// Package goldsky is a GraphQL client for the Goldsky subgraph indexer, used
// to pull historical fills for a Polymarket condition as a volatility input.
package goldsky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/opinionhub/opinionhub/internal/domain"
)

const fillsTTL = 5 * time.Minute

// Client queries the Goldsky activity subgraph.
type Client struct {
	graphqlURL string
	httpClient *http.Client
	cache      domain.Cache
	logger     *slog.Logger
}

// NewClient creates a new Goldsky GraphQL client.
func NewClient(graphqlURL string, cache domain.Cache, logger *slog.Logger) *Client {
	return &Client{
		graphqlURL: graphqlURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache:  cache,
		logger: logger.With(slog.String("component", "goldsky")),
	}
}

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FillHistory returns recent fill prices for a condition as history points
// (volume is not indexed and reads as zero). The series arrives newest first;
// callers sort before use. Failures degrade to an empty series.
func (c *Client) FillHistory(ctx context.Context, conditionID string) ([]domain.HistoryPoint, error) {
	if conditionID == "" {
		return nil, nil
	}

	key := "poly:history:" + conditionID
	var cached []domain.HistoryPoint
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	query := `
		query Fills($conditionId: String!, $first: Int!) {
			fills(
				where: { conditionId: $conditionId }
				orderBy: timestamp
				orderDirection: desc
				first: $first
			) {
				timestamp
				price
				outcomeIndex
			}
		}
	`

	variables := map[string]any{
		"conditionId": conditionID,
		"first":       100,
	}

	respData, err := c.doQuery(ctx, query, variables)
	if err != nil {
		c.logger.WarnContext(ctx, "fill history query failed",
			slog.String("condition_id", conditionID),
			slog.String("error", err.Error()),
		)
		return []domain.HistoryPoint{}, nil
	}

	var result struct {
		Fills []struct {
			Timestamp json.Number `json:"timestamp"`
			Price     json.Number `json:"price"`
		} `json:"fills"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		c.logger.WarnContext(ctx, "fill history decode failed",
			slog.String("condition_id", conditionID),
			slog.String("error", err.Error()),
		)
		return []domain.HistoryPoint{}, nil
	}

	points := make([]domain.HistoryPoint, 0, len(result.Fills))
	for _, f := range result.Fills {
		ts, _ := f.Timestamp.Int64()
		price, err := f.Price.Float64()
		if err != nil {
			price, _ = strconv.ParseFloat(f.Price.String(), 64)
		}
		points = append(points, domain.HistoryPoint{
			Timestamp: ts * 1000,
			Price:     price,
		})
	}

	_ = c.cache.Set(ctx, key, points, fillsTTL)
	return points, nil
}

// doQuery executes a GraphQL query and returns the raw "data" field.
func (c *Client) doQuery(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody := graphqlRequest{
		Query:     query,
		Variables: variables,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("goldsky: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("goldsky: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("goldsky: http request: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("goldsky: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("goldsky: %w: status %d", domain.ErrUpstream, resp.StatusCode)
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("goldsky: decode response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("goldsky: graphql error: %s", gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}
