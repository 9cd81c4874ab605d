// Package feed keeps live CLOB prices warm between REST polls by streaming
// last-trade events over the market WebSocket channel into the cache. The
// feed is an optimization layer: everything works without it, just with
// staler fallback prices.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opinionhub/opinionhub/internal/domain"
	"github.com/opinionhub/opinionhub/internal/metrics"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// pingPeriod must stay below pongWait.
	pingPeriod = (pongWait * 9) / 10

	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 60 * time.Second

	priceTTL = 15 * time.Second
)

// Feed streams CLOB last-trade prices for a tracked asset set into the
// cache under the same keys the REST adapter reads.
type Feed struct {
	wsURL  string
	cache  domain.Cache
	logger *slog.Logger

	mu     sync.Mutex
	assets map[string]struct{}

	// resub wakes the run loop when the tracked set changes.
	resub chan struct{}
}

// New creates a price feed for the CLOB market channel.
//
// wsURL is the market-channel endpoint, e.g.
// "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func New(wsURL string, cache domain.Cache, logger *slog.Logger) *Feed {
	return &Feed{
		wsURL:  wsURL,
		cache:  cache,
		logger: logger.With(slog.String("component", "feed")),
		assets: make(map[string]struct{}),
		resub:  make(chan struct{}, 1),
	}
}

// Track adds asset ids to the streamed set. Short structural ids are
// ignored since the channel only carries opaque token ids. The connection
// is cycled so the new subscription takes effect.
func (f *Feed) Track(ids ...string) {
	f.mu.Lock()
	changed := false
	for _, id := range ids {
		if !domain.IsLiveTokenID(id) {
			continue
		}
		if _, ok := f.assets[id]; !ok {
			f.assets[id] = struct{}{}
			changed = true
		}
	}
	f.mu.Unlock()

	if changed {
		select {
		case f.resub <- struct{}{}:
		default:
		}
	}
}

// Run connects, subscribes, and consumes events until ctx is cancelled,
// reconnecting with exponential backoff on any failure. It returns nil on
// cancellation.
func (f *Feed) Run(ctx context.Context) error {
	delay := reconnectDelay

	for {
		if len(f.trackedAssets()) == 0 {
			// Nothing to stream yet; wait for the first Track call.
			select {
			case <-ctx.Done():
				return nil
			case <-f.resub:
			}
		}

		err := f.stream(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			f.logger.WarnContext(ctx, "stream interrupted",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", delay),
			)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// stream runs a single connection lifetime: dial, subscribe, read until the
// connection drops, the tracked set changes, or ctx is cancelled.
func (f *Feed) stream(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	sub := struct {
		AssetIDs []string `json:"assets_ids"`
		Type     string   `json:"type"`
	}{AssetIDs: f.trackedAssets(), Type: "market"}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("feed: subscribe: %w: %v", domain.ErrWSDisconnect, err)
	}

	f.logger.InfoContext(ctx, "subscribed", slog.Int("assets", len(sub.AssetIDs)))

	// Pings plus a watcher that cycles the connection on cancellation or
	// when the tracked set changes.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-f.resub:
				conn.Close()
				return
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("feed: read: %w: %v", domain.ErrWSDisconnect, err)
		}
		f.handleMessage(ctx, raw)
	}
}

// tradeEvent is the slice of a market-channel event the feed consumes.
type tradeEvent struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Price     string `json:"price"`
}

// handleMessage routes last-trade events into the cache. The channel sends
// both single events and arrays; anything unparseable is dropped.
func (f *Feed) handleMessage(ctx context.Context, raw []byte) {
	var events []tradeEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		var single tradeEvent
		if err := json.Unmarshal(raw, &single); err != nil {
			return
		}
		events = []tradeEvent{single}
	}

	for _, ev := range events {
		if ev.EventType != "last_trade_price" || ev.AssetID == "" {
			continue
		}
		price, err := strconv.ParseFloat(ev.Price, 64)
		if err != nil || price <= 0 {
			continue
		}

		price = math.Max(0.01, math.Min(0.99, price))
		_ = f.cache.Set(ctx, "poly:price:"+ev.AssetID, price, priceTTL)
		metrics.UpstreamFetches.WithLabelValues("polymarket", "price", "stream").Inc()
	}
}

func (f *Feed) trackedAssets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.assets))
	for id := range f.assets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
