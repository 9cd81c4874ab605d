// Package server exposes the JSON API over net/http with Go 1.22 method
// routing. The middleware chain is CORS, then request logging; there is no
// auth layer, the API is read-mostly and deployment-internal.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opinionhub/opinionhub/internal/server/handler"
	"github.com/opinionhub/opinionhub/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Markets  *handler.MarketHandler
	Strategy *handler.StrategyHandler
	Alerts   *handler.AlertHandler
}

// Server is the JSON API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and builds the middleware chain.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/markets", handlers.Markets.ListMarkets)
	mux.HandleFunc("GET /api/orderbook/{tokenId}", handlers.Markets.GetOrderbook)
	mux.HandleFunc("GET /api/history/{tokenId}", handlers.Markets.GetHistory)

	mux.HandleFunc("GET /api/strategy/signals", handlers.Strategy.GetSignals)
	mux.HandleFunc("GET /api/strategy/spreads", handlers.Strategy.GetSpreads)

	mux.HandleFunc("GET /api/alerts", handlers.Alerts.ListAlerts)
	mux.HandleFunc("POST /api/alerts", handlers.Alerts.CreateAlert)
	mux.HandleFunc("POST /api/alerts/test", handlers.Alerts.TestAlert)

	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      h,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Start listens for HTTP requests and blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
