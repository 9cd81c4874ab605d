// Package config defines the top-level configuration for the opinionhub
// backend and provides defaults and validation helpers.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by OPINIONHUB_* environment
// variables.
type Config struct {
	Opinion    OpinionConfig    `toml:"opinion"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Worker     WorkerConfig     `toml:"worker"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	LogLevel   string           `toml:"log_level"`
}

// OpinionConfig holds Opinion exchange API parameters.
type OpinionConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

// PolymarketConfig holds Polymarket API endpoints.
type PolymarketConfig struct {
	GammaHost  string `toml:"gamma_host"`
	ClobHost   string `toml:"clob_host"`
	WsHost     string `toml:"ws_host"` // empty disables the live price feed
	GoldskyURL string `toml:"goldsky_url"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for cycle snapshot
// archival. An empty bucket disables archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// WorkerConfig holds cadence parameters for the background worker.
type WorkerConfig struct {
	RefreshInterval duration `toml:"refresh_interval"`
	WarmMarkets     int      `toml:"warm_markets"`
}

// ServerConfig holds the HTTP API server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds webhook delivery parameters.
type NotifyConfig struct {
	DefaultWebhook string `toml:"default_webhook"`
	SiteURL        string `toml:"site_url"`
}

// duration wraps time.Duration so TOML values like "30s" parse directly.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Defaults returns the built-in configuration used as the base layer before
// the TOML file and environment overrides are applied.
func Defaults() Config {
	return Config{
		Opinion: OpinionConfig{
			BaseURL: "https://proxy.opinion.trade:8443/openapi",
		},
		Polymarket: PolymarketConfig{
			GammaHost:  "https://gamma-api.polymarket.com",
			ClobHost:   "https://clob.polymarket.com",
			GoldskyURL: "https://api.goldsky.com/api/public/project_cl6mb8i9h0003e201j6li0diw/subgraphs/activity-subgraph/0.0.4/gn",
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		Worker: WorkerConfig{
			RefreshInterval: duration{30 * time.Second},
			WarmMarkets:     3,
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    4000,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for values that would prevent startup.
func (c *Config) Validate() error {
	if c.Opinion.BaseURL == "" {
		return fmt.Errorf("config: opinion.base_url is required")
	}
	if c.Polymarket.GammaHost == "" {
		return fmt.Errorf("config: polymarket.gamma_host is required")
	}
	if c.Polymarket.ClobHost == "" {
		return fmt.Errorf("config: polymarket.clob_host is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required")
	}
	if c.Worker.RefreshInterval.Duration <= 0 {
		return fmt.Errorf("config: worker.refresh_interval must be positive")
	}
	if c.Worker.WarmMarkets < 0 {
		return fmt.Errorf("config: worker.warm_markets must not be negative")
	}
	if c.Server.Enabled && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server.port must be in (0,65535]")
	}
	if c.S3.Bucket != "" && c.S3.Region == "" {
		return fmt.Errorf("config: s3.region is required when s3.bucket is set")
	}
	return nil
}
