package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies OPINIONHUB_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. A missing file is not an
// error: defaults plus environment overrides still produce a usable config.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known OPINIONHUB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Opinion.BaseURL, "OPINIONHUB_OPINION_BASE_URL")
	setStr(&cfg.Opinion.APIKey, "OPINIONHUB_OPINION_API_KEY")

	setStr(&cfg.Polymarket.GammaHost, "OPINIONHUB_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "OPINIONHUB_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.WsHost, "OPINIONHUB_POLYMARKET_WS_HOST")
	setStr(&cfg.Polymarket.GoldskyURL, "OPINIONHUB_POLYMARKET_GOLDSKY_URL")

	setStr(&cfg.Redis.Addr, "OPINIONHUB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "OPINIONHUB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "OPINIONHUB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "OPINIONHUB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "OPINIONHUB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "OPINIONHUB_REDIS_TLS_ENABLED")

	setStr(&cfg.S3.Endpoint, "OPINIONHUB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "OPINIONHUB_S3_REGION")
	setStr(&cfg.S3.Bucket, "OPINIONHUB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "OPINIONHUB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "OPINIONHUB_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "OPINIONHUB_S3_FORCE_PATH_STYLE")

	setDuration(&cfg.Worker.RefreshInterval, "OPINIONHUB_WORKER_REFRESH_INTERVAL")
	setInt(&cfg.Worker.WarmMarkets, "OPINIONHUB_WORKER_WARM_MARKETS")

	setBool(&cfg.Server.Enabled, "OPINIONHUB_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "OPINIONHUB_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "OPINIONHUB_SERVER_CORS_ORIGINS")

	setStr(&cfg.Notify.DefaultWebhook, "OPINIONHUB_NOTIFY_DEFAULT_WEBHOOK")
	setStr(&cfg.Notify.SiteURL, "OPINIONHUB_NOTIFY_SITE_URL")

	setStr(&cfg.LogLevel, "OPINIONHUB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
