package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "https://proxy.opinion.trade:8443/openapi", cfg.Opinion.BaseURL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Worker.RefreshInterval.Duration)
	assert.Equal(t, 3, cfg.Worker.WarmMarkets)
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 4000, cfg.Server.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoadTOMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
log_level = "debug"

[opinion]
api_key = "secret"

[redis]
addr = "redis.internal:6380"
db = 2

[worker]
refresh_interval = "45s"
warm_markets = 5

[server]
port = 8080
cors_origins = ["https://app.example.com"]
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "secret", cfg.Opinion.APIKey)
	assert.Equal(t, "redis.internal:6380", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 45*time.Second, cfg.Worker.RefreshInterval.Duration)
	assert.Equal(t, 5, cfg.Worker.WarmMarkets)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.CORSOrigins)

	// Untouched sections keep their defaults.
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
}

func TestLoadEnvOverridesWinOverTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[redis]\naddr = \"from-toml:6379\"\n"), 0o600))

	t.Setenv("OPINIONHUB_REDIS_ADDR", "from-env:6379")
	t.Setenv("OPINIONHUB_WORKER_REFRESH_INTERVAL", "1m")
	t.Setenv("OPINIONHUB_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Worker.RefreshInterval.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestValidateRejectsBrokenConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"empty opinion url":     func(c *Config) { c.Opinion.BaseURL = "" },
		"empty redis addr":      func(c *Config) { c.Redis.Addr = "" },
		"zero refresh interval": func(c *Config) { c.Worker.RefreshInterval.Duration = 0 },
		"bad port":              func(c *Config) { c.Server.Port = 0 },
		"bucket without region": func(c *Config) { c.S3.Bucket = "archives" },
	}
	for name, mutate := range cases {
		cfg := Defaults()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
