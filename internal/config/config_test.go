package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "mongo", cfg.Store.Driver)
	assert.Equal(t, EnrichOff, cfg.Enrichment.Mode)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, "http://127.0.0.1:8000/market-trends", cfg.Trends.URL)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/v?sslmode=disable")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("ENRICH_MODE", "queue")
	t.Setenv("WORKER_CONCURRENCY", "7")
	t.Setenv("TRENDS_CACHE_TTL", "90s")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("REDIS_DB", "2")

	cfg := Default()
	require.NoError(t, cfg.applyEnv())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, EnrichQueue, cfg.Enrichment.Mode)
	assert.Equal(t, 7, cfg.Enrichment.Workers)
	assert.Equal(t, 90*time.Second, cfg.Trends.CacheTTL)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 2, cfg.Trends.RedisDB)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	t.Setenv("TRENDS_CACHE_TTL", "soon")
	t.Setenv("WORKER_CONCURRENCY", "many")

	cfg := Default()
	err := cfg.applyEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRENDS_CACHE_TTL")
	assert.Contains(t, err.Error(), "WORKER_CONCURRENCY")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "cassandra" }, "STORE_DRIVER"},
		{"postgres without url", func(c *Config) { c.Store.Driver = "postgres"; c.Store.PostgresURL = "" }, "DATABASE_URL"},
		{"unknown enrich mode", func(c *Config) { c.Enrichment.Mode = "later" }, "ENRICH_MODE"},
		{"queue without amqp", func(c *Config) { c.Enrichment.Mode = EnrichQueue; c.AMQP.URL = "" }, "AMQP_URL"},
		{"zero workers", func(c *Config) { c.Enrichment.Workers = 0 }, "WORKER_CONCURRENCY"},
		{"negative ttl", func(c *Config) { c.Trends.CacheTTL = -time.Second }, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("memory store needs nothing", func(t *testing.T) {
		cfg := Default()
		cfg.Store.Driver = "memory"
		cfg.Store.MongoURI = ""
		assert.NoError(t, cfg.Validate())
	})
}

func TestRequireAuth(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.RequireAuth())

	cfg.Auth.ClerkSecretKey = "sk_test_123"
	assert.NoError(t, cfg.RequireAuth())
}
