package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "APP_ADDR", "STORE", "DB_DSN", "DB_TIMEOUT", "REDIS_ADDR", "CORS_ORIGINS", "GOOGLE_BOOKS_RPS", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.App.Addr)
	assert.Equal(t, StorePostgres, cfg.Database.Store)
	assert.Equal(t, 3*time.Second, cfg.Database.Timeout)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "https://www.googleapis.com", cfg.GoogleBooks.BaseURL)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("DB_TIMEOUT", "750ms")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("GOOGLE_BOOKS_MAX_PAGES", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("TRUST_PROXY", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Database.Store)
	assert.Equal(t, 750*time.Millisecond, cfg.Database.Timeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 3, cfg.GoogleBooks.MaxPages)
	assert.Equal(t, 2.5, cfg.HTTP.RateLimitRPS)
	assert.False(t, cfg.HTTP.TrustProxy)

	t.Setenv("TRUST_PROXY", "true")
	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.HTTP.TrustProxy)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"unknown store":     {"STORE": "sqlite"},
		"unknown log level": {"LOG_LEVEL": "loud"},
		"negative retries":  {"GOOGLE_BOOKS_MAX_RETRIES": "-1"},
		"zero rps":          {"GOOGLE_BOOKS_RPS": "0"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
