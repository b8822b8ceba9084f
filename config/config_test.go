package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Chdir(t.TempDir()) // no .env

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, "pool", cfg.NotifyBackend)
	assert.Equal(t, 24*time.Hour, cfg.WeatherTTL)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "noop", cfg.MailProvider)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GO_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("NOTIFY_BACKEND", "amqp")
	t.Setenv("ADMIN_IDS", "admin-1,admin-2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("WEATHER_CACHE_TTL", "30m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "pgx", cfg.DBDriver)
	assert.Equal(t, "redis", cfg.CacheBackend)
	assert.Equal(t, "amqp", cfg.NotifyBackend)
	assert.Equal(t, []string{"admin-1", "admin-2"}, cfg.AdminIDs)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 30*time.Minute, cfg.WeatherTTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"unknown cache", map[string]string{"CACHE_BACKEND": "memcached"}, "CACHE_BACKEND"},
		{"unknown notify backend", map[string]string{"NOTIFY_BACKEND": "kafka"}, "NOTIFY_BACKEND"},
		{"production without secret", map[string]string{"GO_ENV": "production"}, "JWT_SECRET"},
		{"bad duration", map[string]string{"WEATHER_CACHE_TTL": "soon"}, "load config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("GO_ENV", "test")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "production", "warn")
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "eventplanner", rec["service"])

	buf.Reset()
	logger = newLogger(&buf, "development", "debug")
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))
	logger.Debug("text line")
	assert.Contains(t, buf.String(), "msg=\"text line\"")
}
