package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, uint16(8080), cfg.HTTP.Port)
	assert.Equal(t, 1, cfg.Broker.Prefetch)
	assert.Equal(t, time.Hour, cfg.SSE.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.SSE.KeepAliveInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention.ReadAlarmTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.Retention.UnreadAlarmTTL)
	assert.Equal(t, 90*24*time.Hour, cfg.Mongo.MessageTTL)
	assert.Equal(t, "zap", cfg.Logger.Logger)
	assert.Equal(t, 50, cfg.RateLimiter.MaxRatePerSecond)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := []byte(`
http:
  port: 9090
sse:
  idle_timeout: 30m
retention:
  sweep_interval: 1h
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(9090), cfg.HTTP.Port)
	assert.Equal(t, 30*time.Minute, cfg.SSE.IdleTimeout)
	assert.Equal(t, time.Hour, cfg.Retention.SweepInterval)

	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
}

func TestLoadEnvOverridesBeatFile(t *testing.T) {
	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("RABBITMQ_URI", "amqp://broker.internal:5672/")
	t.Setenv("SSE_KEEP_ALIVE_INTERVAL", "10s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, uint16(7070), cfg.HTTP.Port)
	assert.Equal(t, "amqp://broker.internal:5672/", cfg.Broker.URI)
	assert.Equal(t, 10*time.Second, cfg.SSE.KeepAliveInterval)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/config.yml")
	assert.Error(t, err)
}
