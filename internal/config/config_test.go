package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "./data", cfg.Store.Dir)
	assert.Equal(t, 30*time.Minute, cfg.Detector.ScanPeriod)
	assert.Equal(t, time.Minute, cfg.Detector.ScanDelay)
	assert.Equal(t, 2, cfg.Detector.MinGroupSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("STORE_DIR", "/tmp/warden")
	t.Setenv("STALE_SCAN_PERIOD", "5m")
	t.Setenv("MIN_GROUP_SIZE", "4")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "/tmp/warden", cfg.Store.Dir)
	assert.Equal(t, 5*time.Minute, cfg.Detector.ScanPeriod)
	assert.Equal(t, 4, cfg.Detector.MinGroupSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("STALE_SCAN_PERIOD", "not-a-duration")

	cfg := LoadOrDefault()
	assert.Equal(t, Default().Detector.ScanPeriod, cfg.Detector.ScanPeriod)
}

func TestDefaultMatchesTags(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Server, cfg.Server)
	assert.Equal(t, def.Store, cfg.Store)
	assert.Equal(t, def.Detector, cfg.Detector)
	assert.Equal(t, def.RateLimit, cfg.RateLimit)
}
