package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 4*time.Second, cfg.AITimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.AIEnabled())
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Empty(t, cfg.AnthropicAPIKey)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("HEALTH_DATA_DIR", "/tmp/test-health")
	t.Setenv("HEALTH_CACHE_MAX_ITEMS", "500")
	t.Setenv("HEALTH_CACHE_TTL", "12h")
	t.Setenv("HEALTH_AI_MODEL", "claude-test")
	t.Setenv("HEALTH_AI_TIMEOUT", "2s")
	t.Setenv("HEALTH_LOG_LEVEL", "debug")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-health", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "claude-test", cfg.AIModel)
	assert.Equal(t, 2*time.Second, cfg.AITimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "test-key", cfg.AnthropicAPIKey)
	assert.True(t, cfg.AIEnabled())
}

func TestLoadLiteConfig_IgnoresInvalidValues(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("HEALTH_CACHE_MAX_ITEMS", "-3")
	t.Setenv("HEALTH_CACHE_TTL", "soon")
	t.Setenv("HEALTH_AI_TIMEOUT", "0s")

	cfg := LoadLiteConfig()

	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 4*time.Second, cfg.AITimeout)
}

func TestLiteConfig_Paths(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.health-analytics"}

	assert.Equal(t, "/home/user/.health-analytics/history.db", cfg.HistoryDBPath())
	assert.Equal(t, "/home/user/.health-analytics/exports", cfg.ExportDir())
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: filepath.Join(t.TempDir(), "health")}

	require.NoError(t, cfg.EnsureDataDir())

	assert.DirExists(t, cfg.DataDir)
	assert.DirExists(t, cfg.ExportDir())
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"HEALTH_DATA_DIR",
		"HEALTH_CACHE_MAX_ITEMS",
		"HEALTH_CACHE_TTL",
		"HEALTH_AI_MODEL",
		"HEALTH_AI_TIMEOUT",
		"HEALTH_LOG_LEVEL",
		"HEALTH_LOG_FORMAT",
		"ANTHROPIC_API_KEY",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}
