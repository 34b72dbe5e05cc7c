// =================================
// File: internal/config/config_test.go
// =================================
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigRunsOnDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DefaultWSURL, cfg.WSURL)
	assert.Equal(t, DefaultRESTURL, cfg.RESTURL)
	assert.Equal(t, DefaultQuoteFilter, cfg.QuoteFilter)
	assert.Equal(t, DefaultDipThreshold, cfg.DipThresholdPct)
	assert.Equal(t, time.Duration(0), cfg.AlertCooldown)
	assert.False(t, cfg.AlertOncePerPeak)
	assert.Equal(t, DefaultStatsInterval, cfg.StatsInterval)
	assert.Equal(t, DefaultWorkers, cfg.Workers)
	assert.Equal(t, DefaultEventBuffer, cfg.EventBuffer)
	assert.Equal(t, DefaultAlertQueueSize, cfg.AlertQueueSize)
	assert.Empty(t, cfg.Pairs)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `{
		"pairs": ["BTC_USDT", "ETH_USDT"],
		"dip_threshold_percent": 12.5,
		"alert_cooldown": "90s",
		"alert_once_per_peak": true,
		"stats_interval": "30s",
		"max_pairs": 50,
		"webhook_url": "https://hooks.example.com/dips",
		"metrics_addr": ":9184",
		"debug_logging": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC_USDT", "ETH_USDT"}, cfg.Pairs)
	assert.Equal(t, 12.5, cfg.DipThresholdPct)
	assert.Equal(t, 90*time.Second, cfg.AlertCooldown)
	assert.True(t, cfg.AlertOncePerPeak)
	assert.Equal(t, 30*time.Second, cfg.StatsInterval)
	assert.Equal(t, 50, cfg.MaxPairs)
	assert.Equal(t, "https://hooks.example.com/dips", cfg.WebhookURL)
	assert.Equal(t, ":9184", cfg.MetricsAddr)
	assert.True(t, cfg.DebugLogging)
	assert.Equal(t, DefaultWSURL, cfg.WSURL, "unset keys keep defaults")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero threshold", `{"dip_threshold_percent": 0}`, "dip_threshold_percent"},
		{"negative cooldown", `{"alert_cooldown": "-5s"}`, "alert_cooldown"},
		{"zero stats interval", `{"stats_interval": "0s"}`, "stats_interval"},
		{"zero workers", `{"workers": 0}`, "workers"},
		{"zero batch", `{"subscribe_batch_size": 0}`, "subscribe_batch_size"},
		{"negative max pairs", `{"max_pairs": -1}`, "max_pairs"},
		{"non-ws feed url", `{"ws_url": "ftp://feed.example.com"}`, "WebSocket"},
		{"plain http webhook", `{"webhook_url": "http://hooks.example.com/plain"}`, "HTTPS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("DIPMON_WEBHOOK_URL", "https://hooks.example.com/env")
	t.Setenv("DIPMON_PAIRS", " BTC_USDT , SOL_USDT ,")

	path := writeConfig(t, `{"pairs": ["ETH_USDT"]}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example.com/env", cfg.WebhookURL)
	assert.Equal(t, []string{"BTC_USDT", "SOL_USDT"}, cfg.Pairs)
}
