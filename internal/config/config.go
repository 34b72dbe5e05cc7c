// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	WSURL              string        `mapstructure:"ws_url"`
	RESTURL            string        `mapstructure:"rest_url"`
	Pairs              []string      `mapstructure:"pairs"`
	QuoteFilter        string        `mapstructure:"quote_filter"`
	MaxPairs           int           `mapstructure:"max_pairs"`
	SubscribeBatchSize int           `mapstructure:"subscribe_batch_size"`
	DipThresholdPct    float64       `mapstructure:"dip_threshold_percent"`
	AlertCooldown      time.Duration `mapstructure:"alert_cooldown"`
	AlertOncePerPeak   bool          `mapstructure:"alert_once_per_peak"`
	StatsInterval      time.Duration `mapstructure:"stats_interval"`
	Workers            int           `mapstructure:"workers"`
	EventBuffer        int           `mapstructure:"event_buffer"`
	AlertQueueSize     int           `mapstructure:"alert_queue_size"`
	WebhookURL         string        `mapstructure:"webhook_url"`
	AlertLogDir        string        `mapstructure:"alert_log_dir"`
	LogFile            string        `mapstructure:"log_file"`
	MetricsAddr        string        `mapstructure:"metrics_addr"`
	DebugLogging       bool          `mapstructure:"debug_logging"`
}

const (
	DefaultConfigPath     = "configs/config.json"
	DefaultWSURL          = "wss://api.gateio.ws/ws/v4/"
	DefaultRESTURL        = "https://api.gateio.ws/api/v4"
	DefaultQuoteFilter    = "USDT"
	DefaultBatchSize      = 100
	DefaultDipThreshold   = 20.0
	DefaultStatsInterval  = 5 * time.Minute
	DefaultWorkers        = 4
	DefaultEventBuffer    = 4096
	DefaultAlertQueueSize = 256
	DefaultAlertLogDir    = "logs"
	DefaultLogFile        = "logs/dipmon.log"
)

// LoadConfig reads the JSON config at path, layering defaults under it
// and environment overrides on top. A missing file at the default path
// is not an error: the monitor runs out of the box on defaults alone.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"ws_url":                DefaultWSURL,
		"rest_url":              DefaultRESTURL,
		"quote_filter":          DefaultQuoteFilter,
		"max_pairs":             0,
		"subscribe_batch_size":  DefaultBatchSize,
		"dip_threshold_percent": DefaultDipThreshold,
		"alert_cooldown":        "0s",
		"alert_once_per_peak":   false,
		"stats_interval":        "5m",
		"workers":               DefaultWorkers,
		"event_buffer":          DefaultEventBuffer,
		"alert_queue_size":      DefaultAlertQueueSize,
		"alert_log_dir":         DefaultAlertLogDir,
		"log_file":              DefaultLogFile,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) || path != DefaultConfigPath {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.WSURL == "" {
		return errors.New("missing ws_url in configuration")
	}
	if err := validateURLWithCache(cfg.WSURL, "ws"); err != nil {
		return errors.New("invalid WebSocket URL protocol")
	}
	if cfg.RESTURL == "" {
		return errors.New("missing rest_url in configuration")
	}
	if err := validateURLWithCache(cfg.RESTURL, "http"); err != nil {
		return errors.New("invalid REST URL protocol")
	}
	if err := validateNumericParams(cfg); err != nil {
		return err
	}
	if cfg.WebhookURL != "" {
		if err := validateURLWithCache(cfg.WebhookURL, "https"); err != nil {
			return errors.New("webhook_url must use HTTPS")
		}
	}
	return nil
}

func validateNumericParams(cfg *Config) error {
	if cfg.DipThresholdPct <= 0 {
		return errors.New("invalid dip_threshold_percent")
	}
	if cfg.AlertCooldown < 0 {
		return errors.New("invalid alert_cooldown")
	}
	if cfg.StatsInterval <= 0 {
		return errors.New("invalid stats_interval")
	}
	if cfg.Workers <= 0 {
		return errors.New("invalid workers")
	}
	if cfg.SubscribeBatchSize <= 0 {
		return errors.New("invalid subscribe_batch_size")
	}
	if cfg.EventBuffer <= 0 {
		return errors.New("invalid event_buffer")
	}
	if cfg.AlertQueueSize <= 0 {
		return errors.New("invalid alert_queue_size")
	}
	if cfg.MaxPairs < 0 {
		return errors.New("invalid max_pairs")
	}
	return nil
}

// urlCache maps raw URL strings to their parsed scheme. The scheme is
// matched against the caller's protocol on every call; only the parse
// itself is cached.
var urlCache sync.Map

// validateURLWithCache checks that rawURL parses and that its scheme
// starts with protocol ("ws" accepts wss, "http" accepts https).
func validateURLWithCache(rawURL, protocol string) error {
	scheme, ok := urlCache.Load(rawURL)
	if !ok {
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return errors.New("malformed URL")
		}
		scheme = parsed.Scheme
		urlCache.Store(rawURL, scheme)
	}
	if !strings.HasPrefix(scheme.(string), protocol) {
		return errors.New("unexpected URL scheme")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("DIPMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envWebhook := v.GetString("WEBHOOK_URL")
	if envWebhook != "" {
		cfg.WebhookURL = envWebhook
	}

	envWSURL := v.GetString("WS_URL")
	if envWSURL != "" {
		cfg.WSURL = envWSURL
	}

	envPairs := v.GetString("PAIRS")
	if envPairs != "" {
		pairs := strings.Split(envPairs, ",")
		var cleanPairs []string
		for _, pair := range pairs {
			clean := strings.TrimSpace(pair)
			if clean != "" {
				cleanPairs = append(cleanPairs, clean)
			}
		}
		if len(cleanPairs) > 0 {
			cfg.Pairs = cleanPairs
		}
	}
	return nil
}
