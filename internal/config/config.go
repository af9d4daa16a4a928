// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default values for optional settings.
const (
	DefaultConfigFile        = "configs/aufseher.yaml"
	DefaultDatabasePath      = "./data/aufseher.db"
	DefaultOpenAIModel       = "gpt-4o"
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultClassifierTimeout = 15 * time.Second
	DefaultTransportTimeout  = 10 * time.Second
	DefaultRateLimit         = 30
	DefaultJournalRetention  = 30 * 24 * time.Hour
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	ConfigFile       string
	DatabasePath     string
	LogLevel         string

	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	ClassifierTimeout time.Duration

	TransportTimeout time.Duration
	RateLimit        float64
	MetricsAddr      string
	JournalRetention time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	cfg := &Config{
		TelegramBotToken: token,
		ConfigFile:       getenv("CONFIG_FILE", DefaultConfigFile),
		DatabasePath:     getenv("DATABASE_PATH", DefaultDatabasePath),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getenv("OPENAI_MODEL", DefaultOpenAIModel),
		OpenAIBaseURL:    getenv("OPENAI_BASE_URL", DefaultOpenAIBaseURL),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
	}

	var err error
	if cfg.ClassifierTimeout, err = duration("CLASSIFIER_TIMEOUT", DefaultClassifierTimeout); err != nil {
		return nil, err
	}
	if cfg.TransportTimeout, err = duration("TRANSPORT_TIMEOUT", DefaultTransportTimeout); err != nil {
		return nil, err
	}
	if cfg.JournalRetention, err = duration("JOURNAL_RETENTION", DefaultJournalRetention); err != nil {
		return nil, err
	}

	cfg.RateLimit = DefaultRateLimit
	if raw := os.Getenv("RATE_LIMIT"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT %q: must be a positive number", raw)
		}
		cfg.RateLimit = v
	}

	return cfg, nil
}

// ClassifierEnabled reports whether an external classifier is configured.
func (c *Config) ClassifierEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return d, nil
}
