// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Sentiment providers.
const (
	ProviderLexicon = "lexicon"
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
)

type Config struct {
	// Feed settings
	FeedsConfigPath string
	FetchTimeout    time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration

	// Scheduling
	RefreshInterval time.Duration

	// Store settings
	StoreBackend     string // memory | postgres | sqlite
	DatabaseURL      string
	DatabaseTable    string
	StrictNaturalKey bool
	PruneAfter       time.Duration // 0 keeps persisted rows forever
	RetentionWindow  time.Duration // memory backend only
	SnapshotPath     string        // memory backend only, "" disables

	// Sentiment settings
	SentimentProvider string // lexicon | gemini | openai
	GeminiAPIKey      string
	GeminiModel       string
	MaxGeminiRequests int // per day, 0 = unlimited
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	MaxOpenAIRequests int // per day, 0 = unlimited
	SentimentCacheTTL time.Duration

	// App settings
	HTTPAddr  string
	Debug     bool
	LogFormat string
}

func Load() (*Config, error) {
	cfg := &Config{
		FeedsConfigPath: getEnvOrDefault("FEEDS_CONFIG_PATH", "configs/feeds.yaml"),
		FetchTimeout:    getEnvSecondsOrDefault("FETCH_TIMEOUT_SECONDS", 20*time.Second),
		RetryAttempts:   getEnvIntOrDefault("RETRY_ATTEMPTS", 2),
		RetryDelay:      getEnvSecondsOrDefault("RETRY_DELAY_SECONDS", 2*time.Second),
		RefreshInterval: time.Duration(getEnvIntOrDefault("REFRESH_INTERVAL_MINUTES", 60)) * time.Minute,

		StoreBackend:     strings.ToLower(getEnvOrDefault("STORE_BACKEND", BackendMemory)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DatabaseTable:    getEnvOrDefault("DATABASE_TABLE", "positive_news"),
		StrictNaturalKey: getEnvBool("STRICT_NATURAL_KEY"),
		PruneAfter:       getEnvHoursOrDefault("PRUNE_AFTER_HOURS", 0),
		RetentionWindow:  getEnvHoursOrDefault("RETENTION_WINDOW_HOURS", 48*time.Hour),
		SnapshotPath:     os.Getenv("SNAPSHOT_PATH"),

		SentimentProvider: strings.ToLower(getEnvOrDefault("SENTIMENT_PROVIDER", ProviderLexicon)),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		MaxGeminiRequests: getEnvIntOrDefault("MAX_GEMINI_REQUESTS", 200),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		MaxOpenAIRequests: getEnvIntOrDefault("MAX_OPENAI_REQUESTS", 200),
		SentimentCacheTTL: getEnvHoursOrDefault("SENTIMENT_CACHE_HOURS", 24*time.Hour),

		HTTPAddr:  getEnvOrDefault("HTTP_ADDR", ":8000"),
		Debug:     getEnvBool("DEBUG"),
		LogFormat: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "text")),
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	return time.Duration(getEnvIntOrDefault(key, int(defaultValue/time.Second))) * time.Second
}

func getEnvHoursOrDefault(key string, defaultValue time.Duration) time.Duration {
	return time.Duration(getEnvIntOrDefault(key, int(defaultValue/time.Hour))) * time.Hour
}

func getEnvBool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return err == nil && v
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres, BackendSQLite:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_BACKEND=%s", c.StoreBackend)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be 'memory', 'postgres' or 'sqlite', got %q", c.StoreBackend)
	}

	switch c.SentimentProvider {
	case ProviderLexicon:
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for SENTIMENT_PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for SENTIMENT_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("SENTIMENT_PROVIDER must be 'lexicon', 'gemini' or 'openai', got %q", c.SentimentProvider)
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json'")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL_MINUTES must be positive")
	}
	if c.RetentionWindow <= 0 {
		return fmt.Errorf("RETENTION_WINDOW_HOURS must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	if c.PruneAfter < 0 {
		return fmt.Errorf("PRUNE_AFTER_HOURS must not be negative")
	}
	return nil
}
