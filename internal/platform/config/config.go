// Package config loads and validates application configuration from the
// environment. A local .env file is honoured in development.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Config holds all runtime configuration for the service.
type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// Inference sidecar endpoints. The models themselves are external
	// capabilities; we only talk HTTP to them.
	TranscriptionURL string `env:"TRANSCRIPTION_URL"`
	TranslationURL   string `env:"TRANSLATION_URL"`
	TaggingURL       string `env:"TAGGING_URL"`

	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT" default:"120s"`

	// Per-class cap on concurrent model users. GPU memory is the constraint;
	// zero means unlimited.
	ModelMaxConcurrent int           `env:"MODEL_MAX_CONCURRENT" default:"4"`
	ModelUnloadTimeout time.Duration `env:"MODEL_UNLOAD_TIMEOUT" default:"30s"`
	ModelIdleTimeout   time.Duration `env:"MODEL_IDLE_TIMEOUT" default:"15m"`
	ModelSweepInterval time.Duration `env:"MODEL_SWEEP_INTERVAL" default:"1m"`

	TranslationCacheTTL time.Duration `env:"TRANSLATION_CACHE_TTL" default:"720h"` // 30 days

	// Rate limit for the subtitle processing endpoint, per client IP.
	ProcessRatePerSecond float64 `env:"PROCESS_RATE_PER_SECOND" default:"1"`
	ProcessRateBurst     int     `env:"PROCESS_RATE_BURST" default:"3"`
}

// Load reads configuration from the environment, applying defaults and
// validating required values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":      cfg.DatabaseURL,
		"REDIS_URL":         cfg.RedisURL,
		"TRANSCRIPTION_URL": cfg.TranscriptionURL,
		"TRANSLATION_URL":   cfg.TranslationURL,
		"TAGGING_URL":       cfg.TaggingURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.ModelMaxConcurrent < 0 {
		return fmt.Errorf("MODEL_MAX_CONCURRENT must not be negative, got %d", cfg.ModelMaxConcurrent)
	}
	if cfg.ModelUnloadTimeout <= 0 {
		return fmt.Errorf("MODEL_UNLOAD_TIMEOUT must be positive, got %s", cfg.ModelUnloadTimeout)
	}
	if cfg.ProcessRatePerSecond <= 0 {
		return fmt.Errorf("PROCESS_RATE_PER_SECOND must be positive, got %f", cfg.ProcessRatePerSecond)
	}

	return nil
}
