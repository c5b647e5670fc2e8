package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration. Values come from an optional
// YAML file pointed at by RACENIGHT_CONFIG, with environment variables
// taking precedence.
type Config struct {
	HTTPAddress    string        `yaml:"http_address"`
	DatabaseURL    string        `yaml:"database_url"`
	TokenSecret    string        `yaml:"token_secret"`
	LogFile        string        `yaml:"log_file"`
	OTELEndpoint   string        `yaml:"otel_endpoint"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

func loadConfig() (Config, error) {
	cfg := Config{
		HTTPAddress:  ":8080",
		PollInterval: 5 * time.Second,
	}

	if path := os.Getenv("RACENIGHT_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.HTTPAddress = getEnv("RACENIGHT_HTTP_ADDR", cfg.HTTPAddress)
	cfg.DatabaseURL = getEnv("RACENIGHT_DATABASE_URL", cfg.DatabaseURL)
	cfg.TokenSecret = getEnv("RACENIGHT_TOKEN_SECRET", cfg.TokenSecret)
	cfg.LogFile = getEnv("RACENIGHT_LOG_FILE", cfg.LogFile)
	cfg.OTELEndpoint = getEnv("RACENIGHT_OTEL_ENDPOINT", cfg.OTELEndpoint)

	if cfg.TokenSecret == "" {
		return Config{}, fmt.Errorf("token secret is required (RACENIGHT_TOKEN_SECRET)")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
