// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Detector   DetectorConfig
	Heuristics HeuristicsConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// StoreConfig holds persistent store configuration.
type StoreConfig struct {
	Dir string `envconfig:"STORE_DIR" default:"./data"`
}

// DetectorConfig holds scheduling and clustering knobs. The staleness
// threshold itself is a user setting, not configuration.
type DetectorConfig struct {
	ScanPeriod   time.Duration `envconfig:"STALE_SCAN_PERIOD" default:"30m"`
	ScanDelay    time.Duration `envconfig:"STALE_SCAN_DELAY" default:"1m"`
	MinGroupSize int           `envconfig:"MIN_GROUP_SIZE" default:"2"`
}

// HeuristicsConfig points at an optional table override file.
type HeuristicsConfig struct {
	TablesPath string `envconfig:"HEURISTICS_TABLES" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Store: StoreConfig{
			Dir: "./data",
		},
		Detector: DetectorConfig{
			ScanPeriod:   30 * time.Minute,
			ScanDelay:    time.Minute,
			MinGroupSize: 2,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
