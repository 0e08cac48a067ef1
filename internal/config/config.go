// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package config loads layered configuration: built-in defaults, an
// optional YAML file, then VIGIL_-prefixed environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Scoring  ScoringConfig  `koanf:"scoring"`
	Alerting AlertingConfig `koanf:"alerting"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`

	// CORSOrigins lists allowed origins for browser clients.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitReqs requests per RateLimitWindow per client IP. Zero
	// disables rate limiting.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// MaxUploadBytes caps the size of a CSV upload body.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`
}

// DatabaseConfig configures the embedded BadgerDB.
type DatabaseConfig struct {
	Path       string `koanf:"path"`
	InMemory   bool   `koanf:"in_memory"`
	SyncWrites bool   `koanf:"sync_writes"`
}

// ScoringConfig configures the external ML scoring service client.
type ScoringConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// Circuit breaker tuning.
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `koanf:"breaker_open_timeout"`

	// Concurrency bounds parallel batch scoring; RatePerSec throttles
	// scorer calls (zero = unthrottled).
	Concurrency int     `koanf:"concurrency"`
	RatePerSec  float64 `koanf:"rate_per_sec"`
}

// AlertingConfig configures the alert lifecycle manager and stale sweep.
type AlertingConfig struct {
	// MinConfidence and MinSeverity gate automatic alert creation.
	MinConfidence float64 `koanf:"min_confidence"`
	MinSeverity   string  `koanf:"min_severity"`

	StaleThreshold time.Duration `koanf:"stale_threshold"`
	SweepInterval  time.Duration `koanf:"sweep_interval"`
}

// IngestConfig configures CSV ingestion.
type IngestConfig struct {
	// TimestampFallback selects what happens to rows whose timestamp
	// cannot be parsed: "now" substitutes the processing time, "discard"
	// drops the row.
	TimestampFallback string `koanf:"timestamp_fallback"`
}

// LoggingConfig configures structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all defaults applied. These are
// overridden by the config file and then environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			MaxUploadBytes:  64 << 20, // 64 MB
		},
		Database: DatabaseConfig{
			Path:       "/data/vigil",
			InMemory:   false,
			SyncWrites: false,
		},
		Scoring: ScoringConfig{
			BaseURL:            "http://127.0.0.1:8000",
			Timeout:            10 * time.Second,
			BreakerMaxFailures: 5,
			BreakerOpenTimeout: 30 * time.Second,
			Concurrency:        8,
			RatePerSec:         0,
		},
		Alerting: AlertingConfig{
			MinConfidence:  0.7,
			MinSeverity:    "HIGH",
			StaleThreshold: 24 * time.Hour,
			SweepInterval:  time.Hour,
		},
		Ingest: IngestConfig{
			TimestampFallback: "now",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}

	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database.path required unless database.in_memory is set")
	}

	if c.Scoring.BaseURL == "" {
		return fmt.Errorf("scoring.base_url required")
	}
	if c.Scoring.Timeout <= 0 {
		return fmt.Errorf("scoring.timeout must be positive")
	}
	if c.Scoring.Concurrency < 1 {
		return fmt.Errorf("scoring.concurrency must be at least 1")
	}
	if c.Scoring.RatePerSec < 0 {
		return fmt.Errorf("scoring.rate_per_sec must not be negative")
	}

	if c.Alerting.MinConfidence < 0 || c.Alerting.MinConfidence > 1 {
		return fmt.Errorf("alerting.min_confidence %v outside [0,1]", c.Alerting.MinConfidence)
	}
	switch c.Alerting.MinSeverity {
	case "LOW", "MEDIUM", "HIGH", "CRITICAL":
	default:
		return fmt.Errorf("alerting.min_severity %q invalid", c.Alerting.MinSeverity)
	}
	if c.Alerting.StaleThreshold <= 0 {
		return fmt.Errorf("alerting.stale_threshold must be positive")
	}
	if c.Alerting.SweepInterval <= 0 {
		return fmt.Errorf("alerting.sweep_interval must be positive")
	}

	switch c.Ingest.TimestampFallback {
	case "now", "discard":
	default:
		return fmt.Errorf("ingest.timestamp_fallback %q invalid (want now or discard)", c.Ingest.TimestampFallback)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q invalid (want json or console)", c.Logging.Format)
	}

	return nil
}
