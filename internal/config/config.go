// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package config

import "time"

// Config holds all runtime configuration.
type Config struct {
	Backend        BackendConfig        `koanf:"backend"`
	Tracker        TrackerConfig        `koanf:"tracker"`
	Identity       IdentityConfig       `koanf:"identity"`
	Sinks          SinksConfig          `koanf:"sinks"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	Server         ServerConfig         `koanf:"server"`
	Logging        LoggingConfig        `koanf:"logging"`
}

// BackendConfig configures the primary tracking endpoint.
type BackendConfig struct {
	URL     string        `koanf:"url"`
	AnonKey string        `koanf:"anon_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// TrackerConfig configures the tracking core and the hook adapter.
type TrackerConfig struct {
	// AllowAnonymous tracks events without a session user id and leaves
	// deduplication to the server's network-origin key.
	AllowAnonymous bool `koanf:"allow_anonymous"`

	// CooldownWindow suppresses repeat toggles on a hook handle. Zero disables it.
	CooldownWindow time.Duration `koanf:"cooldown_window"`

	// DuplicateSignatures is the allowlist of error substrings that mark a
	// duplicate track. Matching is case-insensitive.
	DuplicateSignatures []string `koanf:"duplicate_signatures"`

	AppVersion string `koanf:"app_version"`
	Platform   string `koanf:"platform"`
	UserAgent  string `koanf:"user_agent"`
}

// IdentityConfig configures the local hint store.
type IdentityConfig struct {
	HintStore     string `koanf:"hint_store"` // badger or memory
	HintStorePath string `koanf:"hint_store_path"`
}

// SinksConfig groups the secondary analytics sinks.
type SinksConfig struct {
	GA4  GA4Config      `koanf:"ga4"`
	NATS NATSSinkConfig `koanf:"nats"`
}

// GA4Config configures the Google Analytics 4 Measurement Protocol reporter.
type GA4Config struct {
	Enabled       bool          `koanf:"enabled"`
	MeasurementID string        `koanf:"measurement_id"`
	APISecret     string        `koanf:"api_secret"`
	Endpoint      string        `koanf:"endpoint"`
	RateLimit     float64       `koanf:"rate_limit"` // events per second
	Burst         int           `koanf:"burst"`
	Timeout       time.Duration `koanf:"timeout"`
}

// NATSSinkConfig configures the NATS event mirror.
type NATSSinkConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	FlushTimeout  time.Duration `koanf:"flush_timeout"`
}

// CircuitBreakerConfig configures the breaker wrapping the backend client.
type CircuitBreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// ServerConfig configures the mock tracking backend.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
