// Devotrack - Devotional Content Engagement Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/devotrack

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns the documented defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Backend.Timeout = %v, want 10s", cfg.Backend.Timeout)
	}
	if cfg.Tracker.CooldownWindow != 300*time.Millisecond {
		t.Errorf("Tracker.CooldownWindow = %v, want 300ms", cfg.Tracker.CooldownWindow)
	}
	if cfg.Tracker.AllowAnonymous {
		t.Error("Tracker.AllowAnonymous should be false by default")
	}
	if len(cfg.Tracker.DuplicateSignatures) != len(DefaultDuplicateSignatures) {
		t.Errorf("DuplicateSignatures = %v, want %v", cfg.Tracker.DuplicateSignatures, DefaultDuplicateSignatures)
	}
	if cfg.Identity.HintStore != "badger" {
		t.Errorf("Identity.HintStore = %q, want badger", cfg.Identity.HintStore)
	}
	if cfg.Sinks.GA4.Enabled || cfg.Sinks.NATS.Enabled {
		t.Error("secondary sinks should be disabled by default")
	}
	if !cfg.CircuitBreaker.Enabled {
		t.Error("CircuitBreaker.Enabled should be true by default")
	}
	if cfg.Server.Port != 8787 {
		t.Errorf("Server.Port = %d, want 8787", cfg.Server.Port)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestDefaultSignaturesNotShared(t *testing.T) {
	cfg := defaultConfig()
	cfg.Tracker.DuplicateSignatures[0] = "mutated"

	if DefaultDuplicateSignatures[0] != "duplicate key" {
		t.Errorf("DefaultDuplicateSignatures mutated through config: %v", DefaultDuplicateSignatures)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"BACKEND_URL", "backend.url"},
		{"BACKEND_ANON_KEY", "backend.anon_key"},
		{"GA4_API_SECRET", "sinks.ga4.api_secret"},
		{"NATS_SINK_ENABLED", "sinks.nats.enabled"},
		{"TRACKER_COOLDOWN", "tracker.cooldown_window"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.key); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("backend: {}\n"), 0o600); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		t.Setenv(ConfigPathEnvVar, customPath)

		if got := findConfigFile(); got != customPath {
			t.Errorf("findConfigFile() = %q, want %q", got, customPath)
		}
	})

	t.Run("missing CONFIG_PATH file falls back", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, filepath.Join(tmpDir, "missing.yaml"))
		t.Chdir(tmpDir)

		if got := findConfigFile(); got != "" {
			t.Errorf("findConfigFile() = %q, want empty string", got)
		}
	})
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("BACKEND_URL", "https://tracking.example.com")
	t.Setenv("BACKEND_ANON_KEY", "anon-key-1234567890")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("TRACKER_ALLOW_ANONYMOUS", "true")
	t.Setenv("DUPLICATE_SIGNATURES", "duplicate key, E11000 ,")
	t.Setenv("HINT_STORE", "memory")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Backend.URL != "https://tracking.example.com" {
		t.Errorf("Backend.URL = %q", cfg.Backend.URL)
	}
	if cfg.Backend.AnonKey != "anon-key-1234567890" {
		t.Errorf("Backend.AnonKey = %q", cfg.Backend.AnonKey)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("Backend.Timeout = %v, want 5s", cfg.Backend.Timeout)
	}
	if !cfg.Tracker.AllowAnonymous {
		t.Error("Tracker.AllowAnonymous = false, want true")
	}
	want := []string{"duplicate key", "E11000"}
	if len(cfg.Tracker.DuplicateSignatures) != len(want) {
		t.Fatalf("DuplicateSignatures = %v, want %v", cfg.Tracker.DuplicateSignatures, want)
	}
	for i := range want {
		if cfg.Tracker.DuplicateSignatures[i] != want[i] {
			t.Errorf("DuplicateSignatures[%d] = %q, want %q", i, cfg.Tracker.DuplicateSignatures[i], want[i])
		}
	}
	if cfg.Identity.HintStore != "memory" {
		t.Errorf("Identity.HintStore = %q, want memory", cfg.Identity.HintStore)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yamlContent := `
backend:
  url: http://localhost:9999
  timeout: 3s
sinks:
  nats:
    enabled: true
    url: nats://127.0.0.1:4333
    subject_prefix: devo.test
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("BACKEND_TIMEOUT", "7s")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Backend.URL != "http://localhost:9999" {
		t.Errorf("Backend.URL = %q, want file value", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 7*time.Second {
		t.Errorf("Backend.Timeout = %v, env should override file", cfg.Backend.Timeout)
	}
	if !cfg.Sinks.NATS.Enabled || cfg.Sinks.NATS.SubjectPrefix != "devo.test" {
		t.Errorf("Sinks.NATS = %+v", cfg.Sinks.NATS)
	}
}
