package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Crawler.MaxPagesPerPortal != 3 {
		t.Fatalf("expected default max_pages_per_portal 3, got %d", cfg.Crawler.MaxPagesPerPortal)
	}
	if cfg.Fetch.MaxAttempts != 3 {
		t.Fatalf("expected default max_attempts 3, got %d", cfg.Fetch.MaxAttempts)
	}
	if cfg.Store.Provider != "noop" {
		t.Fatalf("expected default store provider noop, got %s", cfg.Store.Provider)
	}
	if got := cfg.RunBudget(); got != 90*time.Second {
		t.Fatalf("expected run budget 90s, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
server:
  port: 9090
fetch:
  user_agent: scout-agent
  timeout_seconds: 30
  max_attempts: 5
  backoff_base_ms: 500
crawler:
  max_pages_per_portal: 4
  politeness_ms: 800
  portal_workers: 5
  run_budget_seconds: 120
headless:
  enabled: true
  max_parallel: 1
store:
  provider: postgres
  dsn: postgres://scout@localhost/grants
logging:
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Fetch.UserAgent != "scout-agent" || cfg.Fetch.MaxAttempts != 5 {
		t.Fatalf("expected fetch overrides to apply: %+v", cfg.Fetch)
	}
	if cfg.Crawler.PortalWorkers != 5 {
		t.Fatalf("expected 5 portal workers, got %d", cfg.Crawler.PortalWorkers)
	}
	if cfg.Store.Provider != "postgres" || cfg.Store.DSN == "" {
		t.Fatalf("expected postgres store config: %+v", cfg.Store)
	}
	if got := cfg.FetchTimeout(); got != 30*time.Second {
		t.Fatalf("expected fetch timeout 30s, got %v", got)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"empty user agent", func(c *Config) { c.Fetch.UserAgent = "" }},
		{"relay without key", func(c *Config) { c.Fetch.RelayEnabled = true; c.Fetch.RelayAPIKey = "" }},
		{"zero portal workers", func(c *Config) { c.Crawler.PortalWorkers = 0 }},
		{"unknown store", func(c *Config) { c.Store.Provider = "dynamo" }},
		{"postgres without dsn", func(c *Config) { c.Store.Provider = "postgres"; c.Store.DSN = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
