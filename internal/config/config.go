// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Store    StoreConfig    `mapstructure:"store"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// FetchConfig controls the HTTP fetcher and its retry behavior.
type FetchConfig struct {
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxAttempts      int    `mapstructure:"max_attempts"`
	BackoffBaseMs    int    `mapstructure:"backoff_base_ms"`
	RelayEnabled     bool   `mapstructure:"relay_enabled"`
	RelayEndpoint    string `mapstructure:"relay_endpoint"`
	RelayAPIKey      string `mapstructure:"relay_api_key"`
	RelayRenderPages bool   `mapstructure:"relay_render_pages"`
}

// HeadlessConfig controls the optional chromedp escalation path.
type HeadlessConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	MaxParallel    int     `mapstructure:"max_parallel"`
	NavTimeoutSec  int     `mapstructure:"nav_timeout_seconds"`
	DomainQPS      float64 `mapstructure:"domain_qps"`
	MinHTMLBytes   int     `mapstructure:"min_html_bytes"`
	SignalKeywords []string `mapstructure:"signal_keywords"`
}

// CrawlerConfig governs per-portal crawl behavior and the run budget.
type CrawlerConfig struct {
	MaxPagesPerPortal int `mapstructure:"max_pages_per_portal"`
	MaxLinksPerPage   int `mapstructure:"max_links_per_page"`
	PolitenessMs      int `mapstructure:"politeness_ms"`
	PortalWorkers     int `mapstructure:"portal_workers"`
	RunBudgetSeconds  int `mapstructure:"run_budget_seconds"`
	MaxPortals        int `mapstructure:"max_portals"`
}

// LLMConfig points the collaborator client at an OpenAI-compatible endpoint.
// An empty APIKey disables the client; deterministic fallbacks then apply.
type LLMConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StoreConfig selects run persistence. Provider "noop" discards runs.
type StoreConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// ArchiveConfig controls the optional on-disk page snapshot sink.
type ArchiveConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Dir          string `mapstructure:"dir"`
	MaxPageBytes int64  `mapstructure:"max_page_bytes"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GRANTSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 120)

	v.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
	v.SetDefault("fetch.timeout_seconds", 20)
	v.SetDefault("fetch.max_attempts", 3)
	v.SetDefault("fetch.backoff_base_ms", 1000)
	v.SetDefault("fetch.relay_enabled", false)
	v.SetDefault("fetch.relay_endpoint", "http://api.scraperapi.com")
	v.SetDefault("fetch.relay_render_pages", true)

	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 2)
	v.SetDefault("headless.nav_timeout_seconds", 15)
	v.SetDefault("headless.domain_qps", 0.5)
	v.SetDefault("headless.min_html_bytes", 2000)
	v.SetDefault("headless.signal_keywords", []string{
		"__NEXT_DATA__",
		"data-reactroot",
		"ng-app",
	})

	v.SetDefault("crawler.max_pages_per_portal", 3)
	v.SetDefault("crawler.max_links_per_page", 20)
	v.SetDefault("crawler.politeness_ms", 600)
	v.SetDefault("crawler.portal_workers", 3)
	v.SetDefault("crawler.run_budget_seconds", 90)
	v.SetDefault("crawler.max_portals", 5)

	v.SetDefault("llm.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout_seconds", 20)

	v.SetDefault("store.provider", "noop")
	v.SetDefault("store.max_conns", 4)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.dir", "data/pages")
	v.SetDefault("archive.max_page_bytes", 5*1024*1024)

	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Fetch.UserAgent == "" {
		return fmt.Errorf("fetch.user_agent must be set")
	}
	if c.Fetch.MaxAttempts <= 0 {
		return fmt.Errorf("fetch.max_attempts must be > 0")
	}
	if c.Fetch.RelayEnabled && c.Fetch.RelayAPIKey == "" {
		return fmt.Errorf("fetch.relay_api_key must be set when the relay is enabled")
	}
	if c.Crawler.MaxPagesPerPortal <= 0 {
		return fmt.Errorf("crawler.max_pages_per_portal must be > 0")
	}
	if c.Crawler.PortalWorkers <= 0 {
		return fmt.Errorf("crawler.portal_workers must be > 0")
	}
	if c.Crawler.MaxPortals <= 0 {
		return fmt.Errorf("crawler.max_portals must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	switch c.Store.Provider {
	case "noop", "postgres":
	default:
		return fmt.Errorf("unknown store provider: %s", c.Store.Provider)
	}
	if c.Store.Provider == "postgres" && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn must be set when store.provider is postgres")
	}
	if c.Archive.Enabled && c.Archive.Dir == "" {
		return fmt.Errorf("archive.dir must be set when the archive is enabled")
	}
	return nil
}

// FetchTimeout returns the per-call fetch timeout as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// RunBudget returns the wall-clock budget for one discovery run.
func (c Config) RunBudget() time.Duration {
	return time.Duration(c.Crawler.RunBudgetSeconds) * time.Second
}
