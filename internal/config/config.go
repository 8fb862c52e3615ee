// Package config loads and validates siteaudit configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/siteaudit/internal/crawler"
	"github.com/JakeFAU/siteaudit/internal/report"
)

// EnvPrefix prefixes every environment override, e.g. SITEAUDIT_CRAWLER_CONCURRENCY.
const EnvPrefix = "SITEAUDIT"

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Finalize FinalizeConfig `mapstructure:"finalize"`
	Checks   ChecksConfig   `mapstructure:"checks"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// CrawlerConfig governs traversal and politeness.
type CrawlerConfig struct {
	UserAgent     string        `mapstructure:"user_agent"`
	Concurrency   int           `mapstructure:"concurrency"`
	Delay         time.Duration `mapstructure:"delay"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	MaxPages      int           `mapstructure:"max_pages"`
	DeniedPaths   []string      `mapstructure:"denied_paths"`
}

// HTTPConfig configures page fetching.
type HTTPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// FinalizeConfig bounds how long finalization waits for in-flight pages.
type FinalizeConfig struct {
	WaitBudget time.Duration `mapstructure:"wait_budget"`
}

// ChecksConfig tunes the per-page checks.
type ChecksConfig struct {
	BrokenLinks     bool          `mapstructure:"broken_links"`
	LinkTimeout     time.Duration `mapstructure:"link_timeout"`
	LinkDelay       time.Duration `mapstructure:"link_delay"`
	LinkConcurrency int           `mapstructure:"link_concurrency"`
	IgnoredDomains  []string      `mapstructure:"ignored_domains"`
	MaxContentPages int           `mapstructure:"max_content_pages"`
}

// ReportConfig selects report outputs.
type ReportConfig struct {
	OutputDir string   `mapstructure:"output_dir"`
	Basename  string   `mapstructure:"basename"`
	Formats   []string `mapstructure:"formats"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// MetricsConfig controls the optional metrics listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// NewViper returns a Viper instance with defaults and environment overrides applied.
// Callers may bind command flags to it before calling LoadFrom.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	return LoadFrom(NewViper(), path)
}

// LoadFrom reads the optional config file into v and unmarshals the merged result.
func LoadFrom(v *viper.Viper, path string) (Config, error) {
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
	v.SetDefault("crawler.user_agent", "siteaudit/1.0 (+https://github.com/JakeFAU/siteaudit)")
	v.SetDefault("crawler.concurrency", 1)
	v.SetDefault("crawler.delay", "0s")
	v.SetDefault("crawler.respect_robots", true)
	v.SetDefault("crawler.max_pages", 500)
	v.SetDefault("crawler.denied_paths", []string{"/wp-admin", "/wp-login.php"})
	v.SetDefault("http.timeout", "15s")
	v.SetDefault("http.max_redirects", 5)
	v.SetDefault("http.max_retries", 2)
	v.SetDefault("finalize.wait_budget", "10s")
	v.SetDefault("checks.broken_links", true)
	v.SetDefault("checks.link_timeout", "10s")
	v.SetDefault("checks.link_delay", "500ms")
	v.SetDefault("checks.link_concurrency", 4)
	v.SetDefault("checks.ignored_domains", []string{
		"twitter.com", "linkedin.com", "facebook.com", "instagram.com",
		"paypal.com", "designrush.com", "selecthub.com",
	})
	v.SetDefault("checks.max_content_pages", 5000)
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.basename", "report")
	v.SetDefault("report.formats", []string{"html"})
	v.SetDefault("logging.development", true)
	v.SetDefault("metrics.addr", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.Delay < 0 {
		return fmt.Errorf("crawler.delay must be >= 0")
	}
	if c.Crawler.MaxPages < 0 {
		return fmt.Errorf("crawler.max_pages must be >= 0")
	}
	if strings.TrimSpace(c.Crawler.UserAgent) == "" {
		return fmt.Errorf("crawler.user_agent must be set")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be > 0")
	}
	if c.HTTP.MaxRedirects < 0 {
		return fmt.Errorf("http.max_redirects must be >= 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Finalize.WaitBudget < 0 {
		return fmt.Errorf("finalize.wait_budget must be >= 0")
	}
	if c.Checks.BrokenLinks && c.Checks.LinkConcurrency <= 0 {
		return fmt.Errorf("checks.link_concurrency must be > 0 when broken link checks are enabled")
	}
	if c.Checks.MaxContentPages < 0 {
		return fmt.Errorf("checks.max_content_pages must be >= 0")
	}
	if _, err := report.ParseFormats(c.Report.Formats); err != nil {
		return fmt.Errorf("report.formats: %w", err)
	}
	return nil
}

// CrawlConfig converts the loaded settings into an engine configuration for one run.
func (c Config) CrawlConfig(mode crawler.Mode, seeds []string) crawler.Config {
	return crawler.Config{
		Mode:            mode,
		Seeds:           seeds,
		Concurrency:     c.Crawler.Concurrency,
		MaxPages:        c.Crawler.MaxPages,
		DeniedPaths:     c.Crawler.DeniedPaths,
		WaitBudget:      c.Finalize.WaitBudget,
		MaxContentPages: c.Checks.MaxContentPages,
	}
}
