package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ModeOnce = "once"
	ModeCron = "cron"
)

// Config holds the application configuration.
type Config struct {
	Mode       string `mapstructure:"SCRAPER_MODE"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	ConnectaAPIURL     string  `mapstructure:"CONNECTA_API_URL"`
	ConnectaAPIKey     string  `mapstructure:"CONNECTA_API_KEY"`
	BackendRPS         float64 `mapstructure:"BACKEND_RPS"`
	HTTPTimeoutSeconds int     `mapstructure:"HTTP_TIMEOUT_SECONDS"`

	IntervalHours          int    `mapstructure:"SCRAPE_INTERVAL_HOURS"`
	MaxRetries             int    `mapstructure:"SCRAPE_MAX_RETRIES"`
	RetryDelayMS           int    `mapstructure:"SCRAPE_RETRY_DELAY_MS"`
	PolitenessDelayMS      int    `mapstructure:"SCRAPE_POLITENESS_DELAY_MS"`
	PageLoadTimeoutSeconds int    `mapstructure:"PAGE_LOAD_TIMEOUT_SECONDS"`
	EnabledScrapers        string `mapstructure:"ENABLED_SCRAPERS"`
	SiteProfilesFile       string `mapstructure:"SITE_PROFILES_FILE"`
	ProxyURLs              string `mapstructure:"PROXY_URLS"`

	StaleAfterDays   int `mapstructure:"STALE_AFTER_DAYS"`
	ActiveWithinDays int `mapstructure:"ACTIVE_WITHIN_DAYS"`

	RunLockTTLMinutes int `mapstructure:"RUN_LOCK_TTL_MINUTES"`

	PostgresURL   string `mapstructure:"POSTGRES_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
}

var defaults = map[string]any{
	"SCRAPER_MODE": ModeOnce,
	"LOG_LEVEL":    "info",
	"SERVER_PORT":  "8080",

	"CONNECTA_API_URL":     "http://localhost:5000/api",
	"CONNECTA_API_KEY":     "",
	"BACKEND_RPS":          20.0,
	"HTTP_TIMEOUT_SECONDS": 30,

	"SCRAPE_INTERVAL_HOURS":      6,
	"SCRAPE_MAX_RETRIES":         3,
	"SCRAPE_RETRY_DELAY_MS":      5000,
	"SCRAPE_POLITENESS_DELAY_MS": 500,
	"PAGE_LOAD_TIMEOUT_SECONDS":  60,
	"ENABLED_SCRAPERS":           "",
	"SITE_PROFILES_FILE":         "",
	"PROXY_URLS":                 "",

	"STALE_AFTER_DAYS":   14,
	"ACTIVE_WITHIN_DAYS": 7,

	"RUN_LOCK_TTL_MINUTES": 120,

	"POSTGRES_URL":   "",
	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env-file path. A missing file is not an error,
// so production can configure purely through environment variables.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(strings.TrimSpace(c.ConnectaAPIURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("CONNECTA_API_URL must be an absolute http(s) URL, got %q", c.ConnectaAPIURL))
	}
	if c.IntervalHours < 1 || c.IntervalHours > 23 {
		errs = append(errs, fmt.Errorf("SCRAPE_INTERVAL_HOURS must be between 1 and 23, got %d", c.IntervalHours))
	}
	if c.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("SCRAPE_MAX_RETRIES must be positive, got %d", c.MaxRetries))
	}
	if c.RetryDelayMS < 0 || c.PolitenessDelayMS < 0 {
		errs = append(errs, errors.New("delays must not be negative"))
	}
	if c.PageLoadTimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("PAGE_LOAD_TIMEOUT_SECONDS must be positive, got %d", c.PageLoadTimeoutSeconds))
	}
	if c.HTTPTimeoutSeconds < 1 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSeconds))
	}
	if c.RunLockTTLMinutes < 1 {
		errs = append(errs, fmt.Errorf("RUN_LOCK_TTL_MINUTES must be positive, got %d", c.RunLockTTLMinutes))
	}
	if c.StaleAfterDays < 1 || c.ActiveWithinDays < 1 {
		errs = append(errs, errors.New("STALE_AFTER_DAYS and ACTIVE_WITHIN_DAYS must be positive"))
	}
	switch c.Mode {
	case ModeOnce, ModeCron:
	default:
		errs = append(errs, fmt.Errorf("SCRAPER_MODE must be %q or %q, got %q", ModeOnce, ModeCron, c.Mode))
	}
	return errors.Join(errs...)
}

// CronSpec is the standard five-field expression firing every IntervalHours hours.
func (c *Config) CronSpec() string {
	return fmt.Sprintf("0 */%d * * *", c.IntervalHours)
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMS) * time.Millisecond
}

func (c *Config) PolitenessDelay() time.Duration {
	return time.Duration(c.PolitenessDelayMS) * time.Millisecond
}

func (c *Config) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutSeconds) * time.Second
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// RunLockTTL bounds how long the shared run lock survives without renewal.
func (c *Config) RunLockTTL() time.Duration {
	return time.Duration(c.RunLockTTLMinutes) * time.Minute
}

func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterDays) * 24 * time.Hour
}

func (c *Config) ActiveWithin() time.Duration {
	return time.Duration(c.ActiveWithinDays) * 24 * time.Hour
}

// Enabled returns the scraper names selected by ENABLED_SCRAPERS; empty means all.
func (c *Config) Enabled() []string {
	return splitList(c.EnabledScrapers)
}

func (c *Config) Proxies() []string {
	return splitList(c.ProxyURLs)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
