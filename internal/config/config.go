// Package config loads the console configuration from YAML with
// BACKOFFICE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"backoffice/internal/application/listutil"
	"backoffice/internal/application/listview"
	"backoffice/internal/domain/operator"
	"backoffice/internal/domain/session"
)

// Config holds all console configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	Console     ConsoleConfig     `yaml:"console"`
	Operators   []OperatorConfig  `yaml:"operators"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	Env  string `yaml:"env"` // development, production
	// CSRFKey is the 32-byte key for CSRF tokens, hex encoded.
	CSRFKey    string `yaml:"csrf_key"`
	SessionTTL string `yaml:"session_ttl"`
	// RateLimit is sustained requests per second per client IP.
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// MarketplaceConfig configures the upstream REST client.
type MarketplaceConfig struct {
	BaseURL     string            `yaml:"base_url"`
	Timeout     string            `yaml:"timeout"`
	RateLimit   float64           `yaml:"rate_limit"`
	Burst       int               `yaml:"burst"`
	Headers     map[string]string `yaml:"headers"`
	TokenSecret string            `yaml:"token_secret"`
	TokenIssuer string            `yaml:"token_issuer"`
	TokenTTL    string            `yaml:"token_ttl"`

	// Token is a fixed bearer token, used when no TokenSecret is set.
	Token string `yaml:"token"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path      string `yaml:"path"`
	SlowQuery string `yaml:"slow_query"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// ConsoleConfig carries list and form behaviour.
type ConsoleConfig struct {
	PageSize        int    `yaml:"page_size"`
	SearchDebounce  string `yaml:"search_debounce"`
	SelectionPolicy string `yaml:"selection_policy"`
}

// OperatorConfig declares one operator allowed to sign in.
type OperatorConfig struct {
	Email        string `yaml:"email"`
	PasswordHash string `yaml:"password_hash"`
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	Role         string `yaml:"role"`
	Bio          string `yaml:"bio"`
	Avatar       string `yaml:"avatar"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:       ":8080",
			Env:        "development",
			SessionTTL: "24h",
			RateLimit:  20,
			RateBurst:  40,
		},
		Marketplace: MarketplaceConfig{
			BaseURL:     "http://localhost:9000",
			Timeout:     "15s",
			RateLimit:   50,
			Burst:       10,
			TokenIssuer: "backoffice",
			TokenTTL:    "5m",
		},
		Database: DatabaseConfig{
			Path:      "backoffice.db",
			SlowQuery: "50ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Console: ConsoleConfig{
			PageSize:        listutil.DefaultPageSize,
			SearchDebounce:  "500ms",
			SelectionPolicy: string(listview.SelectionClear),
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults;
// environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides(os.Getenv)
	return cfg, nil
}

// applyEnvOverrides applies BACKOFFICE_* environment variables.
func (c *Config) applyEnvOverrides(getenv func(string) string) {
	set := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set("BACKOFFICE_ADDR", &c.Server.Addr)
	set("BACKOFFICE_ENV", &c.Server.Env)
	set("BACKOFFICE_CSRF_KEY", &c.Server.CSRFKey)
	set("BACKOFFICE_SESSION_TTL", &c.Server.SessionTTL)
	set("BACKOFFICE_MARKETPLACE_URL", &c.Marketplace.BaseURL)
	set("BACKOFFICE_MARKETPLACE_TIMEOUT", &c.Marketplace.Timeout)
	set("BACKOFFICE_TOKEN_SECRET", &c.Marketplace.TokenSecret)
	set("BACKOFFICE_MARKETPLACE_TOKEN", &c.Marketplace.Token)
	set("BACKOFFICE_DB", &c.Database.Path)
	set("BACKOFFICE_SLOW_QUERY", &c.Database.SlowQuery)
	set("BACKOFFICE_LOG_LEVEL", &c.Logging.Level)
	set("BACKOFFICE_LOG_FORMAT", &c.Logging.Format)
	set("BACKOFFICE_SELECTION_POLICY", &c.Console.SelectionPolicy)
	if v := getenv("BACKOFFICE_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Console.PageSize = n
		}
	}
}

// IsProduction reports whether the console runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetSessionTTL returns the session lifetime.
func (c *Config) GetSessionTTL() time.Duration { return duration(c.Server.SessionTTL, 24*time.Hour) }

// GetMarketplaceTimeout returns the upstream request timeout.
func (c *Config) GetMarketplaceTimeout() time.Duration {
	return duration(c.Marketplace.Timeout, 15*time.Second)
}

// GetTokenTTL returns the lifetime of signed service tokens.
func (c *Config) GetTokenTTL() time.Duration { return duration(c.Marketplace.TokenTTL, 5*time.Minute) }

// GetSlowQuery returns the slow query threshold.
func (c *Config) GetSlowQuery() time.Duration { return duration(c.Database.SlowQuery, 50*time.Millisecond) }

// GetSearchDebounce returns the typeahead debounce window.
func (c *Config) GetSearchDebounce() time.Duration {
	return duration(c.Console.SearchDebounce, 500*time.Millisecond)
}

// OperatorList converts the configured operators to domain values.
func (c *Config) OperatorList() []operator.Operator {
	out := make([]operator.Operator, 0, len(c.Operators))
	for _, o := range c.Operators {
		out = append(out, operator.Operator{
			Email:        strings.ToLower(strings.TrimSpace(o.Email)),
			PasswordHash: o.PasswordHash,
			FirstName:    o.FirstName,
			LastName:     o.LastName,
			Role:         session.Role(strings.ToUpper(o.Role)),
			Bio:          o.Bio,
			Avatar:       o.Avatar,
		})
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" {
		errs = append(errs, fmt.Errorf("server.env must be development or production, got %q", c.Server.Env))
	}
	if c.IsProduction() && len(c.Server.CSRFKey) != 64 {
		errs = append(errs, errors.New("server.csrf_key must be 64 hex characters in production"))
	}
	u, err := url.Parse(c.Marketplace.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("marketplace.base_url must be an absolute http(s) URL, got %q", c.Marketplace.BaseURL))
	}
	if c.Marketplace.RateLimit < 0 {
		errs = append(errs, errors.New("marketplace.rate_limit cannot be negative"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if !listutil.ValidPageSize(c.Console.PageSize) {
		errs = append(errs, fmt.Errorf("console.page_size must be one of %v", listutil.PageSizeOptions))
	}
	if _, err := listview.ParseSelectionPolicy(c.Console.SelectionPolicy); err != nil {
		errs = append(errs, fmt.Errorf("console.selection_policy: %w", err))
	}
	seen := map[string]bool{}
	for i, o := range c.OperatorList() {
		if err := o.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("operators[%d]: %w", i, err))
		}
		if o.PasswordHash == "" {
			errs = append(errs, fmt.Errorf("operators[%d]: password_hash is required", i))
		}
		if seen[o.Email] {
			errs = append(errs, fmt.Errorf("operators[%d]: duplicate email %s", i, o.Email))
		}
		seen[o.Email] = true
	}
	return errors.Join(errs...)
}
