package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/domain/session"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 24*time.Hour, cfg.GetSessionTTL())
	assert.Equal(t, 50*time.Millisecond, cfg.GetSlowQuery())
	assert.Equal(t, 500*time.Millisecond, cfg.GetSearchDebounce())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backoffice.yaml")
	yaml := `
server:
  addr: ":9090"
  session_ttl: 2h
marketplace:
  base_url: https://api.example.com
  headers:
    X-Tenant: acme
console:
  page_size: 50
  selection_policy: keep-visible
operators:
  - email: " Ada@Example.com "
    password_hash: "$2a$12$abc"
    first_name: Ada
    last_name: Lovelace
    role: admin
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 2*time.Hour, cfg.GetSessionTTL())
	assert.Equal(t, "acme", cfg.Marketplace.Headers["X-Tenant"])
	assert.Equal(t, 50, cfg.Console.PageSize)
	// untouched sections keep their defaults
	assert.Equal(t, "50ms", cfg.Database.SlowQuery)

	ops := cfg.OperatorList()
	require.Len(t, ops, 1)
	assert.Equal(t, "ada@example.com", ops[0].Email)
	assert.Equal(t, session.RoleAdmin, ops[0].Role)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"BACKOFFICE_ADDR":            ":7000",
		"BACKOFFICE_MARKETPLACE_URL": "http://upstream:8000",
		"BACKOFFICE_PAGE_SIZE":       "5",
		"BACKOFFICE_LOG_LEVEL":       "debug",
	}
	cfg := DefaultConfig()
	cfg.applyEnvOverrides(func(k string) string { return env[k] })

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "http://upstream:8000", cfg.Marketplace.BaseURL)
	assert.Equal(t, 5, cfg.Console.PageSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad env", func(c *Config) { c.Server.Env = "staging" }},
		{"production without csrf key", func(c *Config) { c.Server.Env = "production" }},
		{"relative base url", func(c *Config) { c.Marketplace.BaseURL = "/api" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"bad page size", func(c *Config) { c.Console.PageSize = 7 }},
		{"bad selection policy", func(c *Config) { c.Console.SelectionPolicy = "sometimes" }},
		{"operator without hash", func(c *Config) {
			c.Operators = []OperatorConfig{{Email: "a@b.c", Role: "USER"}}
		}},
		{"duplicate operator", func(c *Config) {
			op := OperatorConfig{Email: "a@b.c", Role: "USER", PasswordHash: "x"}
			c.Operators = []OperatorConfig{op, op}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurations_FallBackOnGarbage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Marketplace.Timeout = "soon"
	cfg.Marketplace.TokenTTL = "-1s"
	assert.Equal(t, 15*time.Second, cfg.GetMarketplaceTimeout())
	assert.Equal(t, 5*time.Minute, cfg.GetTokenTTL())
}
