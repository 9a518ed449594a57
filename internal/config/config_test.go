package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BUDDY_UPSTREAM_API_KEY", "LOVABLE_API_KEY", "BUDDY_UPSTREAM_BASE_URL",
		"BUDDY_UPSTREAM_MODEL", "BUDDY_UPSTREAM_TIMEOUT", "BUDDY_UPSTREAM_MAX_TOKENS",
		"BUDDY_ADDR", "BUDDY_URL", "BUDDY_CLIENT_API_KEY", "BUDDY_USER_ID",
		"BUDDY_DB", "BUDDY_LOG_LEVEL", "BUDDY_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestDefault_Validates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.25, cfg.Upstream.Temperature)
	assert.Equal(t, 700, cfg.Upstream.MaxTokens)
	assert.Equal(t, "Grade 1", cfg.Client.Grade)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "buddy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9000"
upstream:
  model: "openai/gpt-4o-mini"
  timeout: 15s
client:
  grade: "Grade 8"
  subject: "Kiswahili"
`), 0o644))

	cfg, err := Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Upstream.Model)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 700, cfg.Upstream.MaxTokens, "unset keys keep defaults")
	assert.Equal(t, "Grade 8", cfg.TutorContext().Grade)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := Load(path, false)
	assert.Error(t, err)

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))

	_, err := Load(path, false)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOVABLE_API_KEY", "secret")
	t.Setenv("BUDDY_ADDR", "127.0.0.1:8080")
	t.Setenv("BUDDY_USER_ID", "amani")

	cfg, err := Load("", true)
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Upstream.APIKey)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "amani", cfg.Client.UserID)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no addr", func(c *Config) { c.Server.Addr = "" }},
		{"bad temperature", func(c *Config) { c.Upstream.Temperature = 2 }},
		{"zero temperature", func(c *Config) { c.Upstream.Temperature = 0 }},
		{"unknown grade", func(c *Config) { c.Client.Grade = "Grade 12" }},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }},
		{"no client url", func(c *Config) { c.Client.URL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestProxyOptions(t *testing.T) {
	opts := Default().ProxyOptions()
	assert.Equal(t, 0.25, opts.Temperature)
	assert.Equal(t, 700, opts.MaxTokens)
	assert.Positive(t, opts.MaxBodyBytes)
}
