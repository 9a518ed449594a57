package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultBaseURL is the OpenAI-compatible gateway the tutor talks to.
	DefaultBaseURL = "https://ai.gateway.lovable.dev/v1"

	// DefaultModel is the model requested from the gateway.
	DefaultModel = "google/gemini-2.5-flash"
)

// Config holds upstream gateway configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	// Temperature and MaxTokens are fixed for every tutor request.
	// Default: 0.25 / 700.
	Temperature float64
	MaxTokens   int

	// Timeout bounds the wait for upstream response headers. Streaming
	// of the body is bounded by the caller's context only. Default: 60s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with the tutor's sampling policy.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Model:       DefaultModel,
		Temperature: 0.25,
		MaxTokens:   700,
		Timeout:     60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values. The API key is read from
// BUDDY_UPSTREAM_API_KEY, then LOVABLE_API_KEY.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv overrides cfg with any BUDDY_UPSTREAM_* variables that are set.
func ApplyEnv(cfg *Config) {
	if k := os.Getenv("BUDDY_UPSTREAM_API_KEY"); k != "" {
		cfg.APIKey = k
	} else if k := os.Getenv("LOVABLE_API_KEY"); k != "" {
		cfg.APIKey = k
	}
	if u := os.Getenv("BUDDY_UPSTREAM_BASE_URL"); u != "" {
		cfg.BaseURL = u
	}
	if m := os.Getenv("BUDDY_UPSTREAM_MODEL"); m != "" {
		cfg.Model = m
	}
	if t := os.Getenv("BUDDY_UPSTREAM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("BUDDY_UPSTREAM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTokens = n
		}
	}
}

// Validate checks the static settings. A missing API key is not a
// validation error: the proxy reports it per request so the server can
// start and answer health checks without the secret.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("upstream base URL is required")
	}
	if c.Model == "" {
		return fmt.Errorf("upstream model is required")
	}
	// A zero temperature is dropped from the wire request and the gateway
	// would apply its own default.
	if c.Temperature <= 0 || c.Temperature > 1 {
		return fmt.Errorf("upstream temperature %.2f out of range (0,1]", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("upstream max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
