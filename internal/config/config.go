// Package config loads buddy's configuration from an optional YAML file
// and BUDDY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/happylearn/buddy/internal/client"
	"github.com/happylearn/buddy/internal/llm"
	"github.com/happylearn/buddy/internal/logging"
	"github.com/happylearn/buddy/internal/proxy"
	"github.com/happylearn/buddy/internal/tutor"
)

// Config is the complete buddy configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Client   ClientConfig   `yaml:"client"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures `buddy serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`

	// RecordEvents stores one row per upstream call.
	RecordEvents bool `yaml:"record_events"`
}

// UpstreamConfig configures the OpenAI-compatible gateway.
type UpstreamConfig struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ClientConfig configures `buddy chat`.
type ClientConfig struct {
	URL     string `yaml:"url"`
	APIKey  string `yaml:"api_key"`
	UserID  string `yaml:"user_id"`
	Grade   string `yaml:"grade"`
	Subject string `yaml:"subject"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	// Path is the database file. Empty means the default location.
	Path string `yaml:"path"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// DefaultUserID keys chat history when no user is configured.
const DefaultUserID = "learner"

// Default returns the built-in configuration.
func Default() Config {
	up := llm.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Addr:            ":8787",
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    proxy.DefaultMaxBodyBytes,
			RecordEvents:    true,
		},
		Upstream: UpstreamConfig{
			BaseURL:     up.BaseURL,
			Model:       up.Model,
			Temperature: up.Temperature,
			MaxTokens:   up.MaxTokens,
			Timeout:     up.Timeout,
		},
		Client: ClientConfig{
			URL:     client.DefaultURL,
			UserID:  DefaultUserID,
			Grade:   tutor.DefaultGrade,
			Subject: tutor.DefaultSubject,
		},
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatJSON,
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies the
// environment. A missing file is not an error when path is empty or
// optional is true.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist) && optional:
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides cfg with BUDDY_* environment variables.
func (c *Config) ApplyEnv() {
	up := c.Upstream.LLM()
	llm.ApplyEnv(&up)
	c.Upstream = UpstreamConfig{
		BaseURL:     up.BaseURL,
		APIKey:      up.APIKey,
		Model:       up.Model,
		Temperature: up.Temperature,
		MaxTokens:   up.MaxTokens,
		Timeout:     up.Timeout,
	}

	setString(&c.Server.Addr, "BUDDY_ADDR")
	setString(&c.Client.URL, "BUDDY_URL")
	setString(&c.Client.APIKey, "BUDDY_CLIENT_API_KEY")
	setString(&c.Client.UserID, "BUDDY_USER_ID")
	setString(&c.Store.Path, "BUDDY_DB")
	setString(&c.Log.Level, "BUDDY_LOG_LEVEL")
	setString(&c.Log.Format, "BUDDY_LOG_FORMAT")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// LLM converts the upstream section to an llm.Config.
func (u UpstreamConfig) LLM() llm.Config {
	return llm.Config{
		BaseURL:     u.BaseURL,
		APIKey:      u.APIKey,
		Model:       u.Model,
		Temperature: u.Temperature,
		MaxTokens:   u.MaxTokens,
		Timeout:     u.Timeout,
	}
}

// ProxyOptions returns the proxy handler options.
func (c Config) ProxyOptions() proxy.Options {
	return proxy.Options{
		Temperature:  c.Upstream.Temperature,
		MaxTokens:    c.Upstream.MaxTokens,
		MaxBodyBytes: c.Server.MaxBodyBytes,
	}
}

// TutorContext returns the client's starting grade and subject.
func (c Config) TutorContext() tutor.Context {
	return tutor.Context{Grade: c.Client.Grade, Subject: c.Client.Subject}.WithDefaults()
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	if err := c.Upstream.LLM().Validate(); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}
	if c.Client.URL == "" {
		return fmt.Errorf("client.url is required")
	}
	if c.Client.Grade != "" && !tutor.IsKnownGrade(c.Client.Grade) {
		return fmt.Errorf("client.grade %q is not a CBC grade (Grade 1 - Grade 9)", c.Client.Grade)
	}
	switch c.Log.Format {
	case "", logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("log.format %q unknown (supported: %s, %s)", c.Log.Format, logging.FormatJSON, logging.FormatConsole)
	}
	return nil
}
