// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, DOCDASH_ prefix)
//  2. Config file (~/.docdash/config.yaml)
//  3. Default values
//
// The backend also exposes a small public configuration document
// (project name, vault feature flag). It is fetched once at startup and
// merged over the local defaults; see ApplyRemote. That fetch is
// best-effort: any failure leaves the local values in place.
//
// Security: the bearer token is never logged; it is masked in MarshalJSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidBackendURL indicates the backend base URL is missing or malformed.
	ErrInvalidBackendURL = errors.New("invalid backend URL")

	// ErrInvalidSearchLimit indicates the search result limit is out of range.
	ErrInvalidSearchLimit = errors.New("invalid search limit")

	// ErrInvalidTimeout indicates the request timeout is out of range.
	ErrInvalidTimeout = errors.New("invalid request timeout")

	// ErrInvalidRateLimit indicates the client rate limit is out of range.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

// Search limit bounds, matching what the backend accepts.
const (
	MinSearchLimit     = 1
	MaxSearchLimit     = 50
	DefaultSearchLimit = 10
)

// TracingConfig configures the OTLP trace exporter (agent mode).
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	AgentHost   string `mapstructure:"agent_host" json:"agent_host"`
	Environment string `mapstructure:"environment" json:"environment"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// Backend connection
	BackendURL     string `mapstructure:"backend_url" json:"backend_url"`
	Token          string `mapstructure:"token" json:"token"` // SENSITIVE: masked in MarshalJSON
	UserEmail      string `mapstructure:"user_email" json:"user_email"`
	RequestTimeout int    `mapstructure:"request_timeout" json:"request_timeout"` // seconds

	// Client-side rate limiting (requests per second, burst)
	RateLimit float64 `mapstructure:"rate_limit" json:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst" json:"rate_burst"`

	// Search defaults
	SearchLimit    int    `mapstructure:"search_limit" json:"search_limit"`
	GenerateAnswer bool   `mapstructure:"generate_answer" json:"generate_answer"`
	ReviewModel    string `mapstructure:"review_model" json:"review_model"`

	// Remote-sourced application settings (see ApplyRemote).
	// Local values act as defaults when the backend config fetch fails.
	ProjectName     string `mapstructure:"project_name" json:"project_name"`
	ObsidianEnabled bool   `mapstructure:"obsidian_enabled" json:"obsidian_enabled"`

	// Observability configuration
	Tracing TracingConfig `mapstructure:"tracing" json:"tracing"`
}

// Remote is the public configuration document served by the backend.
type Remote struct {
	ProjectName     string `json:"project_name"`
	ObsidianEnabled bool   `json:"obsidian_enabled"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".docdash")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("backend_url", "http://localhost:8000")
	viper.SetDefault("request_timeout", 30)
	viper.SetDefault("rate_limit", 10.0)
	viper.SetDefault("rate_burst", 20)

	viper.SetDefault("search_limit", DefaultSearchLimit)
	viper.SetDefault("generate_answer", true)
	viper.SetDefault("review_model", "sonnet-4")

	viper.SetDefault("project_name", "DocDash")
	viper.SetDefault("obsidian_enabled", false)

	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.agent_host", "localhost:4318")
	viper.SetDefault("tracing.environment", "dev")
	viper.SetDefault("tracing.service_name", "docdash")
}

// bindEnvVariables binds environment variables to configuration keys.
func bindEnvVariables() {
	viper.SetEnvPrefix("DOCDASH")
	_ = viper.BindEnv("backend_url")
	_ = viper.BindEnv("token")
	_ = viper.BindEnv("user_email")
	_ = viper.BindEnv("request_timeout")
	_ = viper.BindEnv("rate_limit")
	_ = viper.BindEnv("rate_burst")
	_ = viper.BindEnv("search_limit")
	_ = viper.BindEnv("generate_answer")
	_ = viper.BindEnv("review_model")
	_ = viper.BindEnv("tracing.enabled", "DOCDASH_TRACING_ENABLED")
	_ = viper.BindEnv("tracing.agent_host", "DOCDASH_TRACING_AGENT_HOST")
}

// Validate performs range checks on the configuration (fail-fast at startup).
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	u, err := url.Parse(c.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBackendURL, c.BackendURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidBackendURL, u.Scheme)
	}

	if c.SearchLimit < MinSearchLimit || c.SearchLimit > MaxSearchLimit {
		return fmt.Errorf("%w: %d (must be %d-%d)", ErrInvalidSearchLimit,
			c.SearchLimit, MinSearchLimit, MaxSearchLimit)
	}

	if c.RequestTimeout < 1 || c.RequestTimeout > 600 {
		return fmt.Errorf("%w: %ds (must be 1-600)", ErrInvalidTimeout, c.RequestTimeout)
	}

	if c.RateLimit <= 0 || c.RateBurst < 1 {
		return fmt.Errorf("%w: limit=%g burst=%d", ErrInvalidRateLimit, c.RateLimit, c.RateBurst)
	}

	return nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// ApplyRemote merges the backend-served public configuration over the
// local values. Callers treat the fetch as best-effort: when it fails,
// this is simply never called and the local defaults stand.
func (c *Config) ApplyRemote(r Remote) {
	if r.ProjectName != "" {
		c.ProjectName = r.ProjectName
	}
	c.ObsidianEnabled = r.ObsidianEnabled
}

// MarshalJSON masks sensitive fields.
func (c *Config) MarshalJSON() ([]byte, error) {
	type alias Config // avoid recursion
	masked := alias(*c)
	if masked.Token != "" {
		masked.Token = "***"
	}
	return json.Marshal(masked)
}
