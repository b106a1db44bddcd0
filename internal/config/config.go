// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration structure
type Config struct {
	App         AppConfig         `yaml:"app"`
	Local       LocalConfig       `yaml:"local"`
	Remote      RemoteConfig      `yaml:"remote"`
	Persistence PersistenceConfig `yaml:"persistence"`
	System      SystemConfig      `yaml:"system"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	// DataSource selects where collections are durably stored. The selection
	// is explicit; the engine never falls back between sources at runtime.
	DataSource string `yaml:"data_source"` // "local" or "remote"
}

// LocalConfig configures the SQLite-backed durable cache
type LocalConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// RemoteConfig configures the remote API data source
type RemoteConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RateLimit      int    `yaml:"rate_limit"` // requests per second
}

// PersistenceConfig contains worker pool settings for durable writes
type PersistenceConfig struct {
	Workers    int `yaml:"workers"`
	QueueDepth int `yaml:"queue_depth"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel string `yaml:"log_level"`
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	MetricsPort   int  `yaml:"metrics_port"`
	EnableMetrics bool `yaml:"enable_metrics"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfig loads configuration from a YAML file with environment variable expansion
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.App.DataSource == "" {
		c.App.DataSource = "local"
	}
	if c.Local.DatabasePath == "" {
		c.Local.DatabasePath = "pos.db"
	}
	if c.Remote.TimeoutSeconds <= 0 {
		c.Remote.TimeoutSeconds = 10
	}
	if c.Remote.RateLimit <= 0 {
		c.Remote.RateLimit = 20
	}
	// A single worker preserves the order durable writes are applied in
	if c.Persistence.Workers <= 0 {
		c.Persistence.Workers = 1
	}
	if c.Persistence.QueueDepth <= 0 {
		c.Persistence.QueueDepth = 256
	}
	if c.System.LogLevel == "" {
		c.System.LogLevel = "INFO"
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errs []string

	if err := c.validateAppConfig(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.validateRemoteConfig(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.validateSystemConfig(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}

func (c *Config) validateAppConfig() error {
	validSources := []string{"local", "remote"}
	if !contains(validSources, c.App.DataSource) {
		return ValidationError{
			Field:   "app.data_source",
			Value:   c.App.DataSource,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validSources, ", ")),
		}
	}
	return nil
}

func (c *Config) validateRemoteConfig() error {
	if c.App.DataSource != "remote" {
		return nil
	}
	if c.Remote.BaseURL == "" {
		return ValidationError{
			Field:   "remote.base_url",
			Message: "base URL is required when the remote data source is selected",
		}
	}
	return nil
}

func (c *Config) validateSystemConfig() error {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	if !contains(validLevels, strings.ToUpper(c.System.LogLevel)) {
		return ValidationError{
			Field:   "system.log_level",
			Value:   c.System.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		}
	}
	return nil
}

// String returns a string representation of the configuration with secrets masked
func (c *Config) String() string {
	configCopy := *c
	configCopy.Remote.APIKey = maskString(configCopy.Remote.APIKey)

	data, _ := yaml.Marshal(configCopy)
	return string(data)
}

// Helper functions

func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func maskString(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

// DefaultConfig returns a default configuration for testing
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			DataSource: "local",
		},
		Local: LocalConfig{
			DatabasePath: "pos.db",
		},
		Remote: RemoteConfig{
			TimeoutSeconds: 10,
			RateLimit:      20,
		},
		Persistence: PersistenceConfig{
			Workers:    1,
			QueueDepth: 256,
		},
		System: SystemConfig{
			LogLevel: "INFO",
		},
		Telemetry: TelemetryConfig{
			MetricsPort:   9090,
			EnableMetrics: false,
		},
	}
}
