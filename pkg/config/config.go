// Package config loads runtime settings from a YAML file with environment
// overrides. All components receive their settings from here; none read the
// environment directly.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before the file and environment are consulted.
const (
	defaultOracleTimeout = 30 * time.Second
	defaultSearchTimeout = 10 * time.Second
	defaultExecTimeout   = 5 * time.Second
)

// Config defines runtime settings for quadrant.
type Config struct {
	Oracle   OracleConfig `yaml:"oracle"`
	Search   SearchConfig `yaml:"search"`
	Server   ServerConfig `yaml:"server"`
	Exec     ExecConfig   `yaml:"exec"`
	LogLevel string       `yaml:"logLevel"`
	GatePath string       `yaml:"gatePolicyPath"`
}

// OracleConfig selects and configures the text-generation provider.
type OracleConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	Timeout  string `yaml:"timeout"`
}

// SearchConfig configures the web search provider chain.
type SearchConfig struct {
	SerperAPIKey string `yaml:"serperApiKey"`
	Timeout      string `yaml:"timeout"`
	MaxResults   int    `yaml:"maxResults"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// ExecConfig bounds sandboxed script execution.
type ExecConfig struct {
	Timeout string `yaml:"timeout"`
}

// Load reads configuration from a YAML file (optional) and applies
// environment overrides on top of built-in defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Search:   SearchConfig{MaxResults: 5},
		Server:   ServerConfig{Address: "0.0.0.0:8000"},
		Oracle:   OracleConfig{Provider: "openai"},
		LogLevel: "info",
	}

	// An explicitly named file must exist; the default location is optional.
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case explicit || !os.IsNotExist(err):
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("QUADRANT_PROVIDER"); v != "" {
		c.Oracle.Provider = v
	}
	if v := os.Getenv("QUADRANT_MODEL"); v != "" {
		c.Oracle.Model = v
	}
	if v := os.Getenv("QUADRANT_ADDR"); v != "" {
		c.Server.Address = v
	}
	if v := os.Getenv("QUADRANT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("QUADRANT_GATE_POLICY"); v != "" {
		c.GatePath = v
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		c.Search.SerperAPIKey = v
	}
	// Provider keys: an explicit key in the file wins, otherwise pick up the
	// conventional variable for the configured provider.
	if c.Oracle.APIKey == "" {
		switch c.Oracle.Provider {
		case "anthropic":
			c.Oracle.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			c.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// OracleTimeout returns the parsed oracle call timeout.
func (c *Config) OracleTimeout() time.Duration {
	return parseTimeout(c.Oracle.Timeout, defaultOracleTimeout)
}

// SearchTimeout returns the parsed per-provider search timeout.
func (c *Config) SearchTimeout() time.Duration {
	return parseTimeout(c.Search.Timeout, defaultSearchTimeout)
}

// ExecTimeout returns the parsed sandbox wall-clock budget.
func (c *Config) ExecTimeout() time.Duration {
	return parseTimeout(c.Exec.Timeout, defaultExecTimeout)
}

func parseTimeout(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// DefaultPath returns the default location for the config file.
func DefaultPath() string {
	if path := os.Getenv("QUADRANT_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".quadrant", "config.yaml")
}
