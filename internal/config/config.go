// Package config loads quiver's server configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the complete quiver server configuration.
type Config struct {
	// Port is the HTTP listen port for the collection registry's server.
	Port int `yaml:"port" json:"port"`

	// DataDir is the directory holding one snapshot file per collection.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// LogLevel is the minimum slog level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BM25 holds the default scoring parameters applied to collections
	// created without explicit overrides. Changing these does not affect
	// already-persisted collections; k1/b are never part of the snapshot.
	BM25 BM25Defaults `yaml:"bm25" json:"bm25"`
}

// BM25Defaults configures the Okapi BM25 constants used for newly created
// collections.
type BM25Defaults struct {
	K1 float64 `yaml:"k1" json:"k1"`
	B  float64 `yaml:"b" json:"b"`
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Port:     3000,
		DataDir:  "./data",
		LogLevel: "info",
		BM25: BM25Defaults{
			K1: 1.5,
			B:  0.75,
		},
	}
}

// Load builds configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. quiver.yaml in dir, if present
//  3. QUIVER_* environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile attempts to load configuration from quiver.yaml or quiver.yml.
func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{"quiver.yaml", "quiver.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.BM25.K1 != 0 {
		c.BM25.K1 = other.BM25.K1
	}
	if other.BM25.B != 0 {
		c.BM25.B = other.BM25.B
	}
}

// applyEnvOverrides applies QUIVER_* environment variables, which take
// precedence over both defaults and any config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("QUIVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := os.Getenv("QUIVER_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("QUIVER_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks the configuration for obviously invalid values.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.BM25.K1 < 0 {
		return fmt.Errorf("bm25.k1 must be non-negative")
	}
	if c.BM25.B < 0 || c.BM25.B > 1 {
		return fmt.Errorf("bm25.b must be within [0, 1]")
	}
	return nil
}

// WriteYAML writes the configuration to path as YAML.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
