// ============================================================================
// Dynapool Config - YAML Configuration Loading
// ============================================================================
//
// Package: internal/config
// File: config.go
// Purpose: Load the pool/metrics/log settings poolctl needs at startup from a
//          YAML file, with defaults sane enough to run with no file at all.
//
// ============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete poolctl configuration structure.
type Config struct {
	Pool struct {
		InitialSize int `yaml:"initial_size"`
		Lower       int `yaml:"lower"`
		Upper       int `yaml:"upper"` // -1 means unbounded
	} `yaml:"pool"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns a Config with the same defaults a bare pool.New(0) and
// logging.New("info") would give you, for callers that run without a file.
func Default() *Config {
	cfg := &Config{}
	cfg.Pool.InitialSize = 0
	cfg.Pool.Lower = 0
	cfg.Pool.Upper = -1
	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = 9090
	cfg.Log.Level = "info"
	return cfg
}

// Load reads and parses a YAML config file at path, layering it over
// Default() so a partial file only needs to set the fields it cares about.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	return cfg, nil
}
