// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-keyctl.
//
// go-keyctl is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-keyctl/pkg/validation"
)

// Environment variables that override the configuration file
const (
	EnvLogLevel        = "KEYCTL_LOG_LEVEL"
	EnvLogFormat       = "KEYCTL_LOG_FORMAT"
	EnvOutput          = "KEYCTL_OUTPUT"
	EnvMetricsTextfile = "KEYCTL_METRICS_TEXTFILE"
	EnvKeepGoing       = "KEYCTL_KEEP_GOING"
)

// Config represents the complete command configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Output  string        `yaml:"output"` // text, json
	Metrics MetricsConfig `yaml:"metrics"`
	Script  ScriptConfig  `yaml:"script"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls metrics collection and export
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"` // node exporter textfile destination, written on exit
}

// ScriptConfig controls how scripts are run
type ScriptConfig struct {
	KeepGoing bool `yaml:"keep_going"` // continue past failing statements
	Echo      bool `yaml:"echo"`       // print every statement result

	// RatePerMinute throttles each procedure to this many calls per minute.
	// Zero disables throttling.
	RatePerMinute int `yaml:"rate_per_minute"`
	Burst         int `yaml:"burst"` // defaults to RatePerMinute
}

// Default returns a valid configuration used when no file is given
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: "text",
	}
}

// Load reads configuration from a YAML file and applies environment variable overrides.
// An empty path loads the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		// #nosec G304 - Config file path is provided by the user
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Parse YAML over the defaults so omitted keys keep them
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv(EnvLogFormat); format != "" {
		cfg.Logging.Format = format
	}
	if output := os.Getenv(EnvOutput); output != "" {
		cfg.Output = output
	}
	if textfile := os.Getenv(EnvMetricsTextfile); textfile != "" {
		cfg.Metrics.Textfile = textfile
		cfg.Metrics.Enabled = true
	}
	if keepGoing := os.Getenv(EnvKeepGoing); keepGoing != "" {
		value, err := strconv.ParseBool(keepGoing)
		if err != nil {
			log.Printf("Warning: invalid %s value %q, using %t: %v",
				EnvKeepGoing, keepGoing, cfg.Script.KeepGoing, err)
		} else {
			cfg.Script.KeepGoing = value
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate logging level
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	// Validate output format
	validOutputs := map[string]bool{
		"json": true, "text": true,
	}
	if !validOutputs[strings.ToLower(c.Output)] {
		return fmt.Errorf("invalid output format: %s (must be json or text)", c.Output)
	}

	// Validate metrics export
	if c.Metrics.Textfile != "" {
		if !c.Metrics.Enabled {
			return fmt.Errorf("metrics textfile requires metrics to be enabled")
		}
		if err := validation.ValidateTextfilePath(c.Metrics.Textfile); err != nil {
			return fmt.Errorf("invalid metrics textfile: %w", err)
		}
	}

	if c.Script.RatePerMinute < 0 {
		return fmt.Errorf("invalid script rate: %d (must not be negative)", c.Script.RatePerMinute)
	}
	if c.Script.Burst < 0 {
		return fmt.Errorf("invalid script burst: %d (must not be negative)", c.Script.Burst)
	}

	return nil
}
