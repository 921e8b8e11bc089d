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

package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jeremyhahn/go-keyctl/internal/config"
)

// Flag names shared by the root command and Config.Settings
const (
	flagConfig          = "config"
	flagOutput          = "output"
	flagVerbose         = "verbose"
	flagKeepGoing       = "keep-going"
	flagEcho            = "echo"
	flagMetricsTextfile = "metrics-textfile"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string

	// OutputFormat controls output formatting (text, json)
	OutputFormat string

	// Verbose enables debug logging
	Verbose bool

	// KeepGoing continues a script past failing statements
	KeepGoing bool

	// Echo prints the result of every script statement
	Echo bool

	// MetricsTextfile is where metrics are written on exit
	MetricsTextfile string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: "text",
	}
}

// Settings loads the configuration file and applies the flags the user
// set explicitly on top of it. Flags left at their defaults never
// override the file or the environment.
func (c *Config) Settings(flags *pflag.FlagSet) (*config.Config, error) {
	settings, err := config.Load(c.ConfigFile)
	if err != nil {
		return nil, err
	}

	if flags.Changed(flagOutput) {
		settings.Output = c.OutputFormat
	}
	if flags.Changed(flagVerbose) && c.Verbose {
		settings.Logging.Level = "debug"
	}
	if flags.Changed(flagKeepGoing) {
		settings.Script.KeepGoing = c.KeepGoing
	}
	if flags.Changed(flagEcho) {
		settings.Script.Echo = c.Echo
	}
	if flags.Changed(flagMetricsTextfile) {
		settings.Metrics.Textfile = c.MetricsTextfile
		settings.Metrics.Enabled = c.MetricsTextfile != "" || settings.Metrics.Enabled
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return settings, nil
}
