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
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func newTestFlags(c *Config) *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringVar(&c.ConfigFile, flagConfig, "", "")
	flags.StringVarP(&c.OutputFormat, flagOutput, "o", "text", "")
	flags.BoolVarP(&c.Verbose, flagVerbose, "v", false, "")
	flags.BoolVar(&c.KeepGoing, flagKeepGoing, false, "")
	flags.BoolVar(&c.Echo, flagEcho, false, "")
	flags.StringVar(&c.MetricsTextfile, flagMetricsTextfile, "", "")
	return flags
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.OutputFormat != "text" {
		t.Errorf("OutputFormat = %v, want text", cfg.OutputFormat)
	}
	if cfg.Verbose {
		t.Error("Verbose should be false by default")
	}
	if cfg.ConfigFile != "" {
		t.Errorf("ConfigFile should be empty by default, got %v", cfg.ConfigFile)
	}
}

func TestConfig_SettingsWithoutFlags(t *testing.T) {
	cfg := NewConfig()
	flags := newTestFlags(cfg)
	if err := flags.Parse(nil); err != nil {
		t.Fatal(err)
	}

	settings, err := cfg.Settings(flags)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if settings.Output != "text" || settings.Logging.Level != "info" {
		t.Errorf("Settings() = %+v, want defaults", settings)
	}
}

func TestConfig_SettingsFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyctl.yaml")
	content := "output: json\nscript:\n  keep_going: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		args          []string
		wantOutput    string
		wantKeepGoing bool
		wantLevel     string
	}{
		{"file only", []string{"--config", path}, "json", true, "info"},
		{"output flag", []string{"--config", path, "-o", "text"}, "text", true, "info"},
		{"keep-going off", []string{"--config", path, "--keep-going=false"}, "json", false, "info"},
		{"verbose", []string{"--config", path, "-v"}, "json", true, "debug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			flags := newTestFlags(cfg)
			if err := flags.Parse(tt.args); err != nil {
				t.Fatal(err)
			}

			settings, err := cfg.Settings(flags)
			if err != nil {
				t.Fatalf("Settings() error = %v", err)
			}
			if settings.Output != tt.wantOutput {
				t.Errorf("Output = %v, want %v", settings.Output, tt.wantOutput)
			}
			if settings.Script.KeepGoing != tt.wantKeepGoing {
				t.Errorf("KeepGoing = %v, want %v", settings.Script.KeepGoing, tt.wantKeepGoing)
			}
			if settings.Logging.Level != tt.wantLevel {
				t.Errorf("Logging.Level = %v, want %v", settings.Logging.Level, tt.wantLevel)
			}
		})
	}
}

func TestConfig_SettingsMetricsTextfileEnablesMetrics(t *testing.T) {
	cfg := NewConfig()
	flags := newTestFlags(cfg)
	if err := flags.Parse([]string{"--metrics-textfile", "/tmp/keyctl.prom"}); err != nil {
		t.Fatal(err)
	}

	settings, err := cfg.Settings(flags)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if !settings.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
}

func TestConfig_SettingsInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"output", []string{"-o", "table"}},
		{"textfile", []string{"--metrics-textfile", "/tmp/keyctl.txt"}},
		{"missing config", []string{"--config", "/nonexistent/keyctl.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			flags := newTestFlags(cfg)
			if err := flags.Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			if _, err := cfg.Settings(flags); err == nil {
				t.Error("Settings() error = nil, want error")
			}
		})
	}
}
