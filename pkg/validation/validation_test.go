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

package validation

import (
	"strings"
	"testing"
)

func TestValidateCString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "user", false},
		{"empty", "", false},
		{"description with separators", "ring;key:1", false},
		{"unicode", "clé", false},
		{"null byte middle", "a\x00b", true},
		{"null byte end", "abc\x00", true},
		{"null byte only", "\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateVariableName(t *testing.T) {
	tests := []struct {
		name     string
		variable string
		wantErr  bool
	}{
		// Valid names
		{"simple", "key", false},
		{"with underscore", "my_key", false},
		{"with dash", "my-key", false},
		{"leading underscore", "_tmp", false},
		{"digits after first", "k1", false},

		// Invalid names
		{"empty string", "", true},
		{"leading digit", "1key", true},
		{"leading dash", "-key", true},
		{"space", "my key", true},
		{"dollar", "my$key", true},
		{"equals", "a=b", true},
		{"null byte", "key\x00", true},
		{"too long", strings.Repeat("a", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVariableName(tt.variable)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVariableName(%q) error = %v, wantErr %v", tt.variable, err, tt.wantErr)
			}
		})
	}
}

func TestValidateTextfilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"absolute", "/var/lib/node_exporter/keyctl.prom", false},
		{"relative", "keyctl.prom", false},
		{"empty", "", true},
		{"wrong extension", "/tmp/keyctl.txt", true},
		{"no extension", "/tmp/keyctl", true},
		{"null byte", "/tmp/a\x00.prom", true},
		{"parent reference", "../keyctl.prom", true},
		{"parent reference middle", "/var/../etc/keyctl.prom", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTextfilePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTextfilePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean string", "hello world", "hello world"},
		{"with newline", "hello\nworld", "helloworld"},
		{"with tab", "hello\tworld", "helloworld"},
		{"with null byte", "hello\x00world", "helloworld"},
		{"with del character", "hello\x7fworld", "helloworld"},
		{"with multiple controls", "hello\n\r\t\x00world", "helloworld"},
		{"very long string", strings.Repeat("a", 1500), strings.Repeat("a", 1000) + "...[truncated]"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeForLog(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeForLog(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// Benchmark tests
func BenchmarkValidateCString(b *testing.B) {
	s := "user;1000;1000;3f010000;my-key"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateCString(s)
	}
}

func BenchmarkValidateVariableName(b *testing.B) {
	name := "session_keyring"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateVariableName(name)
	}
}

func BenchmarkSanitizeForLog(b *testing.B) {
	input := "hello world with some text"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = SanitizeForLog(input)
	}
}

// Security tests - specifically test attack vectors
func TestSecurityAttackVectors(t *testing.T) {
	attackVectors := []struct {
		name   string
		input  string
		testFn func(string) error
	}{
		// Truncation attacks
		{"null byte description", "harmless\x00other", ValidateCString},
		{"null byte variable", "key\x00", ValidateVariableName},

		// Path traversal attacks
		{"path traversal textfile", "../../etc/cron.d/x.prom", ValidateTextfilePath},

		// Command injection attempts
		{"command injection variable 1", "key;rm -rf /", ValidateVariableName},
		{"command injection variable 2", "key`whoami`", ValidateVariableName},
		{"command injection variable 3", "key$(whoami)", ValidateVariableName},

		// Log injection attempts
		{"log injection newline", "key\nINFO: fake log", ValidateVariableName},
		{"log injection carriage return", "key\rINFO: fake", ValidateVariableName},

		// Unicode attacks
		{"unicode normalization", "key\u202e", ValidateVariableName}, // Right-to-left override
	}

	for _, tt := range attackVectors {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.testFn(tt.input)
			if err == nil {
				t.Errorf("Attack vector %q was not blocked!", tt.input)
			}
		})
	}
}
