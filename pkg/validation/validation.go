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

// Package validation provides centralized input validation for go-keyctl.
// Strings handed to the kernel, script variable names and output paths all
// pass through here before they are used.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// variablePattern matches script variable names
	variablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)
)

// ValidateCString validates a string that will be passed to the kernel
// NUL-terminated. An embedded NUL byte would silently truncate it.
func ValidateCString(s string) error {
	if i := strings.IndexByte(s, 0); i >= 0 {
		return fmt.Errorf("string contains null byte at offset %d", i)
	}
	return nil
}

// ValidateVariableName validates a script variable name.
// - Rejecting empty strings
// - Enforcing length limits
// - Allowing only letters, digits, '_' and '-', not starting with a digit or '-'
func ValidateVariableName(name string) error {
	if name == "" {
		return fmt.Errorf("variable name cannot be empty")
	}

	// Check length before the pattern (prevent ReDoS)
	if len(name) > 255 {
		return fmt.Errorf("variable name too long (max 255 characters)")
	}

	if !variablePattern.MatchString(name) {
		return fmt.Errorf("variable name %q contains invalid characters (allowed: A-Z, a-z, 0-9, _, -)", SanitizeForLog(name))
	}

	return nil
}

// ValidateTextfilePath validates a metrics textfile destination.
// The node exporter textfile collector only reads *.prom files.
func ValidateTextfilePath(path string) error {
	if path == "" {
		return fmt.Errorf("textfile path cannot be empty")
	}

	// Check for null bytes (can bypass some path checks)
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("textfile path contains null byte")
	}

	if filepath.Ext(path) != ".prom" {
		return fmt.Errorf("textfile path must end in .prom")
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("textfile path cannot contain '..'")
		}
	}

	return nil
}

// SanitizeForLog sanitizes a string for safe logging (prevents log injection).
func SanitizeForLog(s string) string {
	// Remove control characters and null bytes
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)

	// Limit length to prevent log flooding
	if len(s) > 1000 {
		s = s[:1000] + "...[truncated]"
	}

	return s
}
