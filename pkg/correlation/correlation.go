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

package correlation

import (
	"context"
	"os"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// CorrelationIDKey is the context key for storing correlation IDs
	CorrelationIDKey contextKey = "correlation-id"

	// EnvVar names the environment variable a parent process can use to
	// hand its correlation ID to the keyctl command
	EnvVar = "KEYCTL_CORRELATION_ID"
)

// WithCorrelationID adds a correlation ID to the context.
// This is used to tie every kernel call of one command or script together.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, CorrelationIDKey, id)
}

// GetCorrelationID retrieves the correlation ID from context.
// Returns an empty string if no correlation ID is found.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return id
	}
	return ""
}

// NewID generates a new UUID v4 correlation ID.
// This provides a globally unique identifier for distributed tracing.
func NewID() string {
	return uuid.New().String()
}

// Ensure returns ctx carrying a correlation ID. An ID already in ctx wins,
// then one inherited through EnvVar, then a fresh one.
func Ensure(ctx context.Context) context.Context {
	if GetCorrelationID(ctx) != "" {
		return ctx
	}
	if id := os.Getenv(EnvVar); id != "" {
		return WithCorrelationID(ctx, id)
	}
	return WithCorrelationID(ctx, NewID())
}
