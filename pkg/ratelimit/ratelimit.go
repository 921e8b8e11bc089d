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

package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter implements a token bucket rate limiter with one bucket per key.
// Scripts key it by procedure name.
// It uses the golang.org/x/time/rate package for efficient, thread-safe rate limiting.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	enabled  bool
}

// Config holds rate limiter configuration.
type Config struct {
	// Enabled controls whether rate limiting is active.
	Enabled bool

	// PerMinute sets the sustained rate limit for each key.
	PerMinute int

	// Burst allows short bursts above the sustained rate.
	// If not set, defaults to PerMinute.
	Burst int
}

// New creates a new rate limiter with the given configuration.
func New(config *Config) *Limiter {
	if config == nil || config.PerMinute <= 0 {
		config = &Config{Enabled: false}
	}

	burst := config.Burst
	if burst == 0 {
		burst = config.PerMinute
	}

	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		// Convert per minute to per second
		rate:    rate.Limit(float64(config.PerMinute) / 60.0),
		burst:   burst,
		enabled: config.Enabled,
	}
}

// getLimiter returns the bucket for key, creating it on first use.
func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

// Wait blocks until the limit allows an event for key.
// Returns nil on success, or an error if the context is cancelled first or
// its deadline falls before the next token.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l == nil || !l.enabled {
		return nil
	}
	return l.getLimiter(key).Wait(ctx)
}

// Stats returns current rate limiter statistics.
func (l *Limiter) Stats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	return map[string]interface{}{
		"enabled":      l.enabled,
		"active_keys":  len(l.limiters),
		"rate_per_min": float64(l.rate) * 60,
		"burst":        l.burst,
	}
}

// IsEnabled returns whether rate limiting is enabled.
func (l *Limiter) IsEnabled() bool {
	return l != nil && l.enabled
}
