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

// Package metrics provides Prometheus instrumentation for go-keyctl operations.
// It exposes per-operation counters, latency histograms and error counters for
// kernel key calls, plus script statement counters for the host runner.
// Short-lived processes export them through WriteTextfile for the node
// exporter's textfile collector.
package metrics

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all keyctl metrics
	Namespace = "keyctl"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// OperationsTotal tracks the total number of bound operations by name and status.
	// Use RecordOperation to increment this counter with the appropriate labels.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of key operations by name and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks the duration of key operations in seconds.
	// Buckets are tuned for single system calls.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of key operations in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{LabelOperation},
	)

	// ErrorsTotal tracks the total number of errors by operation and error type.
	// Kernel failures use the errno name (e.g., "ENOKEY", "EACCES").
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// StatementsTotal tracks script statements evaluated by the host runner.
	StatementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "script",
			Name:      "statements_total",
			Help:      "Total number of script statements evaluated by status",
		},
		[]string{LabelStatus},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records a key operation with its duration and status.
// This is the primary function for tracking operational metrics.
//
// Example:
//
//	start := time.Now()
//	v, err := d.Call(ctx, "keyctl-read", key)
//	duration := time.Since(start).Seconds()
//	if err != nil {
//	    RecordOperation("keyctl-read", StatusError, duration)
//	} else {
//	    RecordOperation("keyctl-read", StatusSuccess, duration)
//	}
func RecordOperation(operation, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error event with the operation it occurred in.
//
// Example:
//
//	if errors.Is(err, syscall.ENOKEY) {
//	    RecordError("request-key", "ENOKEY")
//	}
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordStatement records one evaluated script statement.
func RecordStatement(status string) {
	if !enabled.Load() {
		return
	}
	StatementsTotal.WithLabelValues(status).Inc()
}

// WriteTextfile writes every registered metric to path in the text
// exposition format. The file is written atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
