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

// Package keyctl binds the Linux kernel key-retention facility (add_key,
// request_key and keyctl) to a dynamically typed host.
//
// Every operation follows the same path: the raw host values are checked
// against the operation's Signature, converted into kernel types, placed
// into call-scoped buffers, handed to the Kernel in one system call, and
// the result is either translated into a KernelError or shaped into a host
// Value by the operation's ResultPolicy. Nothing here keeps state between
// calls; a Dispatcher is safe for concurrent use.
package keyctl

import (
	"context"
	"fmt"
	"time"

	"github.com/jeremyhahn/go-keyctl/pkg/correlation"
	"github.com/jeremyhahn/go-keyctl/pkg/logging"
	"github.com/jeremyhahn/go-keyctl/pkg/metrics"
)

// Dispatcher routes host calls to the per-operation procedures.
type Dispatcher struct {
	kernel Kernel
	logger *logging.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithKernel replaces the system call implementation.
func WithKernel(k Kernel) DispatcherOption {
	return func(d *Dispatcher) {
		d.kernel = k
	}
}

// WithLogger sets the logger used for per-call debug records.
func WithLogger(l *logging.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher creates a dispatcher bound to the running kernel unless
// WithKernel says otherwise.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		kernel: NewKernel(),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Call invokes the named operation with positional host values. Omitted
// trailing optional arguments are simply not passed.
func (d *Dispatcher) Call(ctx context.Context, name string, args ...Value) (Value, error) {
	op, ok := operationIndex[name]
	if !ok {
		return Absent(), fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}

	start := time.Now()
	result, err := d.dispatch(op, args)
	elapsed := time.Since(start).Seconds()

	record(op.Name, elapsed, err)

	log := d.logger.With("operation", op.Name, "correlation_id", correlation.GetCorrelationID(ctx))
	if err != nil {
		log.Debug("call failed", "error", err)
		return Absent(), err
	}
	log.Debug("call completed", "result", result.Kind().String())
	return result, nil
}

// record feeds the operation metrics. Nothing is computed while metrics
// are disabled.
func record(op string, elapsed float64, err error) {
	if !metrics.IsEnabled() {
		return
	}
	if err != nil {
		metrics.RecordOperation(op, metrics.StatusError, elapsed)
		metrics.RecordError(op, errorType(err))
		return
	}
	metrics.RecordOperation(op, metrics.StatusSuccess, elapsed)
}

// CallAny is Call for plain Go arguments; see ValueOf for the accepted
// types.
func (d *Dispatcher) CallAny(ctx context.Context, name string, args ...any) (Value, error) {
	values := make([]Value, len(args))
	for i, a := range args {
		v, err := ValueOf(a)
		if err != nil {
			return Absent(), fmt.Errorf("%s: argument %d: %w", name, i+1, err)
		}
		values[i] = v
	}
	return d.Call(ctx, name, values...)
}

func (d *Dispatcher) dispatch(op *Operation, raw []Value) (Value, error) {
	args, err := validate(op.Name, op.Signature, raw)
	if err != nil {
		return Absent(), err
	}

	sc := newScope()
	defer sc.release()

	call, out, err := op.build(sc, args)
	if err != nil {
		return Absent(), err
	}

	d.logger.Debugf("%s: %s", op.Name, call)
	result, err := d.kernel.Invoke(call)
	if err != nil || result < 0 {
		return Absent(), translate(op.Name, result, err)
	}
	return op.Policy.apply(result, out), nil
}
