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

package keyctl

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrUnknownOperation is returned when a procedure name is not bound.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnimplemented is returned by an operation that has no kernel
	// binding on this platform.
	ErrUnimplemented = errors.New("operation not implemented")
)

// ArgumentError reports an argument whose shape does not match what the
// operation accepts at that position, or a wrong argument count. It is
// raised before any buffer is allocated or any kernel call is made.
type ArgumentError struct {
	Op       string
	Position int // 1-based
	Expected string
	Got      Kind
	Missing  bool
	Extra    bool
}

func (e *ArgumentError) Error() string {
	switch {
	case e.Missing:
		return fmt.Sprintf("%s: wrong number of arguments: missing argument %d (expecting %s)",
			e.Op, e.Position, e.Expected)
	case e.Extra:
		return fmt.Sprintf("%s: wrong number of arguments: unexpected argument %d",
			e.Op, e.Position)
	default:
		return fmt.Sprintf("%s: wrong type argument in position %d (expecting %s): got %s",
			e.Op, e.Position, e.Expected, e.Got)
	}
}

// RangeError reports a value of the right shape that falls outside the
// bound accepted for its role.
type RangeError struct {
	Op       string
	Position int // 1-based
	Value    Value
	Reason   string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: argument %d out of range: %s (%s)", e.Op, e.Position, e.Value, e.Reason)
}

// KernelError is a failure reported by the kernel key-retention facility.
type KernelError struct {
	Op  string
	Err error
}

func (e *KernelError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *KernelError) Unwrap() error {
	return e.Err
}

// Errno returns the failure code when the kernel supplied one.
func (e *KernelError) Errno() (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno, true
	}
	return 0, false
}

// translate turns a failed kernel call into a KernelError. A negative
// result without an error follows the raw syscall convention of -errno.
func translate(op string, result int64, err error) error {
	if err == nil {
		if result < 0 && result >= -4095 {
			err = syscall.Errno(-result)
		} else {
			err = syscall.EINVAL
		}
	}
	return &KernelError{Op: op, Err: err}
}

// errorType classifies an error for the errors_total metric.
func errorType(err error) string {
	var argErr *ArgumentError
	var rangeErr *RangeError
	var kernelErr *KernelError
	switch {
	case errors.As(err, &argErr):
		return "argument"
	case errors.As(err, &rangeErr):
		return "range"
	case errors.As(err, &kernelErr):
		if errno, ok := kernelErr.Errno(); ok {
			return errnoName(errno)
		}
		if errors.Is(err, errors.ErrUnsupported) {
			return "unsupported"
		}
		return "kernel"
	case errors.Is(err, ErrUnknownOperation):
		return "unknown_operation"
	default:
		return "other"
	}
}
