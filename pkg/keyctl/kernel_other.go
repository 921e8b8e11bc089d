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

//go:build !linux

package keyctl

import (
	"errors"
	"fmt"
	"runtime"
	"syscall"
)

type unsupportedKernel struct{}

// NewKernel returns a kernel that fails every call: the key-retention
// facility only exists on Linux.
func NewKernel() Kernel {
	return unsupportedKernel{}
}

func (unsupportedKernel) Invoke(call *Call) (int64, error) {
	return 0, fmt.Errorf("%s on %s: %w: %w", call.Syscall, runtime.GOOS, ErrUnimplemented, errors.ErrUnsupported)
}

func errnoName(e syscall.Errno) string {
	return fmt.Sprintf("errno_%d", int(e))
}
