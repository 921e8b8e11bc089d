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

//go:build linux

package keyctl

import (
	"fmt"
	"runtime"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

type syscallKernel struct{}

// NewKernel returns the kernel facility reached through add_key(2),
// request_key(2) and keyctl(2).
func NewKernel() Kernel {
	return syscallKernel{}
}

// Invoke marshals the call into raw syscall words. Pointers handed to the
// kernel are kept reachable until the syscall returns.
func (syscallKernel) Invoke(call *Call) (int64, error) {
	var (
		trap  uintptr
		words [6]uintptr
		next  int
	)
	switch call.Syscall {
	case SysAddKey:
		trap = unix.SYS_ADD_KEY
	case SysRequestKey:
		trap = unix.SYS_REQUEST_KEY
	case SysKeyctl:
		trap = unix.SYS_KEYCTL
		words[0] = uintptr(call.Command)
		next = 1
	default:
		return 0, fmt.Errorf("unknown syscall %d: %w", call.Syscall, syscall.EINVAL)
	}
	if next+len(call.Args) > len(words) {
		return 0, fmt.Errorf("%s: too many arguments: %w", call.Syscall, syscall.E2BIG)
	}

	pinned := make([]unsafe.Pointer, 0, len(call.Args))
	for _, a := range call.Args {
		switch a.Kind {
		case ArgInt:
			words[next] = uintptr(a.Int)
		case ArgString:
			p, err := unix.BytePtrFromString(a.Str)
			if err != nil {
				return 0, err
			}
			pinned = append(pinned, unsafe.Pointer(p))
			words[next] = uintptr(unsafe.Pointer(p))
		case ArgNull:
			words[next] = 0
		case ArgBytes, ArgBuffer:
			if a.Bytes != nil {
				p := unsafe.Pointer(unsafe.SliceData(a.Bytes))
				pinned = append(pinned, p)
				words[next] = uintptr(p)
			}
		}
		next++
	}

	r1, _, errno := unix.Syscall6(trap, words[0], words[1], words[2], words[3], words[4], words[5])
	runtime.KeepAlive(pinned)
	if errno != 0 {
		return -1, errno
	}
	return int64(r1), nil
}

func errnoName(e syscall.Errno) string {
	if name := unix.ErrnoName(e); name != "" {
		return name
	}
	return fmt.Sprintf("errno_%d", int(e))
}
