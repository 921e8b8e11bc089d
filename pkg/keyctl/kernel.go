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
	"fmt"
	"strings"
)

// Kernel is the in-kernel key-retention facility. Invoke performs exactly
// one system call and returns its non-negative result, or an error
// (normally a syscall.Errno). Implementations must not retain the call's
// buffers after returning.
type Kernel interface {
	Invoke(call *Call) (int64, error)
}

// Syscall selects the kernel entry point of a Call.
type Syscall int

const (
	SysAddKey Syscall = iota
	SysRequestKey
	SysKeyctl
)

func (s Syscall) String() string {
	switch s {
	case SysAddKey:
		return "add_key"
	case SysRequestKey:
		return "request_key"
	case SysKeyctl:
		return "keyctl"
	default:
		return fmt.Sprintf("Syscall(%d)", int(s))
	}
}

// ArgKind is the machine representation of one kernel argument.
type ArgKind int

const (
	// ArgInt is an integer passed by value.
	ArgInt ArgKind = iota
	// ArgString is a NUL-terminated string.
	ArgString
	// ArgNull is a NULL pointer.
	ArgNull
	// ArgBytes is a read-only data pointer; a nil slice is NULL.
	ArgBytes
	// ArgBuffer is a writable output buffer.
	ArgBuffer
)

// Arg is one argument of a kernel call.
type Arg struct {
	Kind  ArgKind
	Int   int64
	Str   string
	Bytes []byte
}

// IntArg passes an integer.
func IntArg(v int64) Arg {
	return Arg{Kind: ArgInt, Int: v}
}

// StringArg passes a NUL-terminated string.
func StringArg(s string) Arg {
	return Arg{Kind: ArgString, Str: s}
}

// NullArg passes a NULL pointer.
func NullArg() Arg {
	return Arg{Kind: ArgNull}
}

// BytesArg passes a data pointer; nil is NULL.
func BytesArg(b []byte) Arg {
	return Arg{Kind: ArgBytes, Bytes: b}
}

// BufferArg passes a writable output buffer.
func BufferArg(b []byte) Arg {
	return Arg{Kind: ArgBuffer, Bytes: b}
}

// optStringArg passes the string when present and NULL otherwise.
func optStringArg(o Option[string]) Arg {
	if s, ok := o.Get(); ok {
		return StringArg(s)
	}
	return NullArg()
}

// optSerialArg passes the serial when present and def otherwise.
func optSerialArg(o Option[Serial], def Serial) Arg {
	return IntArg(int64(o.Or(def)))
}

// Call is the exact argument tuple of one kernel call.
type Call struct {
	Syscall Syscall
	Command Command // keyctl only
	Args    []Arg
}

// String renders the call for debug logs. Payload contents are never
// rendered, only their presence and length.
func (c *Call) String() string {
	var b strings.Builder
	b.WriteString(c.Syscall.String())
	b.WriteByte('(')
	parts := make([]string, 0, len(c.Args)+1)
	if c.Syscall == SysKeyctl {
		parts = append(parts, c.Command.String())
	}
	for _, a := range c.Args {
		switch a.Kind {
		case ArgInt:
			parts = append(parts, fmt.Sprintf("%d", a.Int))
		case ArgString:
			parts = append(parts, fmt.Sprintf("%q", a.Str))
		case ArgNull:
			parts = append(parts, "NULL")
		case ArgBytes:
			if a.Bytes == nil {
				parts = append(parts, "NULL")
			} else {
				parts = append(parts, fmt.Sprintf("<%d bytes>", len(a.Bytes)))
			}
		case ArgBuffer:
			parts = append(parts, fmt.Sprintf("<buffer %d>", len(a.Bytes)))
		}
	}
	b.WriteString(strings.Join(parts, ", "))
	b.WriteByte(')')
	return b.String()
}
