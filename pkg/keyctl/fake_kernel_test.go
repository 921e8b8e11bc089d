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
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingKernel captures every call and answers with a scripted result.
// fill, when set, writes into the output buffer before returning.
type recordingKernel struct {
	calls   []Call
	buffers [][]byte
	result  int64
	err     error
	fill    []byte
}

func (k *recordingKernel) Invoke(call *Call) (int64, error) {
	recorded := Call{Syscall: call.Syscall, Command: call.Command}
	for _, a := range call.Args {
		if a.Kind == ArgBytes && a.Bytes != nil {
			a.Bytes = append(make([]byte, 0, len(a.Bytes)), a.Bytes...)
		}
		if a.Kind == ArgBuffer {
			k.buffers = append(k.buffers, a.Bytes)
			if k.fill != nil {
				copy(a.Bytes, k.fill)
			}
		}
		recorded.Args = append(recorded.Args, a)
	}
	k.calls = append(k.calls, recorded)
	return k.result, k.err
}

func (k *recordingKernel) last(t *testing.T) Call {
	t.Helper()
	require.NotEmpty(t, k.calls, "kernel was not called")
	return k.calls[len(k.calls)-1]
}

func newTestDispatcher(k Kernel) *Dispatcher {
	return NewDispatcher(WithKernel(k))
}

// minimalArgs fills every required position with an acceptable value.
func minimalArgs(sig Signature) []Value {
	var args []Value
	for _, r := range sig {
		if !r.Required() {
			break
		}
		switch r {
		case RequiredText:
			args = append(args, Text("x"))
		default:
			args = append(args, Int(1))
		}
	}
	return args
}
