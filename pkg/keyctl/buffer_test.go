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

	"github.com/stretchr/testify/assert"
)

func TestScope_Payload(t *testing.T) {
	sc := newScope()

	assert.Nil(t, sc.payload(None[string]()))

	empty := sc.payload(Some(""))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
	assert.GreaterOrEqual(t, cap(empty), 1)

	data := sc.payload(Some("secret"))
	assert.Equal(t, []byte("secret"), data)
	assert.Len(t, sc.buffers, 2)
}

func TestScope_ReleaseWipes(t *testing.T) {
	sc := newScope()
	data := sc.payload(Some("secret"))
	out := sc.output()
	copy(out, "kernel wrote this")

	sc.release()

	assert.Equal(t, make([]byte, len(data)), data)
	assert.Equal(t, make([]byte, ReadBufferSize), out)
	assert.Empty(t, sc.buffers)
}

func TestClampLength(t *testing.T) {
	buf := make([]byte, 8)
	tests := []struct {
		name     string
		reported int64
		want     int
	}{
		{"negative", -1, 0},
		{"zero", 0, 0},
		{"inside", 5, 5},
		{"exact", 8, 8},
		{"reported larger than buffer", 100, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampLength(tt.reported, buf))
		})
	}
}

func TestDecode(t *testing.T) {
	buf := []byte("abc\x00zzzz")
	assert.Equal(t, "abc", decodeTerminated(buf, 4))
	assert.Equal(t, "abc\x00", decodeRaw(buf, 4))
	assert.Equal(t, "abc\x00zzz", decodeTerminated(buf, 50))
	assert.Equal(t, "", decodeTerminated(buf, 0))
	assert.Equal(t, "", decodeRaw(buf, 0))
}

func TestCall_StringHidesPayload(t *testing.T) {
	call := &Call{Syscall: SysAddKey, Args: []Arg{
		StringArg("user"), StringArg("desc"), BytesArg([]byte("hunter2")), IntArg(7), IntArg(-3),
	}}
	s := call.String()
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "<7 bytes>")
	assert.Contains(t, s, "add_key(")

	call = keyctlCall(CmdRead, IntArg(5), BufferArg(make([]byte, ReadBufferSize)), IntArg(ReadBufferSize))
	assert.Equal(t, "keyctl(KEYCTL_READ, 5, <buffer 256>, 256)", call.String())

	call = keyctlCall(CmdJoinSessionKeyring, NullArg())
	assert.Equal(t, "keyctl(KEYCTL_JOIN_SESSION_KEYRING, NULL)", call.String())
}
