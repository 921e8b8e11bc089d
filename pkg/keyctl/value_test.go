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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_String(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Absent(), "#<unspecified>"},
		{Bool(true), "#t"},
		{Bool(false), "#f"},
		{Int(-3), "-3"},
		{Float(2.5), "2.5"},
		{Float(4), "4"},
		{Text("hello"), "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.value.String())
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	assert.True(t, Absent().IsAbsent())
	assert.True(t, Value{}.IsAbsent())
	assert.True(t, Bool(false).IsFalse())
	assert.False(t, Bool(true).IsFalse())
	assert.False(t, Int(0).IsFalse())

	i, ok := Float(7).Integer()
	assert.True(t, ok)
	assert.Equal(t, int64(7), i)

	_, ok = Float(7.25).Integer()
	assert.False(t, ok)

	f, ok := Float(7.25).Number()
	assert.True(t, ok)
	assert.InDelta(t, 7.25, f, 0)

	_, ok = Text("7").Integer()
	assert.False(t, ok)

	assert.Nil(t, Absent().Interface())
	assert.Equal(t, true, Bool(true).Interface())
	assert.Equal(t, int64(5), Int(5).Interface())
	assert.Equal(t, 0.5, Float(0.5).Interface())
	assert.Equal(t, "s", Text("s").Interface())
}

func TestValueOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"nil", nil, Absent()},
		{"value", Int(3), Int(3)},
		{"bool", true, Bool(true)},
		{"string", "a", Text("a")},
		{"bytes", []byte("b"), Text("b")},
		{"int", 3, Int(3)},
		{"int32", int32(-7), Int(-7)},
		{"uint32", uint32(math.MaxUint32), Int(math.MaxUint32)},
		{"uint64 large", uint64(math.MaxUint64), Float(float64(uint64(math.MaxUint64)))},
		{"float64", 1.5, Float(1.5)},
		{"serial", SpecUserKeyring, Int(-4)},
		{"perm", PermUserAll, Int(0x003f0000)},
		{"selector", ReqKeyDefaultNoChange, Int(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}

	_, err := ValueOf(struct{}{})
	assert.Error(t, err)
}

func TestOption(t *testing.T) {
	some := Some(Serial(5))
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, Serial(5), v)
	assert.Equal(t, Serial(5), some.Or(0))

	none := None[Serial]()
	assert.False(t, none.Present())
	assert.Equal(t, Serial(-1), none.Or(-1))
}
