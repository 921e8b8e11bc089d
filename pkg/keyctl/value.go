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
	"math"
	"strconv"
)

// Kind identifies the dynamic shape of a host value.
type Kind int

const (
	// KindAbsent marks an argument that was not supplied.
	KindAbsent Kind = iota
	// KindBoolean is a host boolean (#t / #f).
	KindBoolean
	// KindNumber is a host number, integral or not.
	KindNumber
	// KindText is a host string.
	KindText
)

// String returns the shape name used in argument errors.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "nothing"
	case KindBoolean:
		return "BOOL"
	case KindNumber:
		return "NUM"
	case KindText:
		return "STRING"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a dynamically typed value crossing the host boundary. It is
// used both for procedure arguments and for procedure results.
//
// The zero Value is absent.
type Value struct {
	kind    Kind
	boolean bool
	integer int64
	float   float64
	exact   bool
	text    string
}

// Absent returns the value of an argument that was not supplied.
func Absent() Value {
	return Value{}
}

// Bool returns a host boolean.
func Bool(b bool) Value {
	return Value{kind: KindBoolean, boolean: b}
}

// Int returns an integral host number.
func Int(i int64) Value {
	return Value{kind: KindNumber, integer: i, float: float64(i), exact: true}
}

// Float returns a host number. Integral values that fit in an int64 are
// stored exactly.
func Float(f float64) Value {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return Int(int64(f))
	}
	return Value{kind: KindNumber, float: f}
}

// Text returns a host string.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// ValueOf converts a Go value into a host value. nil becomes Absent.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Absent(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Text(string(x)), nil
	case int:
		return Int(int64(x)), nil
	case int8:
		return Int(int64(x)), nil
	case int16:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint:
		return fromUnsigned(uint64(x)), nil
	case uint8:
		return Int(int64(x)), nil
	case uint16:
		return Int(int64(x)), nil
	case uint32:
		return Int(int64(x)), nil
	case uint64:
		return fromUnsigned(x), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case Serial:
		return FromSerial(x), nil
	case Perm:
		return Int(int64(x)), nil
	case ReqKeyDefault:
		return Int(int64(x)), nil
	default:
		return Value{}, fmt.Errorf("unsupported host value of type %T", v)
	}
}

func fromUnsigned(u uint64) Value {
	if u > math.MaxInt64 {
		return Value{kind: KindNumber, float: float64(u)}
	}
	return Int(int64(u))
}

// Kind returns the value's shape.
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether the value was not supplied.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// IsFalse reports whether the value is the boolean false.
func (v Value) IsFalse() bool {
	return v.kind == KindBoolean && !v.boolean
}

// Boolean returns the boolean and whether the value is one.
func (v Value) Boolean() (bool, bool) {
	return v.boolean, v.kind == KindBoolean
}

// Integer returns the integral number and whether the value is one.
func (v Value) Integer() (int64, bool) {
	return v.integer, v.kind == KindNumber && v.exact
}

// Number returns the number as a float and whether the value is one.
func (v Value) Number() (float64, bool) {
	return v.float, v.kind == KindNumber
}

// Str returns the text and whether the value is text.
func (v Value) Str() (string, bool) {
	return v.text, v.kind == KindText
}

// Interface returns the plain Go representation: nil, bool, int64,
// float64 or string.
func (v Value) Interface() any {
	switch v.kind {
	case KindBoolean:
		return v.boolean
	case KindNumber:
		if v.exact {
			return v.integer
		}
		return v.float
	case KindText:
		return v.text
	default:
		return nil
	}
}

// String renders the value the way the host prints it.
func (v Value) String() string {
	switch v.kind {
	case KindBoolean:
		if v.boolean {
			return "#t"
		}
		return "#f"
	case KindNumber:
		if v.exact {
			return strconv.FormatInt(v.integer, 10)
		}
		return strconv.FormatFloat(v.float, 'g', -1, 64)
	case KindText:
		return v.text
	default:
		return "#<unspecified>"
	}
}

// Equal reports whether two values have the same shape and content.
func (v Value) Equal(o Value) bool {
	return v == o
}

// Option is an optional argument after both absence encodings (not
// supplied, or supplied as #f) have been collapsed.
type Option[T any] struct {
	value T
	ok    bool
}

// Some returns a present option.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

// None returns an absent option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

// Present reports whether the option holds a value.
func (o Option[T]) Present() bool {
	return o.ok
}

// Or returns the value, or def when absent.
func (o Option[T]) Or(def T) T {
	if o.ok {
		return o.value
	}
	return def
}
