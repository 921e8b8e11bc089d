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
	"github.com/jeremyhahn/go-keyctl/pkg/validation"
)

// Rule describes what an operation accepts at one argument position.
type Rule int

const (
	// RequiredText accepts a string.
	RequiredText Rule = iota
	// OptionalText accepts a string, #f or nothing.
	OptionalText
	// RequiredSerial accepts a key or keyring identifier.
	RequiredSerial
	// OptionalSerial accepts a key or keyring identifier, #f or nothing.
	OptionalSerial
	// OptionalBool accepts a boolean or nothing.
	OptionalBool
	// RequiredUnsigned accepts an integer in [0, INT_MAX].
	RequiredUnsigned
	// RequiredSigned accepts an integer in [INT_MIN, INT_MAX].
	RequiredSigned
	// RequiredMask accepts a 32-bit permission mask.
	RequiredMask
	// OptionalOwner accepts a uid/gid, #f or nothing.
	OptionalOwner
)

// Required reports whether the position must be supplied.
func (r Rule) Required() bool {
	switch r {
	case OptionalText, OptionalSerial, OptionalBool, OptionalOwner:
		return false
	default:
		return true
	}
}

// Expected names the accepted shapes for error messages.
func (r Rule) Expected() string {
	switch r {
	case RequiredText:
		return "STRING"
	case OptionalText:
		return "STRING or #f"
	case OptionalSerial, OptionalOwner:
		return "NUM or #f"
	case OptionalBool:
		return "BOOL"
	default:
		return "NUM"
	}
}

func (r Rule) accepts(v Value) bool {
	switch r {
	case RequiredText:
		return v.Kind() == KindText
	case OptionalText:
		return v.Kind() == KindText || v.IsAbsent() || v.IsFalse()
	case OptionalSerial, OptionalOwner:
		return v.Kind() == KindNumber || v.IsAbsent() || v.IsFalse()
	case OptionalBool:
		return v.Kind() == KindBoolean || v.IsAbsent()
	default:
		return v.Kind() == KindNumber
	}
}

// Signature lists an operation's rules in positional order. Required
// positions always precede optional ones.
type Signature []Rule

// Required returns the minimum argument count.
func (s Signature) Required() int {
	n := 0
	for _, r := range s {
		if r.Required() {
			n++
		}
	}
	return n
}

// Optional returns how many trailing arguments may be omitted.
func (s Signature) Optional() int {
	return len(s) - s.Required()
}

// Args is the validated argument set of one call. Optional positions that
// were omitted or passed as #f are both stored as absent.
type Args struct {
	op     string
	values []Value
}

// validate checks arity and the shape of every argument. It never
// allocates a native buffer or touches the kernel.
func validate(op string, sig Signature, args []Value) (Args, error) {
	required := sig.Required()
	if len(args) < required {
		return Args{}, &ArgumentError{
			Op:       op,
			Position: len(args) + 1,
			Expected: sig[len(args)].Expected(),
			Missing:  true,
		}
	}
	if len(args) > len(sig) {
		return Args{}, &ArgumentError{Op: op, Position: len(sig) + 1, Extra: true}
	}

	values := make([]Value, len(sig))
	for i, rule := range sig {
		var v Value
		if i < len(args) {
			v = args[i]
		}
		if !rule.accepts(v) {
			return Args{}, &ArgumentError{
				Op:       op,
				Position: i + 1,
				Expected: rule.Expected(),
				Got:      v.Kind(),
			}
		}
		if !rule.Required() && v.IsFalse() && rule != OptionalBool {
			v = Absent()
		}
		values[i] = v
	}
	return Args{op: op, values: values}, nil
}

func (a Args) rangeError(i int, reason string) error {
	return &RangeError{Op: a.op, Position: i + 1, Value: a.values[i], Reason: reason}
}

// CString returns text that will be handed to the kernel NUL-terminated.
func (a Args) CString(i int) (string, error) {
	s, _ := a.values[i].Str()
	if err := validation.ValidateCString(s); err != nil {
		return "", a.rangeError(i, err.Error())
	}
	return s, nil
}

// OptCString is CString for an optional position.
func (a Args) OptCString(i int) (Option[string], error) {
	if a.values[i].IsAbsent() {
		return None[string](), nil
	}
	s, err := a.CString(i)
	if err != nil {
		return None[string](), err
	}
	return Some(s), nil
}

// OptText returns an optional byte payload; it may contain NUL bytes.
func (a Args) OptText(i int) Option[string] {
	if s, ok := a.values[i].Str(); ok {
		return Some(s)
	}
	return None[string]()
}

// Serial converts a key identifier position.
func (a Args) Serial(i int) (Serial, error) {
	s, ok := toSerial(a.values[i])
	if !ok {
		return 0, a.rangeError(i, "expecting a 32-bit key serial")
	}
	return s, nil
}

// OptSerial converts an optional key identifier position.
func (a Args) OptSerial(i int) (Option[Serial], error) {
	if a.values[i].IsAbsent() {
		return None[Serial](), nil
	}
	s, err := a.Serial(i)
	if err != nil {
		return None[Serial](), err
	}
	return Some(s), nil
}

// Bool returns an optional boolean, false when omitted.
func (a Args) Bool(i int) bool {
	b, _ := a.values[i].Boolean()
	return b
}

// Unsigned converts a timeout or error code position.
func (a Args) Unsigned(i int) (uint32, error) {
	u, ok := toUnsigned(a.values[i])
	if !ok {
		return 0, a.rangeError(i, "expecting an integer in [0, INT_MAX]")
	}
	return u, nil
}

// Signed converts a plain int position.
func (a Args) Signed(i int) (int32, error) {
	s, ok := toSigned(a.values[i])
	if !ok {
		return 0, a.rangeError(i, "expecting an integer in [INT_MIN, INT_MAX]")
	}
	return s, nil
}

// Mask converts a permission mask position.
func (a Args) Mask(i int) (Perm, error) {
	p, ok := toMask(a.values[i])
	if !ok {
		return 0, a.rangeError(i, "expecting a 32-bit unsigned mask")
	}
	return p, nil
}

// Owner converts an optional uid/gid position, -1 when omitted.
func (a Args) Owner(i int) (int32, error) {
	if a.values[i].IsAbsent() {
		return -1, nil
	}
	id, ok := toOwner(a.values[i])
	if !ok {
		return 0, a.rangeError(i, "expecting an integer in [-1, INT_MAX]")
	}
	return id, nil
}
