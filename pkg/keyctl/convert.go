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

import "math"

// Scalar converters. Each one is only fed values that already passed
// shape validation; a false return means the number is out of range for
// the kernel type.

// FromSerial widens a kernel identifier to a host number, keeping the sign.
func FromSerial(s Serial) Value {
	return Int(int64(s))
}

func toSerial(v Value) (Serial, bool) {
	i, ok := v.Integer()
	if !ok || i < math.MinInt32 || i > math.MaxInt32 {
		return 0, false
	}
	return Serial(i), true
}

// toUnsigned converts a timeout or error code, bounded to [0, INT_MAX].
func toUnsigned(v Value) (uint32, bool) {
	i, ok := v.Integer()
	if !ok || i < 0 || i > math.MaxInt32 {
		return 0, false
	}
	return uint32(i), true
}

// toSigned converts a plain C int.
func toSigned(v Value) (int32, bool) {
	i, ok := v.Integer()
	if !ok || i < math.MinInt32 || i > math.MaxInt32 {
		return 0, false
	}
	return int32(i), true
}

// toMask converts a permission mask with no sign interpretation.
func toMask(v Value) (Perm, bool) {
	i, ok := v.Integer()
	if !ok || i < 0 || i > math.MaxUint32 {
		return 0, false
	}
	return Perm(i), true
}

// toOwner converts a uid or gid; -1 leaves the owner unchanged.
func toOwner(v Value) (int32, bool) {
	i, ok := v.Integer()
	if !ok || i < -1 || i > math.MaxInt32 {
		return 0, false
	}
	return int32(i), true
}
