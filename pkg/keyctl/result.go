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

import "fmt"

// ResultPolicy fixes how an operation turns a successful (non-negative)
// kernel result into a host value. It is a property of the operation,
// never inferred from the number itself.
type ResultPolicy int

const (
	// ResultSerial returns the result as a key identifier.
	ResultSerial ResultPolicy = iota
	// ResultLong returns the result as a number.
	ResultLong
	// ResultTrueOrLong returns #t for 0 and the number otherwise.
	ResultTrueOrLong
	// ResultAlwaysTrue returns #t whatever the result.
	ResultAlwaysTrue
	// ResultTrueOrSerial returns #t for 0 and the found identifier otherwise.
	ResultTrueOrSerial
	// ResultText decodes NUL-terminated text from the output buffer.
	ResultText
	// ResultPayload decodes raw bytes from the output buffer, or #f when
	// the kernel reported no data.
	ResultPayload
)

func (p ResultPolicy) String() string {
	switch p {
	case ResultSerial:
		return "serial"
	case ResultLong:
		return "long"
	case ResultTrueOrLong:
		return "true-or-long"
	case ResultAlwaysTrue:
		return "always-true"
	case ResultTrueOrSerial:
		return "true-or-serial"
	case ResultText:
		return "text"
	case ResultPayload:
		return "payload-or-false"
	default:
		return fmt.Sprintf("ResultPolicy(%d)", int(p))
	}
}

// apply converts a non-negative kernel result. out is the operation's
// output buffer, nil for operations without one.
func (p ResultPolicy) apply(result int64, out []byte) Value {
	switch p {
	case ResultSerial:
		return FromSerial(Serial(int32(result)))
	case ResultTrueOrLong:
		if result == 0 {
			return Bool(true)
		}
		return Int(result)
	case ResultAlwaysTrue:
		return Bool(true)
	case ResultTrueOrSerial:
		if result == 0 {
			return Bool(true)
		}
		return FromSerial(Serial(int32(result)))
	case ResultText:
		return Text(decodeTerminated(out, result))
	case ResultPayload:
		if clampLength(result, out) == 0 {
			return Bool(false)
		}
		return Text(decodeRaw(out, result))
	default:
		return Int(result)
	}
}
