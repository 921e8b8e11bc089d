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

package host

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

// TextPrefix forces the rest of a token to be taken as text.
const TextPrefix = "text:"

// keyringShortcuts follows the keyctl(1) command line convention.
var keyringShortcuts = map[string]keyctl.Serial{
	"@t":  keyctl.SpecThreadKeyring,
	"@p":  keyctl.SpecProcessKeyring,
	"@s":  keyctl.SpecSessionKeyring,
	"@u":  keyctl.SpecUserKeyring,
	"@us": keyctl.SpecUserSessionKeyring,
	"@g":  keyctl.SpecGroupKeyring,
	"@a":  keyctl.SpecReqKeyAuthKey,
}

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+)([eE][+-]?\d+)?$`)

// Resolve turns one token into a host value. Rules, first match wins:
//
//	true, #t, #true     boolean true
//	false, #f, #false   boolean false
//	_                   nothing (an omitted optional argument)
//	text:REST           REST as text
//	$name               the variable name
//	123, -1, 0x3f       integer (Go literal syntax)
//	1.5                 non-integral number
//	@s, @u, ...         special keyring identifier
//	KEY_USR_VIEW        constant
//	A|B|...             bitwise or of integers or constants
//	anything else       text
func (e *Environment) Resolve(token string) (keyctl.Value, error) {
	switch token {
	case "true", "#t", "#true":
		return keyctl.Bool(true), nil
	case "false", "#f", "#false":
		return keyctl.Bool(false), nil
	case "_":
		return keyctl.Absent(), nil
	}

	if rest, ok := strings.CutPrefix(token, TextPrefix); ok {
		return keyctl.Text(rest), nil
	}

	if len(token) > 1 && token[0] == '$' {
		name := token[1:]
		v, ok := e.Variable(name)
		if !ok {
			return keyctl.Absent(), fmt.Errorf("%w: %s", ErrUndefinedVariable, name)
		}
		return v, nil
	}

	if n, err := strconv.ParseInt(token, 0, 64); err == nil {
		return keyctl.Int(n), nil
	}
	if s, ok := keyringShortcuts[token]; ok {
		return keyctl.FromSerial(s), nil
	}
	if v, ok := e.Constant(token); ok {
		return v, nil
	}

	if decimalPattern.MatchString(token) {
		if f, err := strconv.ParseFloat(token, 64); err == nil {
			return keyctl.Float(f), nil
		}
	}

	if strings.Contains(token, "|") {
		if mask, ok := e.bitwiseOr(token); ok {
			return keyctl.Int(mask), nil
		}
	}

	return keyctl.Text(token), nil
}

// ResolveAll resolves every token, stopping at the first failure.
func (e *Environment) ResolveAll(tokens []string) ([]keyctl.Value, error) {
	values := make([]keyctl.Value, len(tokens))
	for i, tok := range tokens {
		v, err := e.Resolve(tok)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		values[i] = v
	}
	return values, nil
}

// integer resolves a literal, a keyring shortcut or an integral constant.
func (e *Environment) integer(token string) (int64, bool) {
	if n, err := strconv.ParseInt(token, 0, 64); err == nil {
		return n, true
	}
	if s, ok := keyringShortcuts[token]; ok {
		return int64(s), true
	}
	if v, ok := e.Constant(token); ok {
		return v.Integer()
	}
	return 0, false
}

func (e *Environment) bitwiseOr(token string) (int64, bool) {
	var mask int64
	for _, part := range strings.Split(token, "|") {
		n, ok := e.integer(strings.TrimSpace(part))
		if !ok {
			return 0, false
		}
		mask |= n
	}
	return mask, true
}
