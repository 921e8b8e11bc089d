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
	"context"
	"fmt"
	"strings"

	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

// Builtin procedure names.
const (
	BuiltinPrint   = "print"
	BuiltinUserID  = "user-id"
	BuiltinGroupID = "group-id"
)

func (e *Environment) installBuiltins() {
	builtins := []struct {
		name     string
		required int
		optional int
		doc      string
		fn       keyctl.Procedure
	}{
		{BuiltinPrint, 0, Variadic, "Print the arguments separated by spaces.", e.print},
		{BuiltinUserID, 1, 0, "Look up a user ID by name.", e.idLookup(BuiltinUserID, e.lookupUser)},
		{BuiltinGroupID, 1, 0, "Look up a group ID by name.", e.idLookup(BuiltinGroupID, e.lookupGrp)},
	}
	for _, b := range builtins {
		// names are fixed and the maps are fresh, so this cannot fail
		_ = e.DefineProcedure(b.name, b.required, b.optional, b.doc, b.fn)
	}
}

func (e *Environment) print(_ context.Context, args ...keyctl.Value) (keyctl.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	if _, err := fmt.Fprintln(e.out, strings.Join(parts, " ")); err != nil {
		return keyctl.Absent(), fmt.Errorf("%s: %w", BuiltinPrint, err)
	}
	return keyctl.Absent(), nil
}

// idLookup resolves a user or group name. A number is passed through so
// scripts can use either form.
func (e *Environment) idLookup(name string, lookup func(string) (int, error)) keyctl.Procedure {
	return func(_ context.Context, args ...keyctl.Value) (keyctl.Value, error) {
		if n, ok := args[0].Integer(); ok {
			return keyctl.Int(n), nil
		}
		s, ok := args[0].Str()
		if !ok {
			return keyctl.Absent(), fmt.Errorf("%s: wrong type argument in position 1 (expecting STRING): got %s",
				name, args[0].Kind())
		}
		id, err := lookup(s)
		if err != nil {
			return keyctl.Absent(), fmt.Errorf("%s: %w", name, err)
		}
		return keyctl.Int(int64(id)), nil
	}
}
