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
	"context"
	"fmt"
)

// Procedure is a host-callable function.
type Procedure func(ctx context.Context, args ...Value) (Value, error)

// Registrar is the host's registration mechanism.
type Registrar interface {
	// DefineConstant publishes an immutable named value.
	DefineConstant(name string, value Value) error

	// DefineProcedure publishes a procedure taking between required and
	// required+optional positional arguments.
	DefineProcedure(name string, required, optional int, doc string, fn Procedure) error
}

// Install publishes every constant and every operation of d into r.
// Constants are registered first so that they exist before any procedure
// is reachable.
func (d *Dispatcher) Install(r Registrar) error {
	for _, c := range Constants() {
		if err := r.DefineConstant(c.Name, c.Value); err != nil {
			return fmt.Errorf("failed to define constant %s: %w", c.Name, err)
		}
	}
	for _, op := range operationTable {
		name := op.Name
		fn := func(ctx context.Context, args ...Value) (Value, error) {
			return d.Call(ctx, name, args...)
		}
		if err := r.DefineProcedure(name, op.Required(), op.Optional(), op.Doc, fn); err != nil {
			return fmt.Errorf("failed to define procedure %s: %w", name, err)
		}
	}
	return nil
}
