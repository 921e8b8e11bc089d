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

package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

const groupOperations = "operations"

// newOperationCmd exposes one bound operation as a subcommand. The
// keyctl- prefix may be left off, so "keyctl describe @s" works.
func (a *app) newOperationCmd(op keyctl.Operation) *cobra.Command {
	cmd := &cobra.Command{
		Use:     op.Name + usageArgs(op.Signature),
		Short:   op.Doc,
		GroupID: groupOperations,
		Args:    cobra.RangeArgs(op.Required(), op.Required()+op.Optional()),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			values, err := a.env.ResolveAll(args)
			if err != nil {
				return err
			}
			result, err := a.env.Apply(cmd.Context(), op.Name, values...)
			if err != nil {
				return err
			}
			return a.printer(cmd.OutOrStdout()).PrintValue(op.Name, result)
		}),
	}
	if short := strings.TrimPrefix(op.Name, "keyctl-"); short != op.Name {
		cmd.Aliases = []string{short}
	}
	return cmd
}

// usageArgs renders a signature as " ARG1 ARG2 [ARG3]"
func usageArgs(sig keyctl.Signature) string {
	var b strings.Builder
	for _, rule := range sig {
		name := argName(rule)
		if rule.Required() {
			b.WriteString(" " + name)
		} else {
			b.WriteString(" [" + name + "]")
		}
	}
	return b.String()
}

func argName(rule keyctl.Rule) string {
	switch rule {
	case keyctl.RequiredText, keyctl.OptionalText:
		return "STRING"
	case keyctl.RequiredSerial, keyctl.OptionalSerial:
		return "KEY"
	case keyctl.OptionalBool:
		return "BOOL"
	case keyctl.RequiredMask:
		return "PERM"
	case keyctl.OptionalOwner:
		return "ID"
	default:
		return "NUM"
	}
}
