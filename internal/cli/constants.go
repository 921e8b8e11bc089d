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
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

func (a *app) newConstantsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "constants",
		Short: "List the published constants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printer(cmd.OutOrStdout()).PrintConstants(keyctl.Constants())
		},
	}
}
