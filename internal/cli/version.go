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
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

// newVersionCmd represents the version command. It skips setup so it
// works with a broken configuration.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version information for the keyctl CLI`,
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString(flagOutput)
			printer := NewPrinter(format, cmd.OutOrStdout())

			if OutputFormat(format) == OutputFormatJSON {
				return printer.printJSON(map[string]interface{}{
					"version":    keyctl.Version,
					"commit":     keyctl.GitCommit,
					"build_date": keyctl.BuildDate,
					"go_version": runtime.Version(),
					"os":         runtime.GOOS,
					"arch":       runtime.GOARCH,
				})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "keyctl version %s\n", keyctl.Version)
			fmt.Fprintf(w, "Git commit: %s\n", keyctl.GitCommit)
			fmt.Fprintf(w, "Build date: %s\n", keyctl.BuildDate)
			fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
