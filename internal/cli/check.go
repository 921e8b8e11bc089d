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
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keyctl/pkg/health"
	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
)

// ErrUnhealthy is returned by the check command when any check fails
var ErrUnhealthy = errors.New("key management facility is unhealthy")

// newCheckCmd diagnoses the kernel key facility without changing any key
func (a *app) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [NAME...]",
		Short: "Check that the kernel key facility is usable",
		Long: `Run read-only diagnostics of the kernel key facility. With no
arguments every check runs; otherwise only the named ones.`,
		ValidArgs: []string{
			health.CheckSecurityLabels,
			health.CheckSessionKeyring,
			health.CheckUserKeyring,
		},
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			dispatcher := keyctl.NewDispatcher(
				keyctl.WithKernel(a.kernel),
				keyctl.WithLogger(a.logger))
			checker := health.NewChecker()
			health.RegisterKeyringChecks(checker, keyctl.NewClient(dispatcher))
			if err := selectChecks(checker, args); err != nil {
				return err
			}

			results := checker.Run(cmd.Context())
			status := health.AggregateStatus(results)
			if err := a.printer(cmd.OutOrStdout()).PrintChecks(status, results); err != nil {
				return err
			}
			if status == health.StatusUnhealthy {
				return ErrUnhealthy
			}
			return nil
		}),
	}
}

// selectChecks keeps only the named checks. No names keeps them all.
func selectChecks(c *health.Checker, names []string) error {
	if len(names) == 0 {
		return nil
	}
	available := c.Checks()
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		if !slices.Contains(available, name) {
			return fmt.Errorf("unknown check %q (available: %s)", name, strings.Join(available, ", "))
		}
		keep[name] = true
	}
	for _, name := range available {
		if !keep[name] {
			c.UnregisterCheck(name)
		}
	}
	return nil
}
