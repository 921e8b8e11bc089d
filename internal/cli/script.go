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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jeremyhahn/go-keyctl/pkg/host"
)

const shellPrompt = "keyctl> "

// newRunCmd runs a script file, or standard input when the path is "-"
func (a *app) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run SCRIPT",
		Short: "Run a keyctl script",
		Long: `Run a script of keyctl statements, one per line:

  ring = keyctl-join-session-keyring
  key = add-key user greeting hello $ring
  keyctl-setperm $key KEY_POS_ALL|KEY_USR_VIEW
  print $key
  keyctl-read $key

The script stops at the first failing statement unless --keep-going is set.
Use "-" to read the script from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				// #nosec G304 - Script path is provided by the user
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open script: %w", err)
				}
				defer func() { _ = f.Close() }()
				r = f
			}
			a.logger.Debug("running script", "path", args[0])
			return a.env.Run(cmd.Context(), r)
		}),
	}
}

// newShellCmd evaluates statements interactively. Every result is printed
// and failures are reported without leaving the shell.
func (a *app) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Evaluate keyctl statements interactively",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			return a.shell(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		}),
	}
}

func (a *app) shell(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	interactive := isTerminal(in)
	printer := a.printer(out)
	errPrinter := a.printer(errOut)

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, shellPrompt)
		}
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := a.evalLine(ctx, scanner.Text(), printer); err != nil {
			_ = errPrinter.PrintError(err) // Error printing is best-effort
		}
	}
	if interactive {
		fmt.Fprintln(out)
	}
	return scanner.Err()
}

// evalLine evaluates one statement and prints its result unless it was an
// assignment or returned nothing
func (a *app) evalLine(ctx context.Context, line string, printer *Printer) error {
	stmt, err := host.Parse(line)
	if err != nil || stmt == nil {
		return err
	}
	result, err := a.env.Exec(ctx, stmt)
	if err != nil {
		return err
	}
	if stmt.Target != "" || result.IsAbsent() {
		return nil
	}
	return printer.PrintValue(stmt.Procedure, result)
}

// isTerminal reports whether r is an interactive terminal
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
