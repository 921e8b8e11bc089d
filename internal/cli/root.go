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
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-keyctl/internal/config"
	"github.com/jeremyhahn/go-keyctl/pkg/correlation"
	"github.com/jeremyhahn/go-keyctl/pkg/host"
	"github.com/jeremyhahn/go-keyctl/pkg/keyctl"
	"github.com/jeremyhahn/go-keyctl/pkg/logging"
	"github.com/jeremyhahn/go-keyctl/pkg/metrics"
	"github.com/jeremyhahn/go-keyctl/pkg/ratelimit"
)

// app is the state shared by every command of one invocation
type app struct {
	config *Config
	kernel keyctl.Kernel

	// populated by setup
	settings *config.Config
	logger   *logging.Logger
	env      *host.Environment
}

// NewRootCommand builds the command tree around the given kernel. A nil
// kernel uses the real system calls.
func NewRootCommand(kernel keyctl.Kernel) *cobra.Command {
	if kernel == nil {
		kernel = keyctl.NewKernel()
	}
	a := &app{
		config: NewConfig(),
		kernel: kernel,
	}

	rootCmd := &cobra.Command{
		Use:   "keyctl",
		Short: "go-keyctl CLI - Linux kernel key management",
		Long: `go-keyctl CLI exposes the Linux kernel key retention service:
add_key, request_key and every keyctl command, one subcommand each.

Arguments use the scripting syntax:
  true, false     booleans
  _               leave an optional argument out
  42, 0x3f        numbers
  @s @u @us ...   special keyrings (thread, process, session, user,
                  user-session, group, request-key authorisation key)
  KEY_USR_ALL     published constants, combined with |
  text:VALUE      VALUE taken literally

Negative numbers must come after "--", for example:
  keyctl add-key user name secret -- -3`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.config.ConfigFile, flagConfig, "",
		"config file (defaults are used when empty)")
	flags.StringVarP(&a.config.OutputFormat, flagOutput, "o", "text",
		"output format (text, json)")
	flags.BoolVarP(&a.config.Verbose, flagVerbose, "v", false,
		"debug logging")
	flags.BoolVar(&a.config.KeepGoing, flagKeepGoing, false,
		"continue a script past failing statements")
	flags.BoolVar(&a.config.Echo, flagEcho, false,
		"print the result of every script statement")
	flags.StringVar(&a.config.MetricsTextfile, flagMetricsTextfile, "",
		"write metrics to this .prom file on exit")

	// Add subcommands
	rootCmd.AddGroup(&cobra.Group{ID: groupOperations, Title: "Key operations:"})
	for _, op := range keyctl.Operations() {
		rootCmd.AddCommand(a.newOperationCmd(op))
	}
	rootCmd.AddCommand(a.newRunCmd())
	rootCmd.AddCommand(a.newShellCmd())
	rootCmd.AddCommand(a.newConstantsCmd())
	rootCmd.AddCommand(a.newCheckCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command against the real kernel
func Execute() error {
	ctx, stop := setupSignalHandler()
	defer stop()

	rootCmd := NewRootCommand(nil)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		printer := NewPrinter(outputFormat(rootCmd), os.Stderr)
		_ = printer.PrintError(err) // Error printing to stderr is best-effort
	}
	return err
}

// outputFormat returns the format chosen for the failed invocation
func outputFormat(cmd *cobra.Command) string {
	if f := cmd.PersistentFlags().Lookup(flagOutput); f != nil {
		return f.Value.String()
	}
	return string(OutputFormatText)
}

// setup loads settings and wires the logger, metrics, dispatcher and
// scripting environment before any subcommand runs
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	settings, err := a.config.Settings(cmd.Flags())
	if err != nil {
		return err
	}
	a.settings = settings

	logger, err := logging.New(settings.Logging.Level, settings.Logging.Format, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	if settings.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	ctx := correlation.Ensure(cmd.Context())
	cmd.SetContext(ctx)
	a.logger = logger.With("correlation_id", correlation.GetCorrelationID(ctx))

	env, err := a.newEnvironment(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	a.env = env

	if a.config.ConfigFile != "" {
		a.logger.Debug("configuration loaded", "path", a.config.ConfigFile)
	}
	return nil
}

// newEnvironment creates a scripting environment with the bindings installed
func (a *app) newEnvironment(out io.Writer) (*host.Environment, error) {
	dispatcher := keyctl.NewDispatcher(
		keyctl.WithKernel(a.kernel),
		keyctl.WithLogger(a.logger))

	env := host.NewEnvironment(
		host.WithOutput(out),
		host.WithLogger(a.logger),
		host.WithKeepGoing(a.settings.Script.KeepGoing),
		host.WithEcho(a.settings.Script.Echo),
		host.WithRateLimit(ratelimit.New(&ratelimit.Config{
			Enabled:   a.settings.Script.RatePerMinute > 0,
			PerMinute: a.settings.Script.RatePerMinute,
			Burst:     a.settings.Script.Burst,
		})))

	if err := dispatcher.Install(env); err != nil {
		return nil, fmt.Errorf("failed to install bindings: %w", err)
	}
	return env, nil
}

// finish writes the metrics textfile, if one is configured, and folds any
// failure into err
func (a *app) finish(err error) error {
	if a.settings == nil || a.settings.Metrics.Textfile == "" {
		return err
	}
	if werr := metrics.WriteTextfile(a.settings.Metrics.Textfile); werr != nil {
		a.logger.Warn("failed to write metrics textfile",
			"path", a.settings.Metrics.Textfile, "error", werr)
		return multierror.Append(err, werr).ErrorOrNil()
	}
	return err
}

// printer returns a printer in the configured output format
func (a *app) printer(w io.Writer) *Printer {
	return NewPrinter(a.settings.Output, w)
}

// run wraps a command body so metrics are exported whether it fails or not
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return a.finish(fn(cmd, args))
	}
}

// setupSignalHandler returns a context cancelled on SIGINT or SIGTERM
func setupSignalHandler() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
