// Package cli implements the scandir command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calvinalkan/scandir/internal/config"
	"github.com/calvinalkan/scandir/internal/logging"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks errors caused by invalid arguments, flags or config.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}

	// cobra reports unknown subcommands as plain errors.
	if strings.HasPrefix(err.Error(), "unknown command") {
		return ExitUsage
	}

	return ExitError
}

// NewRootCommand builds the scandir command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "scandir",
		Short: "List and walk directories using the type information the OS reports for free",
		Long: `scandir lists directories and walks directory trees, classifying entries
from the type hint returned by the directory enumeration call and only
falling back to a status query when the OS reports no type.

Defaults are read from .scandir.yaml in the working directory (or --config),
then from SCANDIR_* environment variables (a .env file is loaded first).
Flags override both.

Exit Codes:
  0 - Success
  1 - Runtime error (directory unreadable, write failure)
  2 - Usage error (invalid arguments, flags or config)
  3 - Panic or unexpected internal error`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().String("config", "", "Config file (default "+config.FileName+" if present)")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(newLsCommand(), newWalkCommand(), newBenchCommand())

	return root
}

// Execute runs the command tree against os.Args and returns the exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}

	return ExitCode(err)
}

// usageArgs wraps a cobra positional-args validator so its failures map to
// ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			return &usageError{err: err}
		}

		return nil
	}
}

// loadSettings resolves the config file and env and builds the logger.
func loadSettings(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, nil, fmt.Errorf("get verbose flag: %w", err)
	}

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("get config flag: %w", err)
	}

	logger := logging.NewConsoleLogger(cmd.ErrOrStderr(), verbose)

	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, nil, &usageError{err: fmt.Errorf("config: %w", err)}
	}

	logger.Verbose("config: format=%s follow_links=%t post_order=%t max_depth=%d exclude=%v",
		cfg.Format, cfg.FollowLinks, cfg.PostOrder, cfg.MaxDepth, cfg.Exclude)

	return cfg, logger, nil
}

// The helpers below return the flag value if it was set on the command line
// and fallback otherwise.

func boolFlag(cmd *cobra.Command, name string, fallback bool) bool {
	if !cmd.Flags().Changed(name) {
		return fallback
	}

	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return fallback
	}

	return v
}

func intFlag(cmd *cobra.Command, name string, fallback int) int {
	if !cmd.Flags().Changed(name) {
		return fallback
	}

	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return fallback
	}

	return v
}

func stringFlag(cmd *cobra.Command, name string, fallback string) string {
	if !cmd.Flags().Changed(name) {
		return fallback
	}

	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return fallback
	}

	return v
}

func stringSliceFlag(cmd *cobra.Command, name string, fallback []string) []string {
	if !cmd.Flags().Changed(name) {
		return fallback
	}

	v, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		return fallback
	}

	return v
}

// resolveFormat applies the --format flag over the config value.
func resolveFormat(cmd *cobra.Command, cfg *config.Config) (string, error) {
	format := strings.ToLower(stringFlag(cmd, "format", cfg.Format))

	switch format {
	case config.FormatText, config.FormatJSON, config.FormatYAML:
		return format, nil
	default:
		return "", usageErrorf("invalid --format %q (expected: text | json | yaml)", format)
	}
}
