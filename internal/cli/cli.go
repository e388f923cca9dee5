package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/taskgrid/internal/app"
)

// Exit codes returned through ExitError.
const (
	ExitCodeError = 1
	ExitCodeUsage = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(format string, a ...any) error {
	msg := fmt.Sprintf(format, a...)
	return &ExitError{Code: ExitCodeUsage, Message: msg}
}

func execError(err error) error {
	return &ExitError{Code: ExitCodeError, Message: err.Error(), Err: err}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	grid      string
	logFormat string
	logLevel  string
	output    string
}

// NewRootCommand builds the taskgrid command tree. Reports are written to
// outW, logs and help for errors to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "taskgrid",
		Short: "Run a grid of dependent tasks concurrently",
		Long: `taskgrid loads tasks from .hcl, .hcl.json and .yaml grid files and runs
each one as soon as everything it depends on has finished. Independent
tasks run concurrently and each task receives the results of its
dependencies.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(outW)
	rootCmd.SetErr(errW)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%s", err.Error())
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.grid, "grid", "g", "", "Path to the grid file or directory.")
	pf.StringVar(&flags.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVarP(&flags.output, "output", "o", app.OutputTable, "Report format. Options: 'table' or 'json'.")

	rootCmd.AddCommand(newRunCmd(flags, outW, errW))
	rootCmd.AddCommand(newGraphCmd(flags, outW, errW))
	return rootCmd
}

func newRunCmd(flags *globalFlags, outW, errW io.Writer) *cobra.Command {
	var healthcheckPort int

	cmd := &cobra.Command{
		Use:   "run [GRID_PATH]",
		Short: "Execute every task in the grid",
		Args:  gridArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(args, healthcheckPort)
			if err != nil {
				return err
			}
			if cfg == nil {
				return cmd.Help()
			}
			a := app.NewApp(outW, cfg, app.WithLogWriter(errW))
			if err := a.Run(cmd.Context()); err != nil {
				return execError(err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	return cmd
}

func newGraphCmd(flags *globalFlags, outW, errW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "graph [GRID_PATH]",
		Short: "Show every task with its dependencies without running anything",
		Args:  gridArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(args, 0)
			if err != nil {
				return err
			}
			if cfg == nil {
				return cmd.Help()
			}
			a := app.NewApp(outW, cfg, app.WithLogWriter(errW))
			if err := a.Graph(cmd.Context()); err != nil {
				return execError(err)
			}
			return nil
		},
	}
}

func gridArgs(_ *cobra.Command, args []string) error {
	if len(args) > 1 {
		return usageError("accepts at most one grid path, received %d", len(args))
	}
	return nil
}

// config validates the flags into an app.Config. A nil config without an
// error means no grid path was given.
func (f *globalFlags) config(args []string, healthcheckPort int) (*app.Config, error) {
	path := f.grid
	if path == "" && len(args) > 0 {
		path = args[0]
	}
	slog.Debug("Grid path determined.", "path", path)
	if path == "" {
		return nil, nil
	}

	logFormat := strings.ToLower(f.logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, usageError("invalid log-format: must be 'text' or 'json'")
	}

	logLevel := strings.ToLower(f.logLevel)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, usageError("invalid log-level: must be 'debug', 'info', 'warn', or 'error'")
	}

	cfg, err := app.NewConfig(app.Config{
		GridPath:        path,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: healthcheckPort,
		Output:          strings.ToLower(f.output),
	})
	if err != nil {
		return nil, usageError("%s", err.Error())
	}
	return cfg, nil
}

// Execute runs the command tree with args. Every returned error is an
// *ExitError carrying the process exit code.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	rootCmd := NewRootCommand(outW, errW)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Unknown subcommands and similar parse failures come from cobra itself.
	return &ExitError{Code: ExitCodeUsage, Message: err.Error(), Err: err}
}
