package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/grader/cmd/config"
	"github.com/zinc-sig/grader/cmd/helpers"
	settings "github.com/zinc-sig/grader/internal/config"
	"github.com/zinc-sig/grader/internal/grader"
	"github.com/zinc-sig/grader/internal/logger"
)

// Process exit codes.
const (
	ExitOK             = 0
	ExitUsage          = 1
	ExitInfrastructure = 255
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	flags    config.GlobalFlags
	settings settings.Settings
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "grader",
		Short: "Compile, run and score C submissions",
		Long: `Grader compiles a C submission, runs it under a wall-clock deadline with
argument and stdin fixtures, and scores its stdout byte-by-byte against a
reference output.

The report has four sub-scores (compilation, termination, output, memory
access) and their sum, floored at zero. Logs go to stderr; stdout carries
only the report.`,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	helpers.SetupGlobalFlags(root, &a.flags)
	root.AddCommand(newGradeCmd(a), newCompareCmd(a), newCompileCmd(a))
	return root
}

// setup runs after argument validation, so usage is only printed for
// malformed invocations.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	s, err := settings.Load(a.flags.ConfigFile)
	if err != nil {
		return err
	}
	if a.flags.LogLevel != "" {
		s.Log.Level = a.flags.LogLevel
	}
	if a.flags.LogFormat != "" {
		s.Log.Format = a.flags.LogFormat
	}
	if a.flags.Verbose {
		s.Log.Level = "debug"
	}

	if err := logger.Init(logger.Config{
		Level:  s.Log.Level,
		Format: s.Log.Format,
		Output: cmd.ErrOrStderr(),
	}); err != nil {
		return err
	}

	a.settings = s
	return nil
}

// diagnostics is where program stderr and execution banners go: the
// command's stderr in verbose mode, nowhere otherwise.
func (a *app) diagnostics(cmd *cobra.Command) io.Writer {
	if a.flags.Verbose {
		return cmd.ErrOrStderr()
	}
	return nil
}

// Execute runs the CLI with the process arguments and returns the exit code.
func Execute() int {
	return run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := root.ExecuteContext(ctx)
	logger.Sync()
	if err == nil {
		return ExitOK
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	if grader.IsInfrastructure(err) {
		return ExitInfrastructure
	}
	return ExitUsage
}
