// Package compiler runs the external toolchain on a submission and scores
// its diagnostics.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/zinc-sig/grader/internal/logger"
)

const (
	DefaultCommand = "gcc -Wall {src} -o {bin}"
	DefaultSuffix  = ".err"

	WarningPenalty = 5
	ErrorScore     = -100
)

// Config configures a Stage.
type Config struct {
	// Command is a shell-style template; {src} and {bin} are replaced inside
	// each token after splitting, so paths with spaces survive.
	Command          string
	DiagnosticSuffix string
	Parser           DiagnosticsParser
}

// Result is the outcome of compiling one submission.
type Result struct {
	Program         string // source path without extension
	BinaryPath      string // path used to execute the program
	DiagnosticsPath string
	Warnings        int
	Errors          int
	ExitCode        int
	Duration        time.Duration
}

// Score is -5 per warning, or -100 when any error was reported.
func (r *Result) Score() int {
	if r.Errors > 0 {
		return ErrorScore
	}
	return -WarningPenalty * r.Warnings
}

// Failed reports whether execution must be skipped.
func (r *Result) Failed() bool {
	return r.Errors > 0
}

// Stage invokes the compiler.
type Stage struct {
	argv   []string
	suffix string
	parser DiagnosticsParser
}

// New validates cfg and tokenizes the command template.
func New(cfg Config) (*Stage, error) {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.DiagnosticSuffix == "" {
		cfg.DiagnosticSuffix = DefaultSuffix
	}
	if cfg.Parser == nil {
		cfg.Parser = GCC()
	}

	argv, err := shlex.Split(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to parse compiler command: %w", err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("compiler command is empty")
	}

	return &Stage{argv: argv, suffix: cfg.DiagnosticSuffix, parser: cfg.Parser}, nil
}

// ProgramName derives the program name from a source path by dropping its
// extension.
func ProgramName(sourcePath string) (string, error) {
	ext := filepath.Ext(sourcePath)
	if ext == "" || ext == sourcePath || strings.HasSuffix(sourcePath, string(filepath.Separator)+ext) {
		return "", fmt.Errorf("source file %s has no extension", sourcePath)
	}
	return strings.TrimSuffix(sourcePath, ext), nil
}

// BinaryPath returns the path used as argv[0] for program: "./name" for a
// relative name, the name itself when already absolute or dot-prefixed.
func BinaryPath(program string) string {
	if filepath.IsAbs(program) || strings.HasPrefix(program, "."+string(filepath.Separator)) {
		return program
	}
	return "." + string(filepath.Separator) + program
}

// Command returns the argv that would compile sourcePath into program.
func (s *Stage) Command(sourcePath, program string) []string {
	argv := make([]string, len(s.argv))
	for i, tok := range s.argv {
		tok = strings.ReplaceAll(tok, "{src}", sourcePath)
		argv[i] = strings.ReplaceAll(tok, "{bin}", program)
	}
	return argv
}

// Compile runs the compiler with its stderr redirected to the diagnostic side
// file, then classifies that file. The compiler's exit status is recorded but
// not used for scoring. Errors are returned only when the tool itself fails.
func (s *Stage) Compile(ctx context.Context, sourcePath string) (*Result, error) {
	program, err := ProgramName(sourcePath)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Program:         program,
		BinaryPath:      BinaryPath(program),
		DiagnosticsPath: program + s.suffix,
	}

	if err := s.run(ctx, sourcePath, res); err != nil {
		return nil, err
	}

	diag, err := os.Open(res.DiagnosticsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open diagnostics file %s: %w", res.DiagnosticsPath, err)
	}
	defer func() { _ = diag.Close() }()

	d, err := s.parser.Parse(diag, program)
	if err != nil {
		return nil, err
	}
	res.Warnings = d.Warnings
	res.Errors = d.Errors

	logger.Debug(ctx, "compilation finished",
		zap.String("program", program),
		zap.Int("warnings", res.Warnings),
		zap.Int("errors", res.Errors),
		zap.Int("exit_code", res.ExitCode),
		zap.Duration("duration", res.Duration))

	return res, nil
}

func (s *Stage) run(ctx context.Context, sourcePath string, res *Result) error {
	diag, err := os.Create(res.DiagnosticsPath)
	if err != nil {
		return fmt.Errorf("failed to create diagnostics file %s: %w", res.DiagnosticsPath, err)
	}
	defer func() { _ = diag.Close() }()

	argv := s.Command(sourcePath, res.Program)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = diag

	logger.Debug(ctx, "starting compiler", zap.Strings("argv", argv))

	start := time.Now()
	err = cmd.Run()
	res.Duration = time.Since(start)

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("failed to run compiler: %w", err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("compilation interrupted: %w", ctxErr)
		}
		res.ExitCode = exitErr.ExitCode()
	}
	return nil
}
