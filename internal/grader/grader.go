// Package grader sequences compilation, supervised execution and output
// comparison into a single grade.
package grader

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zinc-sig/grader/internal/compare"
	"github.com/zinc-sig/grader/internal/compiler"
	"github.com/zinc-sig/grader/internal/fixture"
	"github.com/zinc-sig/grader/internal/logger"
	"github.com/zinc-sig/grader/internal/runner"
)

// Request is one submission evaluated against one fixture set.
type Request struct {
	SourcePath    string
	ArgsPath      string
	InputPath     string
	ReferencePath string
	Deadline      time.Duration
}

// Validate checks that every field is set and that the source path has an
// extension to derive the program name from.
func (r Request) Validate() error {
	switch {
	case r.SourcePath == "":
		return fmt.Errorf("source path is required")
	case r.ArgsPath == "":
		return fmt.Errorf("arguments fixture path is required")
	case r.InputPath == "":
		return fmt.Errorf("input fixture path is required")
	case r.ReferencePath == "":
		return fmt.Errorf("reference output path is required")
	case r.Deadline <= 0:
		return fmt.Errorf("deadline must be positive")
	}
	_, err := compiler.ProgramName(r.SourcePath)
	return err
}

// Options configures a Grader.
type Options struct {
	Compiler   *compiler.Stage
	Comparator *compare.Comparator
	ArgLimits  fixture.Limits
	// ProgramStderr receives the program's stderr; nil discards it.
	ProgramStderr io.Writer
	// Trace receives execution banners; nil disables them.
	Trace io.Writer
}

type Grader struct {
	opts Options
}

// New fills unset stages with defaults: the gcc command template and a
// comparator with the default chunk size.
func New(opts Options) *Grader {
	if opts.Compiler == nil {
		// the default template always tokenizes
		opts.Compiler, _ = compiler.New(compiler.Config{})
	}
	if opts.Comparator == nil {
		opts.Comparator = compare.New(compare.DefaultChunkSize)
	}
	return &Grader{opts: opts}
}

// Grade runs one request. Compile errors, faults and timeouts are reported
// as sub-scores; a returned error is either an invalid request or an
// *InfraError.
func (g *Grader) Grade(ctx context.Context, req Request) (*Report, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	comp, err := g.opts.Compiler.Compile(ctx, req.SourcePath)
	if err != nil {
		return nil, infra(StageCompile, err)
	}
	if comp.Failed() {
		logger.Info(ctx, "compilation failed, skipping execution", zap.Int("errors", comp.Errors))
		return newReport(comp, nil, nil), nil
	}

	args, err := fixture.LoadArgs(req.ArgsPath, g.opts.ArgLimits)
	if err != nil {
		return nil, infra(StageFixture, err)
	}

	execution, cmp, err := g.runAndCompare(ctx, comp.BinaryPath, args, req)
	if err != nil {
		return nil, err
	}

	report := newReport(comp, execution, cmp)
	logger.Info(ctx, "grading finished",
		zap.Int("compilation", report.Compilation),
		zap.Int("termination", report.Termination),
		zap.Int("output", report.Output),
		zap.Int("memory", report.Memory),
		zap.Int("score", report.Score))
	return report, nil
}

// runAndCompare executes the program and the comparator concurrently,
// joined by a pipe. The supervisor owns the write end and the comparator
// the read end; each closes its end on every path, so neither can block
// the other forever.
func (g *Grader) runAndCompare(ctx context.Context, binary string, args []string, req Request) (*runner.Result, *compare.Result, error) {
	reference, err := os.Open(req.ReferencePath)
	if err != nil {
		return nil, nil, infra(StageCompare, fmt.Errorf("failed to open reference output %s: %w", req.ReferencePath, err))
	}
	defer func() { _ = reference.Close() }()

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, infra(StageExecute, fmt.Errorf("failed to create output pipe: %w", err))
	}

	var (
		execution *runner.Result
		cmp       compare.Result
	)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		res, err := runner.Execute(egCtx, &runner.Config{
			Command:   binary,
			Args:      args,
			InputFile: req.InputPath,
			Output:    pw,
			Stderr:    g.opts.ProgramStderr,
			Timeout:   req.Deadline,
			Trace:     g.opts.Trace,
		})
		if err != nil {
			return infra(StageExecute, err)
		}
		execution = res
		return nil
	})

	eg.Go(func() error {
		defer func() { _ = pr.Close() }()
		res, err := g.opts.Comparator.Compare(pr, reference)
		if err != nil {
			return infra(StageCompare, err)
		}
		cmp = res
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return execution, &cmp, nil
}
