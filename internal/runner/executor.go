package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/zinc-sig/grader/internal/logger"
)

// Status is the termination class of an executed program.
type Status string

const (
	StatusExited   Status = "exited"   // normal exit, any code
	StatusSignaled Status = "signaled" // terminated by a signal we did not send
	StatusTimeout  Status = "timeout"  // killed when the deadline expired
)

// MemoryFaultSignals are the signals that count as invalid memory access.
var MemoryFaultSignals = mapset.NewSet(syscall.SIGSEGV, syscall.SIGABRT, syscall.SIGBUS)

type Config struct {
	Command   string // binary path, also used as argv[0]
	Args      []string
	InputFile string
	// Output receives the program's stdout and is closed once the program
	// has been reaped, whatever the outcome. Pass the write end of an
	// os.Pipe so the program writes to it directly.
	Output  io.WriteCloser
	Stderr  io.Writer
	Timeout time.Duration
	// Trace, when set, receives human-readable banners around execution.
	Trace io.Writer
}

type Result struct {
	Command       string
	Status        Status
	ExitCode      int // -1 unless Status is StatusExited
	Signal        syscall.Signal
	ExecutionTime int64 // milliseconds
}

// MemoryFault reports whether the program died of a memory access signal.
// A deadline kill never counts.
func (r *Result) MemoryFault() bool {
	return r.Status == StatusSignaled && MemoryFaultSignals.Contains(r.Signal)
}

// Execute runs the program once and blocks until it exits, the deadline
// fires, or ctx is cancelled. Deadline expiry is a result, not an error;
// errors mean the program could not be run or was interrupted by ctx.
func Execute(ctx context.Context, config *Config) (*Result, error) {
	if config.Output != nil {
		defer func() { _ = config.Output.Close() }()
	}

	inputFile, err := os.Open(config.InputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file %s: %w", config.InputFile, err)
	}
	defer func() { _ = inputFile.Close() }()

	cmd := exec.Command(config.Command, config.Args...)
	cmd.Stdin = inputFile
	if config.Output != nil {
		cmd.Stdout = config.Output
	}
	cmd.Stderr = config.Stderr
	setProcessGroup(cmd)

	fullCommand := strings.Join(append([]string{config.Command}, config.Args...), " ")
	if config.Trace != nil {
		PrintPreExecution(config.Trace, fullCommand, config)
	}

	var deadline <-chan time.Time
	if config.Timeout > 0 {
		timer := time.NewTimer(config.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	startTime := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start command: %w", err)
	}
	logger.Debug(ctx, "program started", zap.String("command", fullCommand), zap.Int("pid", cmd.Process.Pid))

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timedOut := false
	var waitErr error
	select {
	case waitErr = <-done:
		// background children would keep the output pipe open
		killStragglers(cmd)
	case <-deadline:
		timedOut = true
		killProcessGroup(cmd)
		waitErr = <-done
	case <-ctx.Done():
		killProcessGroup(cmd)
		<-done
		return nil, fmt.Errorf("execution interrupted: %w", ctx.Err())
	}
	executionTime := time.Since(startTime).Milliseconds()

	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("failed to wait for command: %w", waitErr)
		}
	}

	result := classify(cmd.ProcessState, timedOut)
	result.Command = fullCommand
	result.ExecutionTime = executionTime

	logger.Debug(ctx, "program finished",
		zap.String("status", string(result.Status)),
		zap.Int("exit_code", result.ExitCode),
		zap.Stringer("signal", result.Signal),
		zap.Int64("execution_time_ms", executionTime))

	if config.Trace != nil {
		PrintPostExecution(config.Trace, result)
	}
	return result, nil
}

// classify maps a wait status to a Result. A SIGKILL only counts as a
// timeout when the deadline actually fired; if the program exited on its
// own just before the kill, the exit stands.
func classify(state *os.ProcessState, timedOut bool) *Result {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return &Result{Status: StatusExited, ExitCode: state.ExitCode()}
	}

	sig := ws.Signal()
	if timedOut && sig == syscall.SIGKILL {
		return &Result{Status: StatusTimeout, ExitCode: -1, Signal: sig}
	}
	return &Result{Status: StatusSignaled, ExitCode: -1, Signal: sig}
}
