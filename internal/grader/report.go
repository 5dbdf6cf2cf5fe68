package grader

import (
	"fmt"
	"io"

	"github.com/zinc-sig/grader/internal/compare"
	"github.com/zinc-sig/grader/internal/compiler"
	"github.com/zinc-sig/grader/internal/runner"
)

const (
	TimeoutPenalty     = -100
	MemoryFaultPenalty = -15
)

// Report holds the four sub-scores and their sum. Execution and Comparison
// are nil when compilation failed.
type Report struct {
	Compilation int
	Termination int
	Output      int
	Memory      int
	Score       int

	Compile    *compiler.Result
	Execution  *runner.Result
	Comparison *compare.Result
}

// TerminationScore is -100 for a deadline kill and 0 for anything else,
// including non-zero exit codes.
func TerminationScore(res *runner.Result) int {
	if res != nil && res.Status == runner.StatusTimeout {
		return TimeoutPenalty
	}
	return 0
}

// MemoryScore is -15 when the program died of a memory access signal.
func MemoryScore(res *runner.Result) int {
	if res != nil && res.MemoryFault() {
		return MemoryFaultPenalty
	}
	return 0
}

// Total clamps the sum of the sub-scores at zero.
func Total(compilation, termination, output, memory int) int {
	return max(0, compilation+termination+output+memory)
}

func newReport(comp *compiler.Result, execution *runner.Result, cmp *compare.Result) *Report {
	r := &Report{
		Compilation: comp.Score(),
		Compile:     comp,
		Execution:   execution,
		Comparison:  cmp,
	}
	if !comp.Failed() {
		r.Termination = TerminationScore(execution)
		r.Memory = MemoryScore(execution)
		if cmp != nil {
			r.Output = cmp.Percent
		}
	}
	r.Score = Total(r.Compilation, r.Termination, r.Output, r.Memory)
	return r
}

// WriteText renders the report as five "<Label>: <n>" lines, each preceded
// by a blank line.
func (r *Report) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "\nCompilation: %d\n\nTermination: %d\n\nOutput: %d\n\nMemory access: %d\n\nScore: %d\n",
		r.Compilation, r.Termination, r.Output, r.Memory, r.Score)
	return err
}
