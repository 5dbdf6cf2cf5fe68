package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/zinc-sig/grader/internal/testutil"
)

// submission is one graded program with its fixtures, built by the fake
// compiler installed through GRADER_COMPILER.
type submission struct {
	dir       string
	source    string
	args      string
	input     string
	reference string
}

func newSubmission(t *testing.T, body, diagnostics, args, input, reference string) submission {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GRADER_COMPILER", testutil.FakeCompiler(t, dir))

	program := filepath.Join(dir, "prog")
	return submission{
		dir:       dir,
		source:    testutil.Submission(t, dir, "prog.c", body, strings.ReplaceAll(diagnostics, "{prog}", program)),
		args:      testutil.WriteFile(t, dir, "prog.args", args),
		input:     testutil.WriteFile(t, dir, "prog.in", input),
		reference: testutil.WriteFile(t, dir, "prog.out", reference),
	}
}

func (s submission) gradeArgs(deadline string, extra ...string) []string {
	return append([]string{"grade", s.source, s.args, s.input, s.reference, deadline}, extra...)
}

type invocation struct {
	code   int
	stdout string
	stderr string
}

// lockedBuffer is shared by the logger, execution banners and the
// program's stderr copier, which write from different goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func invoke(t *testing.T, stdin string, args ...string) invocation {
	t.Helper()
	var stdout bytes.Buffer
	var stderr lockedBuffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return invocation{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func textReport(compilation, termination, output, memory, score int) string {
	return fmt.Sprintf("\nCompilation: %d\n\nTermination: %d\n\nOutput: %d\n\nMemory access: %d\n\nScore: %d\n",
		compilation, termination, output, memory, score)
}
