package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/zinc-sig/grader/internal/compiler"
	"github.com/zinc-sig/grader/internal/grader"
)

// PrintDryRun describes what grading req would do without doing it.
func PrintDryRun(w io.Writer, stage *compiler.Stage, req grader.Request, args []string, metadata any) error {
	program, err := compiler.ProgramName(req.SourcePath)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Grading Plan (DRY RUN)")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Compile:     %s\n", strings.Join(stage.Command(req.SourcePath, program), " "))
	fmt.Fprintf(w, "Execute:     %s\n", strings.Join(append([]string{compiler.BinaryPath(program)}, args...), " "))
	fmt.Fprintf(w, "Stdin:       %s\n", req.InputPath)
	fmt.Fprintf(w, "Reference:   %s\n", req.ReferencePath)
	fmt.Fprintf(w, "Deadline:    %v\n", req.Deadline)

	if metadata != nil {
		data, err := json.MarshalIndent(metadata, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render metadata: %w", err)
		}
		fmt.Fprintf(w, "Metadata:\n%s\n", data)
	}

	fmt.Fprintln(w, "----------------------------------------")
	return nil
}
