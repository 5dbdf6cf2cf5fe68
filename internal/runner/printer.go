package runner

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	bannerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.FgHiBlack)
)

// PrintPreExecution prints program details before execution
func PrintPreExecution(w io.Writer, fullCommand string, config *Config) {
	_, _ = bannerColor.Fprintln(w, "========================================")
	_, _ = bannerColor.Fprintln(w, "Program Execution Details")
	_, _ = bannerColor.Fprintln(w, "========================================")
	printField(w, "Command: ", fullCommand)
	printField(w, "Input:   ", config.InputFile)
	if config.Timeout > 0 {
		printField(w, "Timeout: ", config.Timeout.String())
	}
	_, _ = fmt.Fprintln(w, "----------------------------------------")
}

// PrintPostExecution prints execution results after the program was reaped
func PrintPostExecution(w io.Writer, result *Result) {
	_, _ = fmt.Fprintln(w, "----------------------------------------")
	_, _ = bannerColor.Fprintln(w, "Execution Results:")
	_, _ = fmt.Fprintln(w, "----------------------------------------")

	status := color.New(color.FgGreen).Sprint(result.Status)
	if result.Status != StatusExited {
		status = color.New(color.FgRed).Sprint(result.Status)
	}
	printField(w, "Status:         ", status)
	printField(w, "Exit Code:      ", fmt.Sprint(result.ExitCode))
	if result.Status != StatusExited {
		printField(w, "Signal:         ", result.Signal.String())
	}
	printField(w, "Execution Time: ", fmt.Sprintf("%d ms", result.ExecutionTime))
	_, _ = bannerColor.Fprintln(w, "========================================")
}

func printField(w io.Writer, label, value string) {
	_, _ = labelColor.Fprint(w, label)
	_, _ = fmt.Fprintln(w, value)
}
