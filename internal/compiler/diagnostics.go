package compiler

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Diagnostics counts the compiler messages attributed to a submission.
type Diagnostics struct {
	Warnings int
	Errors   int
}

// DiagnosticsParser classifies a raw compiler diagnostic stream. program is
// the derived program name used to attribute lines to the submission.
type DiagnosticsParser interface {
	Parse(r io.Reader, program string) (Diagnostics, error)
}

// MarkerParser classifies lines by substring markers. A line counts only if
// it mentions the program name, and is a warning or an error, never both:
// the warning marker is checked first.
type MarkerParser struct {
	WarningMarker string
	ErrorMarker   string
}

// GCC returns the parser for gcc's "file:line:col: warning: ..." format.
func GCC() MarkerParser {
	return MarkerParser{WarningMarker: "warning:", ErrorMarker: "error:"}
}

func (p MarkerParser) Parse(r io.Reader, program string) (Diagnostics, error) {
	var d Diagnostics
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			p.classify(line, program, &d)
		}
		if errors.Is(err, io.EOF) {
			return d, nil
		}
		if err != nil {
			return d, fmt.Errorf("failed to read diagnostics: %w", err)
		}
	}
}

func (p MarkerParser) classify(line, program string, d *Diagnostics) {
	if !strings.Contains(line, program) {
		return
	}
	switch {
	case strings.Contains(line, p.WarningMarker):
		d.Warnings++
	case strings.Contains(line, p.ErrorMarker):
		d.Errors++
	}
}
