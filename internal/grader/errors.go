package grader

import (
	"errors"
	"fmt"
)

// Stages named in infrastructure errors.
const (
	StageCompile = "compile"
	StageFixture = "fixture"
	StageExecute = "execute"
	StageCompare = "compare"
	StageReport  = "report"
)

// InfraError is a failure of the grader's own machinery. It aborts the
// request and is never folded into a score.
type InfraError struct {
	Stage string
	Err   error
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *InfraError) Unwrap() error {
	return e.Err
}

func infra(stage string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InfraError
	if errors.As(err, &ie) {
		return err
	}
	return &InfraError{Stage: stage, Err: err}
}

// ReportError marks a failure to render or write the report itself. nil
// stays nil.
func ReportError(err error) error {
	return infra(StageReport, err)
}

// IsInfrastructure reports whether err, or any error it wraps, is an
// InfraError.
func IsInfrastructure(err error) bool {
	var ie *InfraError
	return errors.As(err, &ie)
}
