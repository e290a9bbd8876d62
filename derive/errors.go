package derive

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names the step of an evaluation that failed.
type Stage string

const (
	StageCompile Stage = "compile"
	StageRun     Stage = "run"
)

// EvaluationError reports a failed compile or run together with the engine
// and expression involved.
type EvaluationError struct {
	Engine string
	Stage  Stage
	Expr   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	expr := "<empty>"
	if e.Expr != "" {
		expr = fmt.Sprintf("%q", e.Expr)
	}
	return fmt.Sprintf("derive: %s %s %s: %v", e.Engine, e.Stage, expr, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func compileError(engine, expr string, err error) error {
	return annotate(engine, StageCompile, expr, err)
}

func runError(engine, expr string, err error) error {
	return annotate(engine, StageRun, expr, err)
}

// annotate wraps err once. An EvaluationError already in the chain keeps its
// engine and stage and only gains a missing expression.
func annotate(engine string, stage Stage, expr string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		return err
	}
	return &EvaluationError{Engine: engine, Stage: stage, Expr: expr, Err: err}
}

// engineError reports failures that are not tied to an expression, such as
// building an engine environment.
func engineError(engine string, err error) error {
	if err == nil || strings.HasPrefix(err.Error(), "derive:") {
		return err
	}
	return fmt.Errorf("derive: %s: %w", engine, err)
}
