package derive

import (
	"fmt"
	"time"
)

// Evaluator evaluates expressions against an environment of named values.
type Evaluator interface {
	Evaluate(env map[string]any, expression string) (any, error)
	Compile(expression string) (Program, error)
}

// Program is a compiled expression that can be run repeatedly.
type Program interface {
	Run(env map[string]any) (any, error)
}

// engineName reports the engine label used in errors and log events.
func engineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	case *jsEvaluator:
		return "js"
	default:
		return "custom"
	}
}

// withNow returns a copy of env carrying a "now" timestamp unless the caller
// already bound one.
func withNow(env map[string]any) map[string]any {
	out := make(map[string]any, len(env)+1)
	for key, value := range env {
		out[key] = value
	}
	if _, ok := out["now"]; !ok {
		out["now"] = time.Now()
	}
	return out
}

func emptyExpression(engine string) error {
	return engineError(engine, fmt.Errorf("expression must not be empty"))
}
