package derive

import "time"

// EvaluationLogEvent describes one evaluation of a derived expression.
type EvaluationLogEvent struct {
	Engine   string
	Expr     string
	Deps     []string
	Duration time.Duration
	Err      error
}

// EvaluationLogger records evaluation events.
type EvaluationLogger interface {
	LogEvaluation(EvaluationLogEvent)
}

// EvaluationLoggerFunc adapts a function to EvaluationLogger.
type EvaluationLoggerFunc func(EvaluationLogEvent)

// LogEvaluation implements EvaluationLogger.
func (f EvaluationLoggerFunc) LogEvaluation(event EvaluationLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluationLogger struct{}

func (noopEvaluationLogger) LogEvaluation(EvaluationLogEvent) {}
