package derive

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-hotstate/reactive"
)

// ExpressionOption configures Expression.
type ExpressionOption func(*expressionConfig)

type expressionConfig struct {
	logger  EvaluationLogger
	onError func(error)
}

// WithEvaluationLogger reports every evaluation to logger.
func WithEvaluationLogger(logger EvaluationLogger) ExpressionOption {
	return func(cfg *expressionConfig) {
		if logger == nil {
			cfg.logger = noopEvaluationLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithErrorHandler is called when an evaluation fails. The derived cell keeps
// its last good value in that case.
func WithErrorHandler(fn func(error)) ExpressionOption {
	return func(cfg *expressionConfig) {
		cfg.onError = fn
	}
}

// Expression builds a derived cell whose value is expression evaluated
// against deps. Each dependency is exposed to the expression under its map
// key; dependencies that are reactive.Watchable invalidate the cell when they
// change.
//
// The expression is compiled once here, so syntax errors are returned
// immediately.
func Expression(eval Evaluator, expression string, deps map[string]reactive.Readable, opts ...ExpressionOption) (*reactive.Computed, error) {
	if eval == nil {
		return nil, fmt.Errorf("derive: evaluator is nil")
	}
	cfg := expressionConfig{logger: noopEvaluationLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	engine := engineName(eval)
	program, err := eval.Compile(expression)
	if err != nil {
		return nil, compileError(engine, expression, err)
	}

	names := make([]string, 0, len(deps))
	var watched []reactive.Watchable
	for name, dep := range deps {
		if dep == nil {
			return nil, fmt.Errorf("derive: dependency %q is nil", name)
		}
		names = append(names, name)
		if w, ok := dep.(reactive.Watchable); ok {
			watched = append(watched, w)
		}
	}
	sort.Strings(names)

	var (
		mu   sync.Mutex
		last any
	)
	compute := func() any {
		env := make(map[string]any, len(deps))
		for _, name := range names {
			env[name] = deps[name].Get()
		}

		start := time.Now()
		value, err := program.Run(env)
		err = runError(engine, expression, err)
		cfg.logger.LogEvaluation(EvaluationLogEvent{
			Engine:   engine,
			Expr:     expression,
			Deps:     names,
			Duration: time.Since(start),
			Err:      err,
		})

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			if cfg.onError != nil {
				cfg.onError(err)
			}
			return last
		}
		last = value
		return value
	}

	return reactive.NewComputed(compute, watched...), nil
}
