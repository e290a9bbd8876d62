package derive

import (
	"errors"
	"testing"

	hotstate "github.com/goliatone/go-hotstate"
	"github.com/goliatone/go-hotstate/reactive"
)

func TestExpressionTracksDependencies(t *testing.T) {
	clicks := reactive.NewRef(2)
	step := reactive.NewRef(3)

	double, err := Expression(NewExprEvaluator(), "clicks * step", map[string]reactive.Readable{
		"clicks": clicks,
		"step":   step,
	})
	if err != nil {
		t.Fatalf("expression: %v", err)
	}
	if got := double.Get(); got != 6 {
		t.Fatalf("expected 6, got %v", got)
	}

	clicks.Set(5)
	if got := double.Get(); got != 15 {
		t.Fatalf("expected 15 after update, got %v", got)
	}
}

func TestExpressionLogsEvaluations(t *testing.T) {
	var events []EvaluationLogEvent
	logger := EvaluationLoggerFunc(func(event EvaluationLogEvent) {
		events = append(events, event)
	})

	n := reactive.NewRef(1)
	cell, err := Expression(NewJSEvaluator(), "n + 1", map[string]reactive.Readable{"n": n}, WithEvaluationLogger(logger))
	if err != nil {
		t.Fatalf("expression: %v", err)
	}
	cell.Get()
	cell.Get()

	if len(events) != 1 {
		t.Fatalf("expected cached value to skip evaluation, got %d events", len(events))
	}
	if events[0].Engine != "js" || events[0].Expr != "n + 1" || len(events[0].Deps) != 1 {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestExpressionKeepsLastGoodValueOnError(t *testing.T) {
	a := reactive.NewRef(6)
	b := reactive.NewRef(2)
	var failures []error

	ratio, err := Expression(NewCELEvaluator(), "a / b", map[string]reactive.Readable{"a": a, "b": b},
		WithErrorHandler(func(err error) { failures = append(failures, err) }),
	)
	if err != nil {
		t.Fatalf("expression: %v", err)
	}
	if got := ratio.Get(); got != int64(3) {
		t.Fatalf("expected 3, got %v (%T)", got, got)
	}

	b.Set(0)
	if got := ratio.Get(); got != int64(3) {
		t.Fatalf("expected last good value, got %v", got)
	}
	if len(failures) != 1 {
		t.Fatalf("expected one failure, got %d", len(failures))
	}
	var evalErr *EvaluationError
	if !errors.As(failures[0], &evalErr) || evalErr.Engine != "cel" || evalErr.Stage != StageRun {
		t.Fatalf("expected cel EvaluationError, got %v", failures[0])
	}
}

func TestExpressionRejectsBadInput(t *testing.T) {
	if _, err := Expression(nil, "a", nil); err == nil {
		t.Fatalf("expected error for nil evaluator")
	}
	if _, err := Expression(NewExprEvaluator(), "a +", nil); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, err := Expression(NewExprEvaluator(), "a", map[string]reactive.Readable{"a": nil}); err == nil {
		t.Fatalf("expected error for nil dependency")
	}
}

func TestExpressionSurvivesRevive(t *testing.T) {
	build := func() map[string]any {
		clicks := reactive.NewRef(1)
		double, err := Expression(NewExprEvaluator(), "clicks * 2", map[string]reactive.Readable{"clicks": clicks})
		if err != nil {
			t.Fatalf("expression: %v", err)
		}
		return map[string]any{"clicks": clicks, "double": double}
	}

	old := build()
	old["clicks"].(*reactive.Ref).Set(4)
	entries := hotstate.Serialize(old)

	live := build()
	double := live["double"]
	if err := hotstate.Revive(live, entries); err != nil {
		t.Fatalf("revive: %v", err)
	}

	if live["double"] != double {
		t.Fatalf("expected derived cell to be kept")
	}
	if got := double.(*reactive.Computed).Get(); got != 8 {
		t.Fatalf("expected 8 after revive, got %v", got)
	}
}
