package zapsink

import (
	"context"
	"errors"
	"testing"
	"time"

	hotstate "github.com/goliatone/go-hotstate"
	"github.com/goliatone/go-hotstate/derive"
	"github.com/goliatone/go-hotstate/pkg/activity"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHookLogsEvent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hook := Hook{Logger: zap.New(core)}

	event := activity.BuildSnapshotCapturedEvent(activity.SnapshotEventInput{
		Ref:        "counter",
		SnapshotID: "snap-1",
		Entries:    3,
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Message != activity.VerbSnapshotCaptured || entry.Level != zapcore.InfoLevel {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	fields := entry.ContextMap()
	if fields["object_id"] != "snap-1" || fields["object_type"] != activity.ObjectTypeSnapshot {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestHookRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	hook := Hook{Logger: zap.New(core), Level: zapcore.DebugLevel}

	_ = hook.Notify(context.Background(), activity.BuildSnapshotRestoredEvent(activity.SnapshotEventInput{Ref: "counter"}))
	if logs.Len() != 0 {
		t.Fatalf("expected debug entry to be filtered")
	}
	if err := (Hook{}).Notify(context.Background(), activity.Event{}); err != nil {
		t.Fatalf("expected nil logger to be a no-op, got %v", err)
	}
}

func TestSnapshotLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := SnapshotLogger(zap.New(core))

	logger.Log(hotstate.LogEvent{Op: "revive", Entries: 4, Reused: 2, Allocated: 1, Deleted: []string{"stale"}, Duration: time.Millisecond})
	logger.Log(hotstate.LogEvent{Op: "revive", Err: errors.New("boom")})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected two entries, got %d", len(entries))
	}
	if entries[0].Message != "hotstate revive" || entries[0].Level != zapcore.DebugLevel {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[0].ContextMap()["reused"] != int64(2) {
		t.Fatalf("expected reused field, got %v", entries[0].ContextMap())
	}
	if entries[1].Level != zapcore.ErrorLevel || entries[1].ContextMap()["error"] != "boom" {
		t.Fatalf("unexpected failure entry: %+v", entries[1])
	}
}

func TestSnapshotLoggerWithRealCalls(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	opt := hotstate.WithLogger(SnapshotLogger(zap.New(core)))

	entries := hotstate.Serialize(map[string]any{"a": 1}, opt)
	if err := hotstate.Revive(map[string]any{}, entries, opt); err != nil {
		t.Fatalf("revive: %v", err)
	}
	if logs.FilterMessage("hotstate serialize").Len() != 1 || logs.FilterMessage("hotstate revive").Len() != 1 {
		t.Fatalf("expected serialize and revive entries, got %v", logs.All())
	}
}

func TestEvaluationLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := EvaluationLogger(zap.New(core))

	logger.LogEvaluation(derive.EvaluationLogEvent{Engine: "expr", Expr: "a + 1", Deps: []string{"a"}})
	logger.LogEvaluation(derive.EvaluationLogEvent{Engine: "cel", Expr: "a / b", Err: errors.New("division by zero")})

	if logs.FilterMessage("derive evaluation").Len() != 1 {
		t.Fatalf("expected one success entry")
	}
	failed := logs.FilterMessage("derive evaluation failed").All()
	if len(failed) != 1 || failed[0].Level != zapcore.WarnLevel {
		t.Fatalf("expected one warning, got %v", failed)
	}
}
