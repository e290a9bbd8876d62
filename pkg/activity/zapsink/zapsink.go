// Package zapsink routes hotstate logging and activity events to a zap logger.
package zapsink

import (
	"context"

	hotstate "github.com/goliatone/go-hotstate"
	"github.com/goliatone/go-hotstate/derive"
	"github.com/goliatone/go-hotstate/pkg/activity"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Hook writes activity events as structured log entries.
type Hook struct {
	Logger *zap.Logger
	// Level defaults to zapcore.InfoLevel.
	Level zapcore.Level
}

// Notify logs event. It never fails.
func (h Hook) Notify(_ context.Context, event activity.Event) error {
	if h.Logger == nil {
		return nil
	}
	normalized := activity.NormalizeEvent(event)
	fields := []zap.Field{
		zap.String("object_type", normalized.ObjectType),
		zap.String("object_id", normalized.ObjectID),
		zap.String("channel", normalized.Channel),
		zap.Time("occurred_at", normalized.OccurredAt),
	}
	if normalized.ActorID != "" {
		fields = append(fields, zap.String("actor_id", normalized.ActorID))
	}
	if normalized.TenantID != "" {
		fields = append(fields, zap.String("tenant_id", normalized.TenantID))
	}
	if len(normalized.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", normalized.Metadata))
	}
	if ce := h.Logger.Check(h.Level, normalized.Verb); ce != nil {
		ce.Write(fields...)
	}
	return nil
}

// SnapshotLogger adapts logger to hotstate.Logger. Successful calls log at
// debug level, failures at error level.
func SnapshotLogger(logger *zap.Logger) hotstate.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return hotstate.LoggerFunc(func(event hotstate.LogEvent) {
		fields := []zap.Field{
			zap.Int("entries", event.Entries),
			zap.Duration("duration", event.Duration),
		}
		if event.Op == "revive" {
			fields = append(fields,
				zap.Int("reused", event.Reused),
				zap.Int("allocated", event.Allocated),
				zap.Strings("deleted", event.Deleted),
			)
		}
		if event.Err != nil {
			logger.Error("hotstate "+event.Op+" failed", append(fields, zap.Error(event.Err))...)
			return
		}
		logger.Debug("hotstate "+event.Op, fields...)
	})
}

// EvaluationLogger adapts logger to derive.EvaluationLogger.
func EvaluationLogger(logger *zap.Logger) derive.EvaluationLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return derive.EvaluationLoggerFunc(func(event derive.EvaluationLogEvent) {
		fields := []zap.Field{
			zap.String("engine", event.Engine),
			zap.String("expr", event.Expr),
			zap.Strings("deps", event.Deps),
			zap.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			logger.Warn("derive evaluation failed", append(fields, zap.Error(event.Err))...)
			return
		}
		logger.Debug("derive evaluation", fields...)
	})
}
