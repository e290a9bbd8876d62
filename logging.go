package hotstate

import "time"

// LogEvent describes one Serialize or Revive call.
type LogEvent struct {
	Op        string
	Entries   int
	Reused    int
	Allocated int
	Deleted   []string
	Duration  time.Duration
	Err       error
}

// Logger records snapshot events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
