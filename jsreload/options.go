package jsreload

import (
	"time"

	"github.com/goliatone/go-hotstate/pkg/state"
	"go.uber.org/zap"
)

// Option configures a Module.
type Option func(*config)

type config struct {
	keeper   state.Keeper
	logger   *zap.Logger
	debounce time.Duration
	onError  func(error)
	onReload func(generation int)
}

const defaultDebounce = 100 * time.Millisecond

func applyOptions(opts []Option) config {
	cfg := config{debounce: defaultDebounce}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.keeper.Store == nil {
		cfg.keeper.Store = state.NewMemoryStore()
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return cfg
}

// WithKeeper sets the keeper that carries state across reloads. Without it
// snapshots live in a private state.MemoryStore.
func WithKeeper(keeper state.Keeper) Option {
	return func(cfg *config) {
		cfg.keeper = keeper
	}
}

// WithLogger sets the zap logger used for reload and script errors.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// WithDebounce sets how long Watch waits after the last file event before
// reloading.
func WithDebounce(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.debounce = d
		}
	}
}

// WithErrorHandler receives script errors raised inside computed cells and
// failed reloads started by Watch.
func WithErrorHandler(fn func(error)) Option {
	return func(cfg *config) {
		cfg.onError = fn
	}
}

// WithReloadHandler is called after every successful Reload.
func WithReloadHandler(fn func(generation int)) Option {
	return func(cfg *config) {
		cfg.onReload = fn
	}
}
