package jsreload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"
	"github.com/goliatone/go-hotstate/pkg/state"
	"github.com/goliatone/go-hotstate/reactive"
	"go.uber.org/zap"
)

var (
	// ErrNoSetup is returned when a script does not define a setup function.
	ErrNoSetup = errors.New("jsreload: script does not define setup()")
	// ErrNotLoaded is returned by Call before the first successful Reload.
	ErrNotLoaded = errors.New("jsreload: module not loaded")
)

// Module hosts one script module and swaps it for a new version on Reload,
// carrying the state returned by setup() across versions.
//
// Methods are safe for concurrent use. Cells handed out by State must only
// be read through the Module when they are computed, since computing runs
// script code.
type Module struct {
	ref state.Ref
	cfg config

	mu         sync.Mutex
	current    *instance
	generation int
}

type instance struct {
	vm      *goja.Runtime
	bridge  *bridge
	exports *goja.Object
	state   map[string]any
}

// New creates an unloaded module. ref names its snapshot slot in the keeper.
func New(ref state.Ref, opts ...Option) (*Module, error) {
	if _, err := ref.Identifier(); err != nil {
		return nil, err
	}
	return &Module{ref: ref, cfg: applyOptions(opts)}, nil
}

// Reload evaluates source and makes it the live version. The current state
// is captured first and revived onto the state returned by the new setup(),
// so cells, arrays and objects the new version declares at the same places
// keep their values. A script that fails to evaluate leaves the current
// version live.
//
// The first Reload restores a snapshot already held by the keeper, if any.
func (m *Module) Reload(ctx context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, _ := m.ref.Identifier()
	log := m.cfg.logger.With(zap.String("module", id), zap.Int("generation", m.generation+1))

	next, err := m.build(id, source)
	if err != nil {
		log.Warn("jsreload build failed", zap.Error(err))
		return fmt.Errorf("jsreload: build %s: %w", id, err)
	}

	if m.current != nil {
		if _, err := m.cfg.keeper.Capture(ctx, m.ref, m.current.state, state.Meta{}); err != nil {
			log.Error("jsreload capture failed", zap.Error(err))
			return fmt.Errorf("jsreload: capture %s: %w", id, err)
		}
	}

	meta, restored, err := m.cfg.keeper.Restore(ctx, m.ref, next.state)
	if err != nil {
		log.Error("jsreload restore failed", zap.Error(err))
		if discardErr := m.cfg.keeper.Discard(ctx, m.ref, err.Error()); discardErr != nil {
			log.Warn("jsreload discard failed", zap.Error(discardErr))
		}
		return fmt.Errorf("jsreload: restore %s: %w", id, err)
	}

	if m.current != nil {
		m.current.bridge.close()
	}
	m.current = next
	m.generation++
	log.Info("jsreload reloaded",
		zap.Bool("restored", restored),
		zap.String("snapshot_id", meta.SnapshotID),
		zap.Int("keys", len(next.state)),
	)
	if m.cfg.onReload != nil {
		m.cfg.onReload(m.generation)
	}
	return nil
}

func (m *Module) build(name, source string) (*instance, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	b := newBridge(vm, m.report)
	if err := b.install(); err != nil {
		return nil, err
	}

	if _, err := vm.RunScript(name, source); err != nil {
		return nil, err
	}
	setup, ok := goja.AssertFunction(vm.Get("setup"))
	if !ok {
		return nil, ErrNoSetup
	}
	result, err := setup(goja.Undefined())
	if err != nil {
		return nil, err
	}

	exports, ok := result.(*goja.Object)
	if !ok || exports.ClassName() != "Object" {
		return nil, fmt.Errorf("setup() must return an object")
	}
	live, ok := b.toGo(exports).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("setup() must return a plain object")
	}
	return &instance{vm: vm, bridge: b, exports: exports, state: live}, nil
}

// Generation counts successful reloads.
func (m *Module) Generation() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// State returns the live state of the current version, or nil before the
// first Reload.
func (m *Module) State() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	return m.current.state
}

// Value returns the state entry for key, reading through cells.
func (m *Module) Value(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, false
	}
	value, ok := m.current.state[key]
	if cell, isCell := value.(reactive.Readable); isCell {
		value = cell.Get()
	}
	return value, ok
}

// Call invokes the function exported by setup() under name.
func (m *Module) Call(name string, args ...any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, ErrNotLoaded
	}
	fn, ok := goja.AssertFunction(m.current.exports.Get(name))
	if !ok {
		return nil, fmt.Errorf("jsreload: %q is not a function", name)
	}
	jsArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		jsArgs[i] = m.current.bridge.toJS(arg)
	}
	result, err := fn(m.current.exports, jsArgs...)
	if err != nil {
		return nil, fmt.Errorf("jsreload: call %s: %w", name, err)
	}
	return m.current.bridge.toGo(result), nil
}

func (m *Module) report(err error) {
	m.cfg.logger.Warn("jsreload script error", zap.Error(err))
	if m.cfg.onError != nil {
		m.cfg.onError(err)
	}
}
