package reactive

import (
	"reflect"
	"sync"
)

// Readable is implemented by every cell.
type Readable interface {
	Get() any
}

// Writable cells replace their slot content without changing identity.
type Writable interface {
	Readable
	Set(value any)
}

// Derived cells compute their value from other cells and are never written.
type Derived interface {
	Readable
	Recompute() any
}

// Watchable cells notify subscribers when their value changes.
type Watchable interface {
	Watch(fn WatchFunc) (stop func())
}

// WatchFunc receives the previous and current value of a cell.
type WatchFunc func(previous, current any)

// Ref is a mutable single-slot cell.
type Ref struct {
	mu       sync.RWMutex
	value    any
	watchers watcherSet
}

// NewRef constructs a Ref holding value.
func NewRef(value any) *Ref {
	return &Ref{value: value}
}

// Get returns the current slot content.
func (r *Ref) Get() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value
}

// Set replaces the slot content and notifies watchers when it changed.
func (r *Ref) Set(value any) {
	r.mu.Lock()
	previous := r.value
	r.value = value
	r.mu.Unlock()

	if same(previous, value) {
		return
	}
	r.watchers.notify(previous, value)
}

// Watch registers fn for future changes. The returned func unsubscribes.
func (r *Ref) Watch(fn WatchFunc) func() {
	return r.watchers.add(fn)
}

type watcherSet struct {
	mu   sync.Mutex
	next int
	fns  map[int]WatchFunc
}

func (w *watcherSet) add(fn WatchFunc) func() {
	if fn == nil {
		return func() {}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fns == nil {
		w.fns = make(map[int]WatchFunc)
	}
	id := w.next
	w.next++
	w.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			w.mu.Lock()
			delete(w.fns, id)
			w.mu.Unlock()
		})
	}
}

func (w *watcherSet) empty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.fns) == 0
}

func (w *watcherSet) notify(previous, current any) {
	w.mu.Lock()
	fns := make([]WatchFunc, 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(previous, current)
	}
}

// same reports identity for reference kinds and equality for comparable values.
func same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer() && (va.Kind() != reflect.Slice || va.Len() == vb.Len())
	}
	if !va.Comparable() {
		return false
	}
	return a == b
}
