package reactive

import "sync"

// Computed is a read-only cell whose value is produced by fn. The cached value
// is invalidated whenever one of the watched dependencies changes.
type Computed struct {
	mu       sync.Mutex
	fn       func() any
	value    any
	dirty    bool
	stops    []func()
	watchers watcherSet
}

// NewComputed builds a derived cell. Dependencies that are not Watchable can
// still be read by fn, but changes to them are only seen after Recompute.
func NewComputed(fn func() any, deps ...Watchable) *Computed {
	c := &Computed{fn: fn, dirty: true}
	for _, dep := range deps {
		if dep == nil {
			continue
		}
		c.stops = append(c.stops, dep.Watch(func(any, any) {
			c.invalidate()
		}))
	}
	return c
}

// Get returns the cached value, recomputing it first when stale.
func (c *Computed) Get() any {
	c.mu.Lock()
	if !c.dirty {
		value := c.value
		c.mu.Unlock()
		return value
	}
	c.mu.Unlock()
	return c.Recompute()
}

// Recompute evaluates fn unconditionally and caches the result.
func (c *Computed) Recompute() any {
	var value any
	if c.fn != nil {
		value = c.fn()
	}
	c.mu.Lock()
	c.value = value
	c.dirty = false
	c.mu.Unlock()
	return value
}

// Watch registers fn for value changes caused by dependency updates.
func (c *Computed) Watch(fn WatchFunc) func() {
	return c.watchers.add(fn)
}

// Stop detaches the cell from its dependencies.
func (c *Computed) Stop() {
	c.mu.Lock()
	stops := c.stops
	c.stops = nil
	c.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
}

func (c *Computed) invalidate() {
	c.mu.Lock()
	previous, fresh := c.value, !c.dirty
	c.dirty = true
	c.mu.Unlock()

	if c.watchers.empty() {
		return
	}
	current := c.Recompute()
	if fresh && same(previous, current) {
		return
	}
	c.watchers.notify(previous, current)
}
