package derive

import "sync"

// ProgramCache stores compiled programs keyed by expression.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

type memoryCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

// NewMemoryCache returns an unbounded in-process ProgramCache safe for
// concurrent use.
func NewMemoryCache() ProgramCache {
	return &memoryCache{programs: make(map[string]any)}
}

func (c *memoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.programs[key]
	return value, ok
}

func (c *memoryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[key] = value
}
