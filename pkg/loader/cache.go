package loader

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache memoizes Load results by path. Concurrent loads of the same path share
// one read and parse. Failed loads are not cached.
type Cache struct {
	opts  []Option
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Result
	// gens counts invalidations per path and epoch counts resets. A load
	// stores its result only if neither moved while it ran.
	gens  map[string]uint64
	epoch uint64
}

// NewCache returns an empty cache; opts are applied to every load it performs.
func NewCache(opts ...Option) *Cache {
	return &Cache{
		opts:    opts,
		entries: make(map[string]*Result),
		gens:    make(map[string]uint64),
	}
}

// Load returns the cached result for path, loading it on first use.
func (c *Cache) Load(path string) (*Result, error) {
	if res, ok := c.lookup(path); ok {
		return res, nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		if res, ok := c.lookup(path); ok {
			return res, nil
		}
		c.mu.Lock()
		gen, epoch := c.gens[path], c.epoch
		c.gens[path] = gen
		c.mu.Unlock()

		res, err := Load(path, c.opts...)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gens[path] == gen && c.epoch == epoch {
			c.entries[path] = res
		}
		c.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (c *Cache) lookup(path string) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[path]
	return res, ok
}

// Invalidate drops the cached result for path. A load of path already in
// flight still returns to its callers but is not cached.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.gens[path]++
	c.mu.Unlock()
	c.group.Forget(path)
}

// Reset drops every cached result and detaches loads in flight.
func (c *Cache) Reset() {
	c.mu.Lock()
	paths := make([]string, 0, len(c.gens))
	for p := range c.gens {
		paths = append(paths, p)
	}
	c.entries = make(map[string]*Result)
	c.epoch++
	c.mu.Unlock()
	for _, p := range paths {
		c.group.Forget(p)
	}
}

// Len returns the number of cached paths.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
