package display

import "sync"

// FrameLimitCache memoizes frame-limit menus by normalized refresh
// frequency. Entries are written once and never evicted. It is safe for
// concurrent use: concurrent first lookups of the same frequency run a
// single derivation and all callers observe the same result.
type FrameLimitCache struct {
	mu      sync.Mutex
	entries map[int]*cacheEntry
}

type cacheEntry struct {
	once   sync.Once
	limits []FrameLimit
}

// NewFrameLimitCache creates an empty cache.
func NewFrameLimitCache() *FrameLimitCache {
	return &FrameLimitCache{entries: make(map[int]*cacheEntry)}
}

// Get returns the frame-limit menu for freq, deriving and storing it on
// first use. freq is normalized with RoundToEven before lookup.
func (c *FrameLimitCache) Get(freq int) []FrameLimit {
	key := RoundToEven(freq)

	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[int]*cacheEntry)
	}
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.limits = deriveFrameLimits(key)
	})
	return e.limits
}

// Len returns the number of cached frequencies.
func (c *FrameLimitCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
