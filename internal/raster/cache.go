package raster

import "sync"

// Cache provides thread-safe caching of decoded rasters to avoid
// redundant disk reads.
//
// Rasters are keyed by the exact path string passed to Load; different
// spellings of the same path produce separate entries. Cached rasters
// stay in memory until Evict or Clear is called, so long-running
// processes handling many files should clean up periodically.
type Cache struct {
	mu      sync.RWMutex
	rasters map[string]*Raster
}

// NewCache creates an empty raster cache ready for concurrent use.
func NewCache() *Cache {
	return &Cache{rasters: make(map[string]*Raster)}
}

// Load returns the raster at path, reading it from disk on the first
// request and from memory afterwards.
//
// Callers share the cached raster; treat it as read-only or Clone it
// before mutating.
func (c *Cache) Load(path string) (*Raster, error) {
	c.mu.RLock()
	if r, ok := c.rasters[path]; ok {
		c.mu.RUnlock()
		return r, nil
	}
	c.mu.RUnlock()

	r, err := Open(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.rasters[path] = r
	c.mu.Unlock()

	return r, nil
}

// Evict removes the entry for path, if present.
func (c *Cache) Evict(path string) {
	c.mu.Lock()
	delete(c.rasters, path)
	c.mu.Unlock()
}

// Clear removes all cached rasters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.rasters = make(map[string]*Raster)
	c.mu.Unlock()
}
