package sprite

import (
	"sync"

	"agent-compositor/internal/logging"
	"agent-compositor/internal/scene"
)

// Resolver resolves an image name to an object image.
type Resolver interface {
	Resolve(name string) *scene.Image
}

// Cache is a concurrency-safe sprite cache. Every image is resized to
// Width×Height when loaded; zero dimensions keep the source size.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]*cacheEntry
	index  *Index
	width  int
	height int
}

type cacheEntry struct {
	img *scene.Image // nil if the load failed
}

// NewCache creates a sprite cache backed by the given index.
func NewCache(index *Index, width, height int) *Cache {
	return &Cache{
		items:  make(map[string]*cacheEntry),
		index:  index,
		width:  width,
		height: height,
	}
}

// Index returns the backing index.
func (c *Cache) Index() *Index {
	return c.index
}

// Resolve loads and caches an image by name. Returns nil if not found or
// not decodable.
func (c *Cache) Resolve(name string) *scene.Image {
	path, ok := c.index.ResolvePath(name)
	if !ok {
		return nil
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.img
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	var img *scene.Image
	src, err := Load(path)
	if err != nil {
		logging.L().Warn("sprite load failed", "path", path, "err", err)
	} else {
		if c.width > 0 && c.height > 0 {
			src = Resize(src, c.width, c.height)
		}
		img = scene.FromNRGBA(src)
	}

	// Write lock with double-check
	c.mu.Lock()
	if entry, exists := c.items[path]; exists {
		c.mu.Unlock()
		return entry.img
	}
	c.items[path] = &cacheEntry{img: img}
	c.mu.Unlock()

	return img
}
