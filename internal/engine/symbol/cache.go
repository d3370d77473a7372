// Package symbol caches rendered MIL-STD-2525C symbol images.
package symbol

import (
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the number of cached images.
const DefaultCapacity = 500

// Renderer turns a symbol code into an image reference. It must be
// deterministic for identical inputs. azimuth is nil when undirected.
type Renderer func(code string, size int, azimuth *float64) string

// Key is the cache key: code, size and the azimuth rounded to 5°.
func Key(code string, size int, azimuth *float64) string {
	rounded := 0
	if azimuth != nil {
		rounded = int(math.Round(*azimuth/5)) * 5
	}
	return fmt.Sprintf("%s:%d:%d", code, size, rounded)
}

// Cache is a bounded LRU over a Renderer. A hit moves the entry to the
// most recently used end; inserting past capacity evicts the least recently used.
type Cache struct {
	render Renderer
	images *lru.Cache[string, string]
}

// NewCache creates a cache of the given capacity, DefaultCapacity if <= 0.
func NewCache(capacity int, render Renderer) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	images, err := lru.New[string, string](capacity)
	if err != nil {
		panic(fmt.Sprintf("symbol cache: %v", err))
	}
	return &Cache{render: render, images: images}
}

// Get returns the cached image, rendering it on a miss.
func (c *Cache) Get(code string, size int, azimuth *float64) string {
	key := Key(code, size, azimuth)
	if img, ok := c.images.Get(key); ok {
		return img
	}

	img := c.render(code, size, azimuth)
	c.images.Add(key, img)
	return img
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	return c.images.Len()
}
