package host

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/phobologic/jdsource/internal/model"
)

type renderKey struct {
	realign, escape, lineNumbers, metadata bool
}

type cacheKey struct {
	container string
	path      string
	render    renderKey
}

func keyFor(container, path string, opts model.RenderOptions) cacheKey {
	return cacheKey{
		container: container,
		path:      path,
		render: renderKey{
			realign:     opts.RealignLineNumbers,
			escape:      opts.EscapeUnicode,
			lineNumbers: opts.ShowLineNumbers,
			metadata:    opts.ShowMetadata,
		},
	}
}

// Cache holds resolved text per container, request path and render flags.
// A zero-size Cache stores nothing. Transform options are not part of the
// key; changing them requires a Purge.
type Cache struct {
	entries *lru.Cache[cacheKey, string]
}

// NewCache returns a cache holding at most size entries.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		return &Cache{}, nil
	}
	entries, err := lru.New[cacheKey, string](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) Get(container, path string, opts model.RenderOptions) (string, bool) {
	if c.entries == nil {
		return "", false
	}
	return c.entries.Get(keyFor(container, path, opts))
}

func (c *Cache) Add(container, path string, opts model.RenderOptions, text string) {
	if c.entries == nil {
		return
	}
	c.entries.Add(keyFor(container, path, opts), text)
}

// Invalidate drops every entry for path in container, whatever its render
// flags, and returns how many were removed.
func (c *Cache) Invalidate(container, path string) int {
	return c.removeWhere(func(k cacheKey) bool {
		return k.container == container && k.path == path
	})
}

// InvalidateContainer drops every entry read from container.
func (c *Cache) InvalidateContainer(container string) int {
	return c.removeWhere(func(k cacheKey) bool {
		return k.container == container
	})
}

func (c *Cache) removeWhere(match func(cacheKey) bool) int {
	if c.entries == nil {
		return 0
	}
	removed := 0
	for _, k := range c.entries.Keys() {
		if match(k) && c.entries.Remove(k) {
			removed++
		}
	}
	return removed
}

// Purge empties the cache.
func (c *Cache) Purge() {
	if c.entries != nil {
		c.entries.Purge()
	}
}

func (c *Cache) Len() int {
	if c.entries == nil {
		return 0
	}
	return c.entries.Len()
}
