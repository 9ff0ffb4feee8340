package kernel

import (
	"sync"

	"github.com/privacystack/ringshare/ring"
	"github.com/privacystack/ringshare/sharing"
)

// cacheEntry holds the state the Beaver cache keeps per operand:
// whether caching is enabled, the replay tag that reproduces this
// operand's Beaver mask, and the already-opened masked value once one
// multiplication has paid for it.
type cacheEntry struct {
	enabled   bool
	replayTag string
	opened    *ring.Tensor
}

// Cache is the evaluation context's Beaver cache, keyed by a tensor's
// stable buffer identity (ring.Tensor.ID()) rather than its value, so
// a cache hit survives the tensor being reassigned to new kinds via
// sharing.Value.As without losing its entry.
type Cache struct {
	mu      sync.Mutex
	entries map[uint64]*cacheEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64]*cacheEntry)}
}

// EnableCache marks v's operand as cacheable. The next multiplication
// that uses v as an operand will record a replay descriptor for its
// mask and store the opened masked value for later reuse.
func (c *Cache) EnableCache(v sharing.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[v.Tensor.ID()]
	if !ok {
		e = &cacheEntry{}
		c.entries[v.Tensor.ID()] = e
	}
	e.enabled = true
}

// DisableCache drops v's cache entry entirely. The cache holds no
// secret data beyond an already-opened (public) masked value, so
// dropping it loses nothing but the round it would have saved.
func (c *Cache) DisableCache(v sharing.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, v.Tensor.ID())
}

// lookup returns v's cache entry and whether it is enabled.
func (c *Cache) lookup(id uint64) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok || !e.enabled {
		return cacheEntry{}, false
	}
	return *e, true
}

// store records the replay tag and opened value used for a fresh (or
// first) open on an enabled operand.
func (c *Cache) store(id uint64, replayTag string, opened *ring.Tensor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		e = &cacheEntry{enabled: true}
		c.entries[id] = e
	}
	e.replayTag = replayTag
	e.opened = opened
}

// EnableCache marks v's operand as cacheable in ctx's cache.
func (ctx *Context) EnableCache(v sharing.Value) { ctx.Cache.EnableCache(v) }

// DisableCache drops v's cache entry in ctx's cache.
func (ctx *Context) DisableCache(v sharing.Value) { ctx.Cache.DisableCache(v) }

// GetCache returns ctx's Beaver cache, letting an embedder inspect or
// hand it off to another Context (e.g. across a checkpoint/restore
// boundary).
func (ctx *Context) GetCache() *Cache { return ctx.Cache }

// SetCache replaces ctx's Beaver cache outright.
func (ctx *Context) SetCache(c *Cache) { ctx.Cache = c }
