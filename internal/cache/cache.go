// Package cache provides the bounded TTL store used to deduplicate
// broadcasts across poll cycles. It wraps hashicorp's expirable LRU
// rather than hand-rolling a TTL map, consistent with the rest of this
// module's preference for real dependencies over ad-hoc stdlib code.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

// DefaultMaxEntries bounds memory use regardless of configured TTL; once
// full, the oldest entry is evicted to make room for a new one.
const DefaultMaxEntries = 1000

// DefaultTTL matches the Python original's default cache lifetime.
const DefaultTTL = 8 * time.Hour

// Cache is a bounded, time-expiring map from broadcast identifier to the
// last-seen lifecycle state.
type Cache struct {
	lru *lru.LRU[string, model.CacheEntry]
}

// New builds a Cache with the given capacity and per-entry TTL. A
// maxEntries <= 0 falls back to DefaultMaxEntries; a ttl <= 0 falls back
// to DefaultTTL.
func New(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{lru: lru.NewLRU[string, model.CacheEntry](maxEntries, nil, ttl)}
}

// Get returns the cached entry for identifier, if present and unexpired.
// It does not refresh the entry's position, so eviction on a full cache
// follows insertion order.
func (c *Cache) Get(identifier string) (model.CacheEntry, bool) {
	return c.lru.Peek(identifier)
}

// Put stores or replaces the entry for identifier.
func (c *Cache) Put(identifier string, entry model.CacheEntry) {
	c.lru.Add(identifier, entry)
}

// Evict removes identifier from the cache, e.g. after a Cancel message
// has been delivered and the broadcast no longer needs tracking.
func (c *Cache) Evict(identifier string) {
	c.lru.Remove(identifier)
}

// Len reports the current number of live entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
