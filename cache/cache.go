// Package cache memoizes probe-based classification decisions so
// repeated batch submissions don't re-probe the same URLs.
package cache

import (
	"sync"
	"time"

	"github.com/use-agent/harvest/models"
)

// entry holds a cached classification with its creation timestamp.
type entry struct {
	kind      models.Kind
	createdAt time.Time
}

// Cache is a simple in-memory TTL cache for classification decisions.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
}

// New creates a Cache with the given capacity and entry TTL.
// A background goroutine evicts expired entries every 5 minutes.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}

	go c.cleanupLoop()
	return c
}

// Get returns the cached classification for a URL, if present and fresh.
func (c *Cache) Get(url string) (models.Kind, bool) {
	c.mu.RLock()
	e, ok := c.store[url]
	c.mu.RUnlock()

	if !ok || time.Since(e.createdAt) > c.ttl {
		return "", false
	}
	return e.kind, true
}

// Set stores a classification. If the cache is at capacity, a random
// entry is evicted to make room (map iteration is random in Go).
func (c *Cache) Set(url string, kind models.Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[url] = &entry{
		kind:      kind,
		createdAt: time.Now(),
	}
}

// Len reports the number of entries currently stored.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-c.ttl)
		c.mu.Lock()
		for k, e := range c.store {
			if e.createdAt.Before(cutoff) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
