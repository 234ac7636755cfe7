// Package artifactcache keeps deserialized model artifacts in memory,
// content-addressed by the SHA-256 digest of their serialized bytes, so a
// scoring run hitting the same artifact twice in a row skips the JSON
// decode.
package artifactcache

import (
	"sync"

	"github.com/finshield/mlengine/internal/domain"
)

// Cache is a thread-safe, content-addressed store of deserialized models.
// It holds no limit on entries; callers that need bounded memory use
// Evict/Reset to manage the working set themselves.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]domain.TrainedModel
	hits    int
	misses  int
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]domain.TrainedModel)}
}

// Get deserializes artifactBytes via decode only on a cache miss, keyed by
// the SHA-256 digest of the raw bytes. Concurrent Gets for the same digest
// that race past the miss each pay for one decode; the loser's result is
// discarded in favor of whichever finished first.
func (c *Cache) Get(artifactBytes []byte, decode func([]byte) (domain.TrainedModel, error)) (domain.TrainedModel, error) {
	digest := domain.SHA256Hex(artifactBytes)

	c.mu.RLock()
	model, ok := c.entries[digest]
	c.mu.RUnlock()
	if ok {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return model, nil
	}

	model, err := decode(artifactBytes)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if existing, ok := c.entries[digest]; ok {
		c.hits++
		c.mu.Unlock()
		return existing, nil
	}
	c.entries[digest] = model
	c.misses++
	c.mu.Unlock()
	return model, nil
}

// Evict removes one entry by its artifact's digest.
func (c *Cache) Evict(digest string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, digest)
}

// Reset clears every cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]domain.TrainedModel)
}

// Len reports how many distinct artifacts are currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports cumulative hit/miss counts since the cache was created
// (Reset does not clear these).
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
