package memory

import (
	"sync"
	"time"

	"github.com/roadsafety/roadguard/domain/identity"
	"github.com/roadsafety/roadguard/ports"
)

// cacheEntry pairs a resolved identity with its resolution time.
type cacheEntry struct {
	id       identity.Identity
	cachedAt time.Time
}

// KeyCache is an in-memory TTL cache for resolved identities.
// Entries past the TTL are treated as absent; a periodic sweep drops
// them so revoked keys do not linger in memory.
type KeyCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	sweep   *time.Ticker
	done    chan struct{}
	closeOnce sync.Once
}

// DefaultKeyCacheTTL matches the resolver's staleness bound.
const DefaultKeyCacheTTL = 5 * time.Minute

// NewKeyCache creates a key cache with the given TTL (default 5 minutes).
func NewKeyCache(ttl time.Duration) *KeyCache {
	if ttl <= 0 {
		ttl = DefaultKeyCacheTTL
	}

	c := &KeyCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}

	c.sweep = time.NewTicker(ttl)
	go c.sweepLoop()

	return c
}

// Get returns a cached identity if it is still fresh.
func (c *KeyCache) Get(apiKey string, now time.Time) (identity.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[apiKey]
	if !ok || now.Sub(entry.cachedAt) >= c.ttl {
		return identity.Identity{}, false
	}
	return entry.id, true
}

// Set stores a resolved identity.
func (c *KeyCache) Set(apiKey string, id identity.Identity, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[apiKey] = cacheEntry{id: id, cachedAt: now}
}

// Delete evicts one key.
func (c *KeyCache) Delete(apiKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, apiKey)
}

// Len returns the number of cached entries (for testing).
func (c *KeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the sweep goroutine.
func (c *KeyCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.sweep.Stop()
	})
	return nil
}

func (c *KeyCache) sweepLoop() {
	for {
		select {
		case <-c.sweep.C:
			cutoff := time.Now().Add(-c.ttl)
			c.mu.Lock()
			for key, entry := range c.entries {
				if entry.cachedAt.Before(cutoff) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

// Ensure interface compliance.
var _ ports.KeyCache = (*KeyCache)(nil)
