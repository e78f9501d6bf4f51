// internal/pkg/passcache/cache.go
package passcache

import (
	"sync"
	"time"
)

// DefaultTTL is how long a temporary password stays readable after creation.
const DefaultTTL = 24 * time.Hour

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is an in-memory expiring map keyed by username. It holds temporary
// passwords so an admin can read them back once after creating or resetting
// an account. Entries expire after their TTL and are removed by Sweep.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Put stores a value under key for the given TTL. A non-positive TTL uses DefaultTTL.
func (c *Cache) Put(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Get returns the stored value if present and not expired.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

// Delete removes an entry regardless of expiry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Sweep drops all expired entries and reports how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of entries, including any not yet swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
