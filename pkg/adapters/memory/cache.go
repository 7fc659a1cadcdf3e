package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/flowplan/pkg/domain"
)

type entry struct {
	raw     string
	expires time.Time
}

// Cache implements ports.PlanCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]entry
	mu   sync.RWMutex
	now  func() time.Time
}

// NewCache creates a new in-memory plan cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get retrieves a raw plan. Expired entries are reported as misses.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	if !ok || (!e.expires.IsZero() && !c.now().Before(e.expires)) {
		return "", domain.ErrCacheMiss
	}
	return e.raw, nil
}

// Set stores a raw plan.
func (c *Cache) Set(ctx context.Context, key, raw string, ttl time.Duration) error {
	e := entry{raw: raw}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = e
	return nil
}

// Delete removes a cached plan.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
