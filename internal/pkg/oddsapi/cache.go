package oddsapi

import (
	"sync"
	"time"
)

type cacheEntry[T any] struct {
	value   T
	expires time.Time
}

// ttlCache keeps entries after expiry so callers can fall back to stale data when the
// provider is down. Entries are only ever replaced, never evicted.
type ttlCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[T]
}

func newTTLCache[T any]() *ttlCache[T] {
	return &ttlCache[T]{entries: make(map[string]cacheEntry[T])}
}

// fresh returns the value when it has not expired at now.
func (c *ttlCache[T]) fresh(key string, now time.Time) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || !now.Before(e.expires) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// stale returns the value regardless of expiry.
func (c *ttlCache[T]) stale(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e.value, ok
}

func (c *ttlCache[T]) set(key string, value T, expires time.Time) {
	c.mu.Lock()
	c.entries[key] = cacheEntry[T]{value: value, expires: expires}
	c.mu.Unlock()
}

func (c *ttlCache[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
