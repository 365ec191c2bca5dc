package cache

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// entry is a cached value with its expiry
type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a size-bounded LRU cache whose entries also expire after a TTL
type Cache[V any] struct {
	lru    *lru.Cache[string, *entry[V]]
	ttl    time.Duration
	now    func() time.Time
	stopCh chan struct{}
}

// New creates a Cache holding at most size entries for ttl each. A
// background sweep drops expired entries every ttl until Stop is called.
func New[V any](size int, ttl time.Duration) (*Cache[V], error) {
	l, err := lru.New[string, *entry[V]](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	c := &Cache[V]{
		lru:    l,
		ttl:    ttl,
		now:    time.Now,
		stopCh: make(chan struct{}),
	}

	if ttl > 0 {
		go c.cleanup()
	}

	return c, nil
}

// Get returns the value for key if present and not expired
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	e, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}

	if c.ttl > 0 && !c.now().Before(e.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}

	return e.value, true
}

// Set stores value under key, evicting the least recently used entry when full
func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, &entry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Delete removes a key from the cache
func (c *Cache[V]) Delete(key string) {
	c.lru.Remove(key)
}

// Clear removes all entries from the cache
func (c *Cache[V]) Clear() {
	c.lru.Purge()
}

// Size returns the number of entries, including expired ones not yet swept
func (c *Cache[V]) Size() int {
	return c.lru.Len()
}

// RemoveExpired drops every expired entry and returns how many were removed
func (c *Cache[V]) RemoveExpired() int {
	now := c.now()
	removed := 0
	for _, key := range c.lru.Keys() {
		if e, ok := c.lru.Peek(key); ok && !now.Before(e.expiresAt) {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}

func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.RemoveExpired()
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (c *Cache[V]) Stop() {
	select {
	case <-c.stopCh:
	default:
		close(c.stopCh)
	}
}
