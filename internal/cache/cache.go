// Package cache provides the time-bounded content cache used for snapshot reads.
//
// Rules running in parallel frequently ask for the same file from the same
// snapshot. The cache collapses concurrent loads of one key into a single
// disk read and keeps the result until it expires or the owning analysis
// context closes the cache.
package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the default entry lifetime when an invalid value is provided.
const DefaultTTL = 5 * time.Minute

// DefaultMaxSize is the default maximum number of entries when an invalid value is provided.
const DefaultMaxSize = 512

// MinCleanupInterval is the minimum interval between cleanup runs.
const MinCleanupInterval = time.Millisecond

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a TTL cache with singleflight loading.
//
// IMPORTANT: Always call Close() when done to stop the cleanup goroutine.
type Cache[V any] struct {
	mu      sync.RWMutex
	items   map[string]entry[V]
	ttl     time.Duration
	maxSize int

	hits   atomic.Int64
	misses atomic.Int64

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	once            sync.Once

	group singleflight.Group
}

// New creates a cache. Non-positive ttl or maxSize fall back to the defaults.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	cleanupInterval := ttl / 2
	if cleanupInterval < MinCleanupInterval {
		cleanupInterval = MinCleanupInterval
	}

	c := &Cache[V]{
		items:           make(map[string]entry[V]),
		ttl:             ttl,
		maxSize:         maxSize,
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves a live value from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		c.misses.Add(1)
		var zero V
		return zero, false
	}

	c.hits.Add(1)
	return e.value, true
}

// Set stores a value, evicting one entry first when the cache is full
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	c.items[key] = entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// GetOrLoad returns the cached value or loads it. Concurrent callers asking
// for the same missing key share a single loader invocation. Loader errors
// are returned to every waiting caller and nothing is cached.
func (c *Cache[V]) GetOrLoad(key string, loader func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		loaded, err := loader()
		if err != nil {
			return nil, err
		}

		c.Set(key, loaded)
		return loaded, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	return v.(V), nil //nolint:forcetypeassert // singleflight only ever stores V
}

// Stats returns hits, misses, current size and hit rate captured under one lock.
func (c *Cache[V]) Stats() (hits, misses int64, size int, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	size = len(c.items)
	hits = c.hits.Load()
	misses = c.misses.Load()

	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return hits, misses, size, hitRate
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (c *Cache[V]) Close() {
	c.once.Do(func() {
		close(c.stopCleanup)
	})
}

func (c *Cache[V]) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, e := range c.items {
				if now.After(e.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		case <-c.stopCleanup:
			return
		}
	}
}

// evictOldest drops an expired entry if there is one, otherwise the entry
// closest to expiry. Must be called with the write lock held.
func (c *Cache[V]) evictOldest() {
	now := time.Now()

	var oldestKey string
	var oldest time.Time
	for key, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, key)
			return
		}
		if oldest.IsZero() || e.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = e.expiresAt
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
