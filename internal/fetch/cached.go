package fetch

import (
	"sync"
	"time"
)

// Cache defaults.
const (
	DefaultCacheTTL  = 6 * time.Hour
	DefaultCacheSize = 512
)

type cacheEntry struct {
	text      string
	expiresAt time.Time
}

// Cache keeps recent excerpts in memory so regenerating an article about the same
// sources does not refetch them.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	items   map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates a cache. A full cache drops expired entries first and then the
// entry closest to expiry.
func NewCache(ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &Cache{
		ttl:     ttl,
		maxSize: maxSize,
		items:   make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns a fresh entry.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return "", false
	}
	if c.now().After(item.expiresAt) {
		delete(c.items, key)
		return "", false
	}
	return item.text, true
}

// Set stores text under key.
func (c *Cache) Set(key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictLocked()
	}
	c.items[key] = cacheEntry{text: text, expiresAt: c.now().Add(c.ttl)}
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) evictLocked() {
	now := c.now()
	var oldestKey string
	var oldest time.Time
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			continue
		}
		if oldestKey == "" || item.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = item.expiresAt
		}
	}
	if len(c.items) >= c.maxSize && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
