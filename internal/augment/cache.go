package augment

import (
	"fmt"
	"sync"
	"time"
)

const bucketSize = 5 * time.Minute

// Cache is a keyed TTL store for augmentation results. Keys quantize time
// into 5-minute buckets so repeat calls inside a bucket hit the same entry.
// Expired entries are purged lazily on lookup.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	nowFn   func() time.Time
}

type cacheEntry struct {
	value      Result
	insertedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = bucketSize
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		nowFn:   time.Now,
	}
}

// Key builds the cache key from symbol, reference price and time bucket.
func (c *Cache) Key(symbol string, price float64, at time.Time) string {
	bucket := at.Unix() / int64(bucketSize/time.Second)
	return fmt.Sprintf("%s|%.5f|%d", symbol, price, bucket)
}

func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	if c.nowFn().Sub(entry.insertedAt) >= c.ttl {
		delete(c.entries, key)
		return Result{}, false
	}
	return entry.value, true
}

func (c *Cache) Put(key string, value Result) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, insertedAt: c.nowFn()}
	c.mu.Unlock()
}

// Len reports live entries, for tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
