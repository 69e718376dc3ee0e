package geocode

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a concurrency-safe LRU cache of places keyed by coordinates
// rounded to five decimal places (about one metre).
type Cache struct {
	mu       sync.Mutex
	byAccess *list.List
	byKey    map[string]*list.Element
	maxSize  int
	ttl      time.Duration
	now      func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheEntry struct {
	key      string
	place    *Place
	storedAt time.Time
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewCache creates a cache holding at most maxSize places. A zero ttl keeps
// entries until evicted.
func NewCache(maxSize int, ttl time.Duration) *Cache {
	return &Cache{
		byAccess: list.New(),
		byKey:    make(map[string]*list.Element),
		maxSize:  maxSize,
		ttl:      ttl,
		now:      time.Now,
	}
}

func cacheKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}

// Get returns the cached place for lat/lng if present and fresh.
func (c *Cache) Get(lat, lng float64) (*Place, bool) {
	key := cacheKey(lat, lng)

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		c.byAccess.Remove(el)
		delete(c.byKey, key)
		c.misses.Add(1)
		return nil, false
	}

	c.byAccess.MoveToFront(el)
	c.hits.Add(1)
	return entry.place, true
}

// Put stores a place, evicting the least recently used entry at capacity.
func (c *Cache) Put(lat, lng float64, place *Place) {
	key := cacheKey(lat, lng)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.place = place
		entry.storedAt = c.now()
		c.byAccess.MoveToFront(el)
		return
	}

	for c.byAccess.Len() >= c.maxSize {
		oldest := c.byAccess.Back()
		if oldest == nil {
			break
		}
		c.byAccess.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cacheEntry).key)
	}

	c.byKey[key] = c.byAccess.PushFront(&cacheEntry{key: key, place: place, storedAt: c.now()})
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	n := c.byAccess.Len()
	c.mu.Unlock()
	return CacheStats{Entries: n, Hits: c.hits.Load(), Misses: c.misses.Load()}
}
