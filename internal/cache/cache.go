package cache

import (
	"container/list"
	"sync"
	"time"
)

// Default sizing used when a constructor argument is not positive.
const (
	DefaultMaxSize = 100
	DefaultTTL     = 300 * time.Second
)

// Stats is a point-in-time snapshot of cache counters.
// HitRate is a percentage in [0, 100].
type Stats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
	TTL      string  `json:"ttl"`
}

type entry struct {
	key        string
	value      any
	insertedAt time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front is oldest
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	hits    uint64
	misses  uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, letting tests step through TTL expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache holding at most maxSize entries, each valid for ttl.
func New(maxSize int, ttl time.Duration, opts ...Option) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value stored under key. An expired entry is removed and
// reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := el.Value.(*entry)
	if c.now().Sub(e.insertedAt) > c.ttl {
		c.remove(el)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key, replacing any existing entry wholesale.
// A replaced entry counts as a fresh insertion. When a new key would exceed
// capacity, exactly one entry, the oldest inserted, is evicted first.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	} else if c.order.Len() >= c.maxSize {
		c.remove(c.order.Front())
	}
	c.items[key] = c.order.PushBack(&entry{key: key, value: value, insertedAt: c.now()})
}

// Clear drops every entry and resets the hit and miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.hits, c.misses = 0, 0
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var rate float64
	if total := c.hits + c.misses; total > 0 {
		rate = float64(c.hits) / float64(total) * 100
	}
	return Stats{
		Size:     c.order.Len(),
		Capacity: c.maxSize,
		Hits:     c.hits,
		Misses:   c.misses,
		HitRate:  rate,
		TTL:      c.ttl.String(),
	}
}

// Do returns the cached value for key, or calls load and caches its result.
// Errors from load are returned as-is and never cached.
func (c *Cache) Do(key string, load func() (any, error)) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	c.Set(key, v)
	return v, nil
}

// remove must be called with mu held.
func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}
