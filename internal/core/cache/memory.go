package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/penwyp/go-usage-board/internal/util"
)

const (
	// DefaultTTL is how long an entry stays fresh after it is captured.
	DefaultTTL = 10 * time.Minute
	// DefaultCapacity bounds the number of entries kept at once.
	DefaultCapacity = 256
)

// Stats reports cache activity counters
type Stats struct {
	Hits        int64
	Misses      int64
	Expirations int64
	Evictions   int64
}

type memoryCacheEntry[K comparable, V any] struct {
	key        K
	value      V
	capturedAt time.Time
}

// MemoryCache is a time-windowed read-through cache with LRU eviction.
// An entry is served only while now - capturedAt < ttl; expired entries are
// removed lazily when next read.
type MemoryCache[K comparable, V any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	clock    util.Clock
	entries  map[K]*list.Element
	order    *list.List // front is most recently used
	stats    Stats
}

// Option configures a MemoryCache
type Option func(*options)

type options struct {
	ttl      time.Duration
	capacity int
	clock    util.Clock
}

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCapacity overrides DefaultCapacity. Non-positive values are ignored.
func WithCapacity(capacity int) Option {
	return func(o *options) {
		if capacity > 0 {
			o.capacity = capacity
		}
	}
}

// WithClock injects the time source used for freshness checks.
func WithClock(clock util.Clock) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

func NewMemoryCache[K comparable, V any](opts ...Option) *MemoryCache[K, V] {
	o := options{
		ttl:      DefaultTTL,
		capacity: DefaultCapacity,
		clock:    util.GetTimeProvider(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &MemoryCache[K, V]{
		ttl:      o.ttl,
		capacity: o.capacity,
		clock:    o.clock,
		entries:  make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get returns the value for key if it was stored less than ttl ago.
func (mc *MemoryCache[K, V]) Get(key K) (V, bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var zero V
	elem, ok := mc.entries[key]
	if !ok {
		mc.stats.Misses++
		return zero, false
	}

	entry := elem.Value.(*memoryCacheEntry[K, V])
	if mc.clock.Now().Sub(entry.capturedAt) >= mc.ttl {
		mc.removeElement(elem)
		mc.stats.Expirations++
		mc.stats.Misses++
		return zero, false
	}

	mc.order.MoveToFront(elem)
	mc.stats.Hits++
	return entry.value, true
}

// Put stores value under key, replacing any previous entry.
func (mc *MemoryCache[K, V]) Put(key K, value V) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := mc.clock.Now()
	if elem, ok := mc.entries[key]; ok {
		entry := elem.Value.(*memoryCacheEntry[K, V])
		entry.value = value
		entry.capturedAt = now
		mc.order.MoveToFront(elem)
		return
	}

	elem := mc.order.PushFront(&memoryCacheEntry[K, V]{key: key, value: value, capturedAt: now})
	mc.entries[key] = elem

	for mc.order.Len() > mc.capacity {
		oldest := mc.order.Back()
		if oldest == nil {
			break
		}
		mc.removeElement(oldest)
		mc.stats.Evictions++
	}
}

// Len returns the number of stored entries, expired ones included.
func (mc *MemoryCache[K, V]) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.order.Len()
}

func (mc *MemoryCache[K, V]) Stats() Stats {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.stats
}

// Purge drops every entry.
func (mc *MemoryCache[K, V]) Purge() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	n := mc.order.Len()
	mc.entries = make(map[K]*list.Element)
	mc.order.Init()
	util.LogDebug("MemoryCache: purged", util.F("entries", n))
}

func (mc *MemoryCache[K, V]) removeElement(elem *list.Element) {
	entry := elem.Value.(*memoryCacheEntry[K, V])
	delete(mc.entries, entry.key)
	mc.order.Remove(elem)
}
