package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/Cosmic-Tiger-AU/tigercache/resource"
)

// Sized is implemented by values stored in an LRU so it can account for
// their memory footprint.
type Sized interface {
	Size() int
}

type entry[V Sized] struct {
	key   string
	value V
}

// LRU is a bounded, least-recently-used cache of Sized values keyed by
// string, optionally backed by a shared resource.Controller for global
// memory accounting. Entries can be pinned so eviction skips them; this is
// how the index keeps dirty (uncommitted) cache entries alive until commit
// or rollback (spec §4.4, §4.5).
type LRU[V Sized] struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[string]*list.Element
	evictList *list.List
	pinned    map[string]int
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an LRU with the given byte capacity. If rc is non-nil, it is
// consulted (and updated) on every admission/eviction so several LRUs can
// share one aggregate memory budget.
func New[V Sized](capacity int64, rc *resource.Controller) *LRU[V] {
	return &LRU[V]{
		capacity:  capacity,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		pinned:    make(map[string]int),
		rc:        rc,
	}
}

// Get returns the cached value for key and reports whether it was present.
// A hit moves the entry to the front of the LRU order.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(el)
		return el.Value.(*entry[V]).value, true
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// Set admits value under key, evicting unpinned LRU entries (from this
// cache only) as needed to make room. It returns false if the value could
// not be admitted because the resource controller denied the memory or
// because eviction could not free enough unpinned space.
func (c *LRU[V]) Set(key string, value V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setLocked(key, value)
}

func (c *LRU[V]) setLocked(key string, value V) bool {
	newSize := int64(value.Size())

	if el, ok := c.items[key]; ok {
		old := el.Value.(*entry[V])
		oldSize := int64(old.value.Size())
		delta := newSize - oldSize
		if delta > 0 && c.rc != nil && !c.rc.TryAcquireMemory(delta) {
			return false
		}
		if delta < 0 && c.rc != nil {
			c.rc.ReleaseMemory(-delta)
		}
		old.value = value
		c.size += delta
		c.evictList.MoveToFront(el)
		c.evictUnpinnedLocked()
		return true
	}

	if c.capacity > 0 && newSize > c.capacity {
		return false
	}

	for c.capacity > 0 && c.size+newSize > c.capacity {
		if _, ok := c.evictOneLocked(); !ok {
			break
		}
	}
	if c.capacity > 0 && c.size+newSize > c.capacity {
		return false
	}

	if c.rc != nil && !c.rc.TryAcquireMemory(newSize) {
		return false
	}

	el := c.evictList.PushFront(&entry[V]{key: key, value: value})
	c.items[key] = el
	c.size += newSize
	return true
}

// Delete removes key unconditionally, ignoring pin state. The index calls
// this directly (not eviction) when a document or token is actually
// removed from the index.
func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeElementLocked(el)
	}
	delete(c.pinned, key)
}

// Pin marks key as non-evictable. Pins are reference-counted so nested
// staged mutations on the same key compose correctly.
func (c *LRU[V]) Pin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pinned[key]++
}

// Unpin releases one pin reference on key. Once the count reaches zero the
// entry becomes evictable again.
func (c *LRU[V]) Unpin(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.pinned[key]; ok {
		if n <= 1 {
			delete(c.pinned, key)
		} else {
			c.pinned[key] = n - 1
		}
	}
}

// EvictOne evicts the least-recently-used unpinned entry, if any,
// returning its key and whether an entry was evicted. Used by
// cache.Manager to implement round-robin shedding across caches under
// memory pressure.
func (c *LRU[V]) EvictOne() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictOneLocked()
}

// Clear evicts every unpinned entry. Used for the query cache's wholesale
// invalidation on any mutation, and for the "clear query cache first"
// aggressive-eviction tier.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if _, ok := c.evictOneLocked(); !ok {
			return
		}
	}
}

// InvalidateFunc removes every unpinned entry whose key satisfies pred.
func (c *LRU[V]) InvalidateFunc(pred func(key string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for key, el := range c.items {
		if c.pinned[key] > 0 {
			continue
		}
		if pred(key) {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		c.removeElementLocked(el)
	}
}

// Len returns the number of entries currently cached.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the current aggregate size in bytes of this cache's entries.
func (c *LRU[V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Stats returns cumulative hit/miss counts.
func (c *LRU[V]) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU[V]) evictUnpinnedLocked() {
	for c.capacity > 0 && c.size > c.capacity {
		if _, ok := c.evictOneLocked(); !ok {
			break
		}
	}
}

func (c *LRU[V]) evictOneLocked() (string, bool) {
	for el := c.evictList.Back(); el != nil; el = el.Prev() {
		key := el.Value.(*entry[V]).key
		if c.pinned[key] > 0 {
			continue
		}
		c.removeElementLocked(el)
		return key, true
	}
	return "", false
}

func (c *LRU[V]) removeElementLocked(el *list.Element) {
	c.evictList.Remove(el)
	e := el.Value.(*entry[V])
	delete(c.items, e.key)
	size := int64(e.value.Size())
	c.size -= size
	if c.rc != nil {
		c.rc.ReleaseMemory(size)
	}
}
