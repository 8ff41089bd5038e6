// Package memory provides bounded in-memory LRU caches for the
// retrieval pipeline.
package memory

import (
	"container/list"
	"sync"

	"github.com/corvidae-labs/archivist/internal/core/domain"
	"github.com/corvidae-labs/archivist/internal/core/ports/driven"
)

// Ensure the cache types implement their interfaces.
var (
	_ driven.LeadCache      = (*LeadCache)(nil)
	_ driven.CandidateCache = (*CandidateCache)(nil)
)

// LRU is a bounded least-recently-used cache keyed by string.
// A capacity of zero disables the cache entirely.
//
// All operations serialize through one mutex, so concurrent get/put
// from parallel queries never lose entries mid-update.
type LRU[V any] struct {
	mu        sync.Mutex
	capacity  int
	order     *list.List // front = most recently used
	items     map[string]*list.Element
	hits      uint64
	misses    uint64
	evictions uint64
}

type lruEntry[V any] struct {
	key string
	val V
}

// NewLRU creates an LRU cache with the given capacity.
func NewLRU[V any](capacity int) *LRU[V] {
	if capacity < 0 {
		capacity = 0
	}
	return &LRU[V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns the value for key and promotes the entry to most
// recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	var zero V
	if c.capacity == 0 {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[V]).val, true
}

// Put inserts or refreshes the value for key, evicting the least
// recently used entry when over capacity.
func (c *LRU[V]) Put(key string, val V) {
	if c.capacity == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry[V]).val = val
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&lruEntry[V]{key: key, val: val})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry[V]).key)
		c.evictions++
	}
}

// Len returns the current entry count.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats returns hit/miss/eviction counters.
func (c *LRU[V]) Stats() driven.CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return driven.CacheStats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions}
}

// LeadCache maps document paths to summary vectors.
type LeadCache = LRU[domain.Vector]

// NewLeadCache creates a lead-vector cache with the given capacity.
func NewLeadCache(capacity int) *LeadCache {
	return NewLRU[domain.Vector](capacity)
}

// CandidateCache maps normalised queries to candidate lists.
type CandidateCache = LRU[[]domain.DocumentRef]

// NewCandidateCache creates a candidate-list cache with the given capacity.
func NewCandidateCache(capacity int) *CandidateCache {
	return NewLRU[[]domain.DocumentRef](capacity)
}
