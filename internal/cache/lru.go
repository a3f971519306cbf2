package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stylescan/stylescan/internal/scanner"
)

// LRUCache implements an in-memory LRU cache of scan findings.
type LRUCache struct {
	maxEntries int
	ttl        time.Duration

	mu      sync.RWMutex
	entries map[string]*list.Element
	order   *list.List

	hits   int64
	misses int64
}

type lruEntry struct {
	key       string
	findings  []scanner.Finding
	expiresAt time.Time
}

// NewLRUCache creates a new LRU cache.
func NewLRUCache(maxEntries int, ttl time.Duration) *LRUCache {
	return &LRUCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *LRUCache) Get(key string) ([]scanner.Finding, bool, error) {
	c.mu.RLock()
	elem, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&c.misses, 1)
		return nil, false, nil
	}

	entry := elem.Value.(*lruEntry)

	// Check expiration
	if time.Now().After(entry.expiresAt) {
		_ = c.Delete(key)
		atomic.AddInt64(&c.misses, 1)
		return nil, false, nil
	}

	// Move to front (most recently used)
	c.mu.Lock()
	c.order.MoveToFront(elem)
	c.mu.Unlock()

	atomic.AddInt64(&c.hits, 1)
	return entry.findings, true, nil
}

func (c *LRUCache) Set(key string, findings []scanner.Finding) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Update existing entry
	if elem, exists := c.entries[key]; exists {
		entry := elem.Value.(*lruEntry)
		entry.findings = findings
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return nil
	}

	// Evict if at capacity
	if c.order.Len() >= c.maxEntries {
		c.evictOldest()
	}

	// Add new entry
	entry := &lruEntry{
		key:       key,
		findings:  findings,
		expiresAt: time.Now().Add(c.ttl),
	}
	elem := c.order.PushFront(entry)
	c.entries[key] = elem

	return nil
}

func (c *LRUCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.entries[key]; exists {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
	return nil
}

func (c *LRUCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

// Close is a no-op for the in-memory backend.
func (c *LRUCache) Close() error {
	return nil
}

func (c *LRUCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Entries: c.order.Len(),
	}
}

func (c *LRUCache) evictOldest() {
	elem := c.order.Back()
	if elem != nil {
		entry := elem.Value.(*lruEntry)
		delete(c.entries, entry.key)
		c.order.Remove(elem)
	}
}
