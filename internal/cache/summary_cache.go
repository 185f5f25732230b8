// Package cache provides a bounded in-memory cache for computed
// behavioral summaries. Duplicate requests for the same (user,
// reference date) within the TTL reuse the prior result instead of
// re-running the pipeline. Nothing here outlives the process.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/reena96/spendsense-sub001/internal/core"
)

// SummaryCache is an LRU cache with TTL keyed by (user, reference
// date). Expired entries are dropped lazily on lookup.
type SummaryCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List
}

type summaryEntry struct {
	key       string
	summary   *core.BehavioralSummary
	expiresAt time.Time
}

func NewSummaryCache(maxSize int, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Key builds the cache key for one (user, reference date) pair.
func Key(userID string, reference time.Time) string {
	return userID + "|" + core.Day(reference).Format("2006-01-02")
}

// Get returns the cached summary for key, if present and not expired.
func (c *SummaryCache) Get(key string) (*core.BehavioralSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*summaryEntry)
	if time.Now().After(entry.expiresAt) {
		c.remove(elem)
		return nil, false
	}
	c.order.MoveToFront(elem)
	return entry.summary, true
}

// Set stores a summary under key, evicting the least recently used
// entry when the cache is full.
func (c *SummaryCache) Set(key string, summary *core.BehavioralSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &summaryEntry{
		key:       key,
		summary:   summary,
		expiresAt: time.Now().Add(c.ttl),
	}
	if elem, ok := c.entries[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(entry)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *SummaryCache) remove(elem *list.Element) {
	entry := elem.Value.(*summaryEntry)
	delete(c.entries, entry.key)
	c.order.Remove(elem)
}

// Size returns the current number of cached summaries.
func (c *SummaryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
