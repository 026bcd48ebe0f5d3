// Package cache keeps the last analysis result per job identity for a
// bounded freshness window.
package cache

import (
	"sync"
	"time"

	"github.com/jimezsa/ghostcli/internal/models"
)

// DefaultFreshness is how long a cached result is served without re-querying.
const DefaultFreshness = 30 * time.Minute

// Entry is a cached result and the time it was stored.
type Entry struct {
	Result   models.AnalysisResult
	CachedAt time.Time
}

// Cache maps job identities to their most recent completed result.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]Entry
	freshness time.Duration
	now       func() time.Time
}

func New(freshness time.Duration, now func() time.Time) *Cache {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries:   map[string]Entry{},
		freshness: freshness,
		now:       now,
	}
}

// Get returns the result for key if it is still within the freshness window.
// Stale entries are dropped.
func (c *Cache) Get(key string) (models.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return models.AnalysisResult{}, false
	}
	if c.now().Sub(entry.CachedAt) >= c.freshness {
		delete(c.entries, key)
		return models.AnalysisResult{}, false
	}
	return entry.Result, true
}

// Put stores result for key, replacing any previous entry.
func (c *Cache) Put(key string, result models.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{Result: result, CachedAt: c.now()}
}

// Purge drops stale entries and returns how many were removed.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	now := c.now()
	for key, entry := range c.entries {
		if now.Sub(entry.CachedAt) >= c.freshness {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]Entry{}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
