// Package cache holds trained scorers so repeated scoring calls with a
// similar workload shape skip retraining.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vsatops/linksight/internal/forest"
)

const (
	// DefaultTTL is how long a cached scorer stays usable.
	DefaultTTL = 60 * time.Minute
	// DefaultMaxEntries bounds the cache; inserting beyond it evicts
	// the entry with the lowest (hits, last-accessed) tuple.
	DefaultMaxEntries = 10
)

// entry is one cached scorer. Mutated only under the cache lock.
type entry struct {
	model        *forest.Forest
	createdAt    time.Time
	expiresAt    time.Time
	lastAccessed time.Time
	hits         int
}

// ModelCache is a thread-safe, TTL- and capacity-bounded cache of
// trained scorers. A single mutex covers get/set/evict/cleanup; tree
// building and scoring never run under it.
type ModelCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[Key]*entry

	now func() time.Time
}

// New creates a cache. Non-positive arguments fall back to the
// defaults.
func New(ttl time.Duration, maxEntries int) *ModelCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ModelCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[Key]*entry),
		now:        time.Now,
	}
}

// Get returns the cached scorer for key, if present and unexpired.
// An expired entry is evicted and reported as a miss.
func (c *ModelCache) Get(key Key) (*forest.Forest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		slog.Debug("model cache entry expired", "key", key.String())
		return nil, false
	}
	e.hits++
	e.lastAccessed = c.now()
	return e.model, true
}

// Set caches a trained scorer under key, evicting the least-used entry
// first when at capacity. Racing inserts for the same key are
// last-writer-wins; equally shaped scorers are interchangeable.
func (c *ModelCache) Set(key Key, model *forest.Forest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLeastUsed()
	}
	now := c.now()
	c.entries[key] = &entry{
		model:        model,
		createdAt:    now,
		expiresAt:    now.Add(c.ttl),
		lastAccessed: now,
	}
}

// evictLeastUsed removes the entry with the lowest (hits, lastAccessed)
// tuple. Caller holds the lock.
func (c *ModelCache) evictLeastUsed() {
	var victim Key
	var victimEntry *entry
	for k, e := range c.entries {
		if victimEntry == nil ||
			e.hits < victimEntry.hits ||
			(e.hits == victimEntry.hits && e.lastAccessed.Before(victimEntry.lastAccessed)) {
			victim = k
			victimEntry = e
		}
	}
	if victimEntry != nil {
		delete(c.entries, victim)
		slog.Debug("evicted least-used model", "key", victim.String())
	}
}

// CleanupExpired removes every expired entry and returns how many were
// dropped.
func (c *ModelCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Clear drops every entry.
func (c *ModelCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*entry)
}

// EntryStats describes one cached entry for monitoring.
type EntryStats struct {
	Key          string    `json:"key"`
	Hits         int       `json:"hits"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// Stats is a point-in-time snapshot of the cache.
type Stats struct {
	Size      int          `json:"size"`
	MaxSize   int          `json:"max_size"`
	TTL       string       `json:"ttl"`
	TotalHits int          `json:"total_hits"`
	Entries   []EntryStats `json:"models"`
}

// Stats snapshots the cache for monitoring endpoints and the CLI.
func (c *ModelCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:    len(c.entries),
		MaxSize: c.maxEntries,
		TTL:     c.ttl.String(),
	}
	for k, e := range c.entries {
		s.TotalHits += e.hits
		s.Entries = append(s.Entries, EntryStats{
			Key:          k.String(),
			Hits:         e.hits,
			CreatedAt:    e.createdAt,
			ExpiresAt:    e.expiresAt,
			LastAccessed: e.lastAccessed,
		})
	}
	return s
}
