package orchestrator

import (
	"sync"
	"time"

	"github.com/google/btree"
)

// CacheEntry is one cached payload for an endpoint. Quality is 100 for
// primary-sourced data and lower for data that came in through a fallback
// path
type CacheEntry struct {
	Endpoint   string
	Payload    []byte
	CapturedAt time.Time
	Quality    int
	Expiry     time.Time
}

// fallbackCache stores the last good payload per endpoint. Expiry is checked
// lazily on read rather than by a background sweep; the btree expiry index
// exists so that an explicit Purge can find expired entries without scanning
// the whole map
type fallbackCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry

	// Ordered by expiry time, ties broken by endpoint name
	expiryIndex *btree.BTreeG[*CacheEntry]
}

func newFallbackCache() *fallbackCache {
	return &fallbackCache{
		entries: make(map[string]*CacheEntry),
		expiryIndex: btree.NewG(2, func(a, b *CacheEntry) bool {
			if a.Expiry.Equal(b.Expiry) {
				return a.Endpoint < b.Endpoint
			}
			return a.Expiry.Before(b.Expiry)
		}),
	}
}

// Set stores a payload for an endpoint, replacing any previous entry
func (c *fallbackCache) Set(endpoint string, payload []byte, quality int, ttl time.Duration) {
	now := time.Now()
	entry := &CacheEntry{
		Endpoint:   endpoint,
		Payload:    payload,
		CapturedAt: now,
		Quality:    quality,
		Expiry:     now.Add(ttl),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[endpoint]; ok {
		c.expiryIndex.Delete(old)
	}

	c.entries[endpoint] = entry
	c.expiryIndex.ReplaceOrInsert(entry)
}

// Get returns the cached entry for an endpoint if one exists and has not
// expired. Expired entries are evicted on read
func (c *fallbackCache) Get(endpoint string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[endpoint]
	if !ok {
		return nil, false
	}

	if time.Now().After(entry.Expiry) {
		delete(c.entries, endpoint)
		c.expiryIndex.Delete(entry)
		return nil, false
	}

	return entry, true
}

// PurgeStats describes the outcome of a Purge
type PurgeStats struct {
	// NumPurged is how many entries were evicted
	NumPurged int

	// NextExpiry is the expiry time of the next entry due to expire, or nil
	// if the cache is now empty
	NextExpiry *time.Time
}

// Purge evicts every entry that expired before the given time. Reads already
// evict lazily, so this only matters for reclaiming memory from endpoints
// that are never read again
func (c *fallbackCache) Purge(before time.Time) PurgeStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	expired := make([]*CacheEntry, 0)
	var nextExpiry *time.Time

	c.expiryIndex.Ascend(func(entry *CacheEntry) bool {
		if entry.Expiry.Before(before) {
			expired = append(expired, entry)
			return true
		}

		nextExpiry = &entry.Expiry
		return false
	})

	for _, entry := range expired {
		delete(c.entries, entry.Endpoint)
		c.expiryIndex.Delete(entry)
	}

	return PurgeStats{
		NumPurged:  len(expired),
		NextExpiry: nextExpiry,
	}
}

// Len returns the number of entries currently stored, including any that have
// expired but not yet been evicted
func (c *fallbackCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
