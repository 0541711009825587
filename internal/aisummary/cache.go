// Package aisummary implements the LRU+TTL cache in front of an
// external, pluggable LLM summarization sink, grounded in
// original_source/include/api_ai_summary.hpp's Engine-threaded,
// stats-tracking, authorization-gated design.
package aisummary

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	sperrors "github.com/cord19search/searchplatform/pkg/errors"
)

// Summarizer is the pluggable sink; the actual LLM call is an external
// collaborator, not implemented here.
type Summarizer interface {
	Summarize(ctx context.Context, cordUID, abstract string) (string, error)
}

// DefaultTTL matches the reference implementation's 24-hour cache
// lifetime.
const DefaultTTL = 24 * time.Hour

// DefaultCapacity is the default bounded LRU size.
const DefaultCapacity = 1000

type entry struct {
	key        string
	cordUID    string
	summary    string
	generatedAt time.Time
}

// Cache is a bounded LRU keyed "summary|"+cord_uid, with entries
// expiring the cache's TTL (DefaultTTL unless NewCache is given another)
// after insertion. Get treats an expired entry as a
// miss and evicts it.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[string]*list.Element
}

// NewCache builds a cache with the given capacity and TTL; a
// non-positive capacity or ttl falls back to the defaults.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func key(cordUID string) string {
	return "summary|" + cordUID
}

// Get returns the cached summary for cordUID, if present and unexpired.
func (c *Cache) Get(cordUID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key(cordUID)]
	if !ok {
		return "", false
	}
	e := el.Value.(*entry)
	if time.Since(e.generatedAt) > c.ttl {
		c.ll.Remove(el)
		delete(c.items, e.key)
		return "", false
	}
	c.ll.MoveToFront(el)
	return e.summary, true
}

// Put inserts or refreshes a cache entry, evicting the least-recently-used
// entry if the cache is at capacity.
func (c *Cache) Put(cordUID, summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(cordUID)
	if el, ok := c.items[k]; ok {
		el.Value.(*entry).summary = summary
		el.Value.(*entry).generatedAt = time.Now()
		c.ll.MoveToFront(el)
		return
	}
	e := &entry{key: k, cordUID: cordUID, summary: summary, generatedAt: time.Now()}
	el := c.ll.PushFront(e)
	c.items[k] = el
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
}

// Stats tracks cache hit/miss/generation/denial counts, mirroring the
// sync/atomic counter style internal/analytics.Aggregator uses.
type Stats struct {
	hits      atomic.Int64
	misses    atomic.Int64
	generated atomic.Int64
	denied    atomic.Int64
}

// Snapshot is a point-in-time read of Stats.
type Snapshot struct {
	Hits      int64
	Misses    int64
	Generated int64
	Denied    int64
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Generated: s.generated.Load(),
		Denied:    s.denied.Load(),
	}
}

// Service composes the cache, the summarizer sink, and Stats behind a
// single authorization-gated entry point.
type Service struct {
	cache      *Cache
	summarizer Summarizer
	stats      Stats
}

// NewService wires a Cache and Summarizer into a Service.
func NewService(cache *Cache, summarizer Summarizer) *Service {
	return &Service{cache: cache, summarizer: summarizer}
}

// Stats returns the service's stats tracker.
func (s *Service) Stats() *Stats {
	return &s.stats
}

// GetOrGenerate returns the cached summary for cordUID, generating and
// caching one on a miss. It refuses unauthorized callers without
// touching the cache or the summarizer, and never caches an error
// result from the summarizer.
func (s *Service) GetOrGenerate(ctx context.Context, cordUID, abstract string, authorized bool) (string, error) {
	if !authorized {
		s.stats.denied.Add(1)
		return "", sperrors.New(sperrors.ErrUnauthorized, 401, "AI summary access requires authorization")
	}
	if summary, ok := s.cache.Get(cordUID); ok {
		s.stats.hits.Add(1)
		return summary, nil
	}
	s.stats.misses.Add(1)
	summary, err := s.summarizer.Summarize(ctx, cordUID, abstract)
	if err != nil {
		return "", err
	}
	s.stats.generated.Add(1)
	s.cache.Put(cordUID, summary)
	return summary, nil
}
