// Package qcache implements the query-embedding cache and API-endpoint
// result cache: bounded, TTL'd, thread-safe mappings with hit-rate
// stats. Both are built on maypok86/otter; its W-TinyLFU eviction
// dominates plain LRU for hit rate at equivalent memory while still
// giving the bounded-size guarantee callers need.
package qcache

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/maypok86/otter"
)

// entry is the cached payload: a vector plus the time it was written.
// Expiry is also checked on read, independent of otter's own TTL
// eviction, so a stale entry can never be returned between sweeps.
type entry struct {
	vector    []float32
	writtenAt time.Time
}

// QueryEmbeddingCache maps normalized query text to its embedding.
type QueryEmbeddingCache struct {
	cache otter.Cache[string, entry]
	ttl   time.Duration
	hits  atomic.Int64
	miss  atomic.Int64
}

// NewQueryEmbeddingCache builds a cache with the given TTL (unclamped
// here; config.Validate owns range enforcement) and capacity, evicting
// once the capacity is exceeded.
func NewQueryEmbeddingCache(ttl time.Duration, capacity int) (*QueryEmbeddingCache, error) {
	c, err := otter.MustBuilder[string, entry](capacity).
		WithTTL(ttl).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build query embedding cache: %w", err)
	}
	return &QueryEmbeddingCache{cache: c, ttl: ttl}, nil
}

// Get returns the cached vector for normalizedQuery, or (nil, false) on
// miss or expiry. Thread-safe for concurrent readers and writers.
func (c *QueryEmbeddingCache) Get(normalizedQuery string) ([]float32, bool) {
	e, ok := c.cache.Get(normalizedQuery)
	if !ok || time.Since(e.writtenAt) > c.ttl {
		c.miss.Add(1)
		if ok {
			c.cache.Delete(normalizedQuery)
		}
		return nil, false
	}
	c.hits.Add(1)
	return e.vector, true
}

// Set stores vector for normalizedQuery.
func (c *QueryEmbeddingCache) Set(normalizedQuery string, vector []float32) {
	c.cache.Set(normalizedQuery, entry{vector: vector, writtenAt: time.Now()})
}

// Stats reports hit-rate statistics.
type Stats struct {
	Hits    int64
	Misses  int64
	HitRate float64
	Size    int
}

// Stats returns current hit-rate statistics.
func (c *QueryEmbeddingCache) Stats() Stats {
	hits, miss := c.hits.Load(), c.miss.Load()
	var rate float64
	if total := hits + miss; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Hits: hits, Misses: miss, HitRate: rate, Size: c.cache.Size()}
}

// Close releases cache resources.
func (c *QueryEmbeddingCache) Close() { c.cache.Close() }

// APIEndpointCache caches search_api_contracts results keyed on
// hash(service_ids, first-K dims of query vector, filter flags).
type APIEndpointCache struct {
	cache otter.Cache[string, cachedEndpointResult]
	ttl   time.Duration
	hits  atomic.Int64
	miss  atomic.Int64
}

type cachedEndpointResult struct {
	endpointIDs []string
	writtenAt   time.Time
}

// NewAPIEndpointCache builds the API-endpoint result cache, identical
// in shape to QueryEmbeddingCache.
func NewAPIEndpointCache(ttl time.Duration, capacity int) (*APIEndpointCache, error) {
	c, err := otter.MustBuilder[string, cachedEndpointResult](capacity).
		WithTTL(ttl).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("build api endpoint cache: %w", err)
	}
	return &APIEndpointCache{cache: c, ttl: ttl}, nil
}

// Key builds the cache key: sorted service IDs, the first K dimensions of
// the query vector (quantized to 3 decimal places so floating noise
// doesn't fragment the key space), and a canonical filter-flag string,
// hashed with fnv-1a. A cache key has no cryptographic requirement,
// so a fast non-crypto hash is enough.
func Key(serviceIDs []string, queryVector []float32, k int, filterFlags map[string]bool) string {
	ids := append([]string(nil), serviceIDs...)
	sort.Strings(ids)

	var sb strings.Builder
	sb.WriteString(strings.Join(ids, ","))
	sb.WriteByte('|')

	if k > len(queryVector) {
		k = len(queryVector)
	}
	for i := 0; i < k; i++ {
		sb.WriteString(strconv.FormatFloat(float64(queryVector[i]), 'f', 3, 32))
		sb.WriteByte(',')
	}
	sb.WriteByte('|')

	flagNames := make([]string, 0, len(filterFlags))
	for name := range filterFlags {
		flagNames = append(flagNames, name)
	}
	sort.Strings(flagNames)
	for _, name := range flagNames {
		sb.WriteString(name)
		sb.WriteByte('=')
		if filterFlags[name] {
			sb.WriteString("1")
		} else {
			sb.WriteString("0")
		}
		sb.WriteByte(',')
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(sb.String()))
	return strconv.FormatUint(h.Sum64(), 16)
}

// Get returns the cached endpoint IDs for key, or (nil, false) on miss or
// expiry.
func (c *APIEndpointCache) Get(key string) ([]string, bool) {
	e, ok := c.cache.Get(key)
	if !ok || time.Since(e.writtenAt) > c.ttl {
		c.miss.Add(1)
		if ok {
			c.cache.Delete(key)
		}
		return nil, false
	}
	c.hits.Add(1)
	return e.endpointIDs, true
}

// Set stores endpointIDs under key.
func (c *APIEndpointCache) Set(key string, endpointIDs []string) {
	c.cache.Set(key, cachedEndpointResult{endpointIDs: endpointIDs, writtenAt: time.Now()})
}

// Stats returns current hit-rate statistics.
func (c *APIEndpointCache) Stats() Stats {
	hits, miss := c.hits.Load(), c.miss.Load()
	var rate float64
	if total := hits + miss; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{Hits: hits, Misses: miss, HitRate: rate, Size: c.cache.Size()}
}

// Close releases cache resources.
func (c *APIEndpointCache) Close() { c.cache.Close() }
