package check

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/leapstack-labs/contractlint/pkg/lint"
)

// DefaultCacheSize is the number of sources a Cache keeps by default.
const DefaultCacheSize = 100

// Cache is a bounded LRU of validator results keyed by the SHA-256 of the
// source text. It is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, []lint.Diagnostic]
	hits    atomic.Int64
	misses  atomic.Int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Size   int   `json:"size"`
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// NewCache creates a cache holding up to size results. A size of zero or
// less selects DefaultCacheSize.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, []lint.Diagnostic](size)
	if err != nil {
		return nil, fmt.Errorf("create validator cache: %w", err)
	}
	return &Cache{entries: entries}, nil
}

// Hash returns the cache key of src.
func Hash(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// Get returns a copy of the cached result for hash.
func (c *Cache) Get(hash string) ([]lint.Diagnostic, bool) {
	diags, ok := c.entries.Get(hash)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return slices.Clone(diags), true
}

// Add stores the result for hash.
func (c *Cache) Add(hash string, diags []lint.Diagnostic) {
	c.entries.Add(hash, slices.Clone(diags))
}

// Invalidate drops the result for hash and reports whether it was present.
func (c *Cache) Invalidate(hash string) bool {
	return c.entries.Remove(hash)
}

// Purge drops every result.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// Stats returns the current size and hit counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{Size: c.entries.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
