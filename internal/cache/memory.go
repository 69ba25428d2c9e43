package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultSize is the entry bound used when none is configured.
const DefaultSize = 1000

// MemoryCache is a bounded in-process LRU with optional expiry.
type MemoryCache struct {
	lru *expirable.LRU[Key, string]
}

// NewMemoryCache creates a cache holding at most size entries. A ttl of zero
// keeps entries until they are evicted by size.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryCache{lru: expirable.NewLRU[Key, string](size, nil, ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key Key) (string, bool, error) {
	v, ok := m.lru.Get(key)
	return v, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key Key, answer string) error {
	m.lru.Add(key, answer)
	return nil
}

// Len returns the number of live entries.
func (m *MemoryCache) Len() int { return m.lru.Len() }
