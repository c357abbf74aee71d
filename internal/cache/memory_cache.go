package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/cart-service/internal/config"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type memoryEntry struct {
	data    []byte
	version int64
}

// memoryCache is the single-instance fallback used when Redis is not configured. Values are
// stored as JSON so callers never share mutable state with the cache.
type memoryCache struct {
	// serialises the version compare with the write
	mu  sync.Mutex
	lru *expirable.LRU[string, memoryEntry]
}

// NewMemoryCache builds a bounded LRU whose entries all expire after cfg.DefaultTTL; the
// per-call ttl passed to Set is not honoured.
func NewMemoryCache(cfg *config.CacheConfig) Cache {
	size := cfg.MemorySize
	if size <= 0 {
		size = 1000
	}

	return &memoryCache{
		lru: expirable.NewLRU[string, memoryEntry](size, nil, cfg.DefaultTTL),
	}
}

func (m *memoryCache) Get(_ context.Context, key string, value any) (bool, error) {
	entry, ok := m.lru.Get(key)
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(entry.data, value); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache data for key %s: %w", key, err)
	}

	return true, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value any, version int64, _ time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.lru.Peek(key); ok && current.version >= version {
		return false, nil
	}

	m.lru.Add(key, memoryEntry{data: data, version: version})

	return true, nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.lru.Remove(key)

	return nil
}

func (m *memoryCache) Close() error {
	m.lru.Purge()

	return nil
}
