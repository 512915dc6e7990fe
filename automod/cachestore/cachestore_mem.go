package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// In-process cache, used when no redis is configured. Every cache name shares one LRU, so capacity bounds the total across names.
type MemCacheStore struct {
	Data *expirable.LRU[string, string]
}

var _ CacheStore = MemCacheStore{}

func NewMemCacheStore(capacity int, ttl time.Duration) MemCacheStore {
	onEvict := func(key string, val string) {
		memCacheEvictions.Inc()
	}
	return MemCacheStore{
		Data: expirable.NewLRU[string, string](capacity, onEvict, ttl),
	}
}

func memCacheKey(name, key string) string {
	return name + "/" + key
}

func (s MemCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	v, ok := s.Data.Get(memCacheKey(name, key))
	recordRead(name, ok)
	if !ok {
		return "", nil
	}
	return v, nil
}

func (s MemCacheStore) Set(ctx context.Context, name, key string, val string) error {
	s.Data.Add(memCacheKey(name, key), val)
	return nil
}

// Purging an absent key is not an error.
func (s MemCacheStore) Purge(ctx context.Context, name, key string) error {
	s.Data.Remove(memCacheKey(name, key))
	return nil
}

// Number of live entries across all cache names.
func (s MemCacheStore) Len() int {
	return s.Data.Len()
}
