package cache

import (
	"context"
	"time"
)

// Cache is the common interface implemented by both the in-memory TTLCache
// and the Redis-backed second tier, so callers (geocoder, intent
// classifier, engine tile cache) can be wired against either without
// knowing which backend is in play.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// memoryCacheAdapter exposes a *TTLCache, which stores interface{} values
// and has no context-aware API, as a Cache operating on []byte.
type memoryCacheAdapter struct {
	cache *TTLCache
}

// AsCache wraps a TTLCache so it satisfies Cache.
func AsCache(c *TTLCache) Cache {
	return &memoryCacheAdapter{cache: c}
}

func (a *memoryCacheAdapter) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := a.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	return b, true, nil
}

func (a *memoryCacheAdapter) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	a.cache.SetWithTTL(key, value, ttl)
	return nil
}

func (a *memoryCacheAdapter) Delete(_ context.Context, key string) error {
	a.cache.Delete(key)
	return nil
}
