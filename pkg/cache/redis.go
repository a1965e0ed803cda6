package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/geoqa/geoqa/pkg/monitoring"
	"github.com/geoqa/geoqa/pkg/tracing"
)

// RedisCache is the optional second-tier cache, grounded on
// h3-spatial-cache's internal/cache/redisstore client. It speaks the same
// Cache interface as the in-memory TTLCache so a component can be handed
// either one, or both behind a TieredCache, without caring which it got.
type RedisCache struct {
	rdb       *redis.Client
	cacheType string
	logger    zerolog.Logger
}

// NewRedisCache dials addr and verifies connectivity with a Ping. cacheType
// tags tracing spans and metrics the same way TTLCache's cacheType does.
func NewRedisCache(ctx context.Context, addr, cacheType string) (*RedisCache, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     32,
		MinIdleConns: 2,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return &RedisCache{
		rdb:       rdb,
		cacheType: cacheType,
		logger:    log.With().Str("component", "cache.redis").Str("cache_type", cacheType).Logger(),
	}, nil
}

// NewRedisCacheFromClient wraps an already-constructed *redis.Client,
// letting tests point it at a miniredis instance instead of dialing out.
func NewRedisCacheFromClient(rdb *redis.Client, cacheType string) *RedisCache {
	return &RedisCache{
		rdb:       rdb,
		cacheType: cacheType,
		logger:    log.With().Str("component", "cache.redis").Str("cache_type", cacheType).Logger(),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.redis.get")
	defer span.End()

	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(tracing.CacheAttributes(c.cacheType, false, key)...)
		monitoring.RecordCacheMiss(c.cacheType)
		return nil, false, nil
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		tracing.RecordError(ctx, err)
		return nil, false, fmt.Errorf("redis GET %q: %w", key, err)
	}

	span.SetAttributes(tracing.CacheAttributes(c.cacheType, true, key)...)
	monitoring.RecordCacheHit(c.cacheType)
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := tracing.StartSpan(ctx, "cache.redis.set")
	defer span.End()

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
		tracing.RecordError(ctx, err)
		return fmt.Errorf("redis SET %q: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, span := tracing.StartSpan(ctx, "cache.redis.delete")
	defer span.End()

	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		tracing.RecordError(ctx, err)
		return fmt.Errorf("redis DEL %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// TieredCache reads from an in-memory L1 before falling back to a Redis L2,
// and populates L1 from an L2 hit. Writes go to both tiers.
type TieredCache struct {
	l1 Cache
	l2 Cache
}

// NewTieredCache builds a two-level cache. l2 may be nil, in which case the
// tiered cache behaves exactly like l1 alone (used when Redis is not
// configured, per SPEC_FULL.md's optional second-tier cache).
func NewTieredCache(l1 Cache, l2 Cache) *TieredCache {
	return &TieredCache{l1: l1, l2: l2}
}

func (t *TieredCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := t.l1.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}
	if t.l2 == nil {
		return nil, false, nil
	}

	v, ok, err := t.l2.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}

	// Warm L1 from the L2 hit; a short TTL is fine since L2 remains authoritative.
	_ = t.l1.Set(ctx, key, v, time.Minute)
	return v, true, nil
}

func (t *TieredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := t.l1.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if t.l2 == nil {
		return nil
	}
	return t.l2.Set(ctx, key, value, ttl)
}

func (t *TieredCache) Delete(ctx context.Context, key string) error {
	if err := t.l1.Delete(ctx, key); err != nil {
		return err
	}
	if t.l2 == nil {
		return nil
	}
	return t.l2.Delete(ctx, key)
}
