package cache

import (
	"context"
	"time"
)

// LayeredCache implements two-level cache (L1: Memory, L2: Redis).
// Locks and existence checks always go to L2, the shared source of truth.
type LayeredCache struct {
	mem   *MemoryCache
	redis *RedisCache
	l1TTL time.Duration
}

// NewLayeredCache creates a layered cache with memory and Redis.
func NewLayeredCache(redisCache *RedisCache, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		MemoryTTL:     30 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		mem:   NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		redis: redisCache,
		l1TTL: cfg.MemoryTTL,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	// Write-through: Redis first, then memory
	if err := lc.redis.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.mem.Set(ctx, key, value, lc.memTTL(expiration))
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.mem.Get(ctx, key, dest); err == nil {
		return nil
	}

	if err := lc.redis.Get(ctx, key, dest); err != nil {
		return err
	}

	_ = lc.mem.Set(ctx, key, dest, lc.l1TTL)
	return nil
}

// memTTL keeps L1 entries from outliving either their Redis copy or the L1 bound,
// so writes from other replicas become visible within l1TTL.
func (lc *LayeredCache) memTTL(expiration time.Duration) time.Duration {
	if expiration > 0 && expiration < lc.l1TTL {
		return expiration
	}
	return lc.l1TTL
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.mem.Delete(ctx, keys...)
	return lc.redis.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	return lc.redis.Exists(ctx, keys...)
}

func (lc *LayeredCache) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	return lc.redis.TryLock(ctx, key, ttl)
}

func (lc *LayeredCache) Unlock(ctx context.Context, key, token string) error {
	return lc.redis.Unlock(ctx, key, token)
}

func (lc *LayeredCache) Ping(ctx context.Context) error {
	return lc.redis.Ping(ctx)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.mem.Close()
	return lc.redis.Close()
}
