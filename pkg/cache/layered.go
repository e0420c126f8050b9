package cache

import (
	"context"
	"fmt"
	"time"
)

// LayeredCache reads through a bounded memory LRU (L1) to Redis (L2). Writes
// land in both; L1 entries expire with their L2 copy.
type LayeredCache struct {
	l1 *MemoryCache
	l2 *RedisCache
}

// NewLayeredCache puts an LRU of l1Size entries in front of rc.
func NewLayeredCache(rc *RedisCache, l1Size int) *LayeredCache {
	return &LayeredCache{
		l1: NewMemoryCache(WithMemoryMaxSize(l1Size)),
		l2: rc,
	}
}

// Set always fills L1. An L2 failure is returned so callers can log it, but
// the value stays readable from memory.
func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	_ = lc.l1.Set(ctx, key, value, expiration)
	if err := lc.l2.Set(ctx, key, value, expiration); err != nil {
		return fmt.Errorf("l2 set: %w", err)
	}
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	}
	ttl, err := lc.l2.getWithTTL(ctx, key, dest)
	if err != nil {
		return err
	}
	_ = lc.l1.Set(ctx, key, deref(dest), ttl)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.l1.Delete(ctx, keys...)
	return lc.l2.Delete(ctx, keys...)
}

// Memory exposes the L1 layer.
func (lc *LayeredCache) Memory() *MemoryCache { return lc.l1 }

func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}
