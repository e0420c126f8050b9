package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string
	Items []int
}

func TestMemoryCache_GetAssignsTypedValue(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(4))
	defer mc.Close()
	ctx := context.Background()

	in := &payload{Name: "a", Items: []int{1, 2}}
	require.NoError(t, mc.Set(ctx, "k", in, 0))

	var out *payload
	require.NoError(t, mc.Get(ctx, "k", &out))
	assert.Same(t, in, out)
}

func TestMemoryCache_GetConvertsCompatibleShapes(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", map[string]any{"Name": "b", "Items": []int{3}}, 0))

	var out payload
	require.NoError(t, mc.Get(ctx, "k", &out))
	assert.Equal(t, payload{Name: "b", Items: []int{3}}, out)
}

func TestMemoryCache_Miss(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()

	var out string
	assert.ErrorIs(t, mc.Get(context.Background(), "nope", &out), ErrCacheMiss)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", "1", 0))
	require.NoError(t, mc.Set(ctx, "b", "2", 0))

	var s string
	require.NoError(t, mc.Get(ctx, "a", &s)) // a is now most recent
	require.NoError(t, mc.Set(ctx, "c", "3", 0))

	assert.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss, "b should be evicted")
	require.NoError(t, mc.Get(ctx, "a", &s))
	assert.Equal(t, "1", s)
	assert.Equal(t, 2, mc.Len())
	assert.Equal(t, uint64(1), mc.Evictions())
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", "1", 0))
	require.NoError(t, mc.Set(ctx, "b", "2", 0))
	require.NoError(t, mc.Set(ctx, "b", "3", 0))

	assert.Equal(t, 2, mc.Len())
	assert.Zero(t, mc.Evictions())
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Nanosecond))
	time.Sleep(2 * time.Millisecond)

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
}

func TestJoinKey(t *testing.T) {
	assert.Equal(t, "dataset:primary:AAPL.US:20240101:20240131",
		JoinKey("dataset", "primary", "AAPL.US", "20240101", "20240131"))
}

func TestWithRedisAddr(t *testing.T) {
	cfg := &RedisConfig{}
	WithRedisAddr("cache.internal:6380")(cfg)
	assert.Equal(t, "cache.internal:6380", cfg.Addr)

	WithRedisAddr("cache.internal")(cfg)
	assert.Equal(t, "cache.internal:6379", cfg.Addr)

	WithRedisAddr("")(cfg)
	assert.Equal(t, "cache.internal:6379", cfg.Addr)
}
