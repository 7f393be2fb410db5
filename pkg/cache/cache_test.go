package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

func TestMemoryCacheRoundTripsStructs(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "scan:swing", payload{Symbol: "TCS", Score: 61}, time.Minute))

	var got payload
	require.NoError(t, mc.Get(ctx, "scan:swing", &got))
	assert.Equal(t, payload{Symbol: "TCS", Score: 61}, got)

	var raw string
	require.NoError(t, mc.Get(ctx, "scan:swing", &raw))
	assert.JSONEq(t, `{"symbol":"TCS","score":61}`, raw)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "k", "v", time.Second))
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "a", "1", 0))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", "2", 0))
	now = now.Add(time.Second)

	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", "3", 0))

	assert.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &s))
	assert.NoError(t, mc.Get(ctx, "c", &s))
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	for _, k := range []string{"scan:swing:a", "scan:intraday:b", "snapshot:1"} {
		require.NoError(t, mc.Set(ctx, k, "x", time.Minute))
	}
	require.NoError(t, mc.DeleteByPattern(ctx, "scan:*"))

	ok, _ := mc.Exists(ctx, "scan:swing:a", "scan:intraday:b")
	assert.False(t, ok)
	ok, _ = mc.Exists(ctx, "snapshot:1")
	assert.True(t, ok)
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock:scan", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = mc.TryLock(ctx, "lock:scan", time.Minute)
	assert.False(t, ok)

	require.NoError(t, mc.Unlock(ctx, "lock:scan"))
	ok, _ = mc.TryLock(ctx, "lock:scan", time.Minute)
	assert.True(t, ok)
}

func TestLayeredCachePromotesRemoteHits(t *testing.T) {
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote)
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, remote.Set(ctx, "k", payload{Symbol: "INFY"}, time.Minute))

	var got payload
	require.NoError(t, lc.Get(ctx, "k", &got))
	assert.Equal(t, "INFY", got.Symbol)

	require.NoError(t, remote.Delete(ctx, "k"))
	got = payload{}
	require.NoError(t, lc.Get(ctx, "k", &got), "served from L1")
	assert.Equal(t, "INFY", got.Symbol)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "scan:swing", GenerateKey("scan", "swing"))
	assert.Equal(t, "scan:swing:3", GenerateKeyWithParams("scan", "swing", 3))
}
