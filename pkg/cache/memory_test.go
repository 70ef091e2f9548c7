package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type record struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

func newTestMemory(t *testing.T, opts ...MemoryOption) (*MemoryCache, *time.Time) {
	t.Helper()
	mc := NewMemoryCache(opts...)
	t.Cleanup(func() { _ = mc.Close() })
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return now }
	return mc, &now
}

func TestMemoryRoundTripsStructs(t *testing.T) {
	mc, _ := newTestMemory(t)
	ctx := context.Background()

	in := record{ID: "a", Score: 1.5}
	require.NoError(t, mc.Set(ctx, "k", in, time.Minute))

	var out record
	require.NoError(t, mc.Get(ctx, "k", &out))
	assert.Equal(t, in, out)

	// stored copies are independent of the caller's value
	in.Score = 99
	require.NoError(t, mc.Get(ctx, "k", &out))
	assert.Equal(t, 1.5, out.Score)

	var s string
	require.NoError(t, mc.Set(ctx, "s", "plain", 0))
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "plain", s)
}

func TestMemoryExpiry(t *testing.T) {
	mc, now := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", 1, time.Second))
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	*now = now.Add(2 * time.Second)
	var v int
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	ok, _ = mc.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryDefaultTTL(t *testing.T) {
	mc, now := newTestMemory(t, WithMemoryDefaultTTL(time.Hour))
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "k", 1, 0))
	*now = now.Add(59 * time.Minute)
	ok, _ := mc.Exists(ctx, "k")
	assert.True(t, ok)

	*now = now.Add(2 * time.Minute)
	ok, _ = mc.Exists(ctx, "k")
	assert.False(t, ok, "entries without expiration fall back to the default TTL")
}

func TestMemorySweepDropsExpired(t *testing.T) {
	mc, now := newTestMemory(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "short", 1, time.Second))
	require.NoError(t, mc.Set(ctx, "long", 1, time.Hour))
	*now = now.Add(time.Minute)

	mc.sweep()
	assert.Equal(t, 1, mc.Len())
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	mc, _ := newTestMemory(t, WithMemoryMaxSize(2))
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", 1, 0))
	require.NoError(t, mc.Set(ctx, "b", 2, 0))

	var v int
	require.NoError(t, mc.Get(ctx, "a", &v))
	require.NoError(t, mc.Set(ctx, "c", 3, 0))

	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, mc.Len())
}

func TestMemoryLock(t *testing.T) {
	mc, now := newTestMemory(t)
	ctx := context.Background()

	first, ok, err := mc.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, first)

	_, ok, _ = mc.TryLock(ctx, "lock", time.Minute)
	assert.False(t, ok)

	*now = now.Add(2 * time.Minute)
	second, ok, _ := mc.TryLock(ctx, "lock", time.Minute)
	assert.True(t, ok, "expired lock can be re-acquired")
	assert.NotEqual(t, first, second)

	require.NoError(t, mc.Unlock(ctx, "lock", first))
	_, ok, _ = mc.TryLock(ctx, "lock", time.Minute)
	assert.False(t, ok, "a stale token must not release the new holder's lock")

	require.NoError(t, mc.Unlock(ctx, "lock", second))
	_, ok, _ = mc.TryLock(ctx, "lock", time.Minute)
	assert.True(t, ok)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "session:abc", Key("session", "abc"))
	assert.Equal(t, "x", Key("x"))
}
