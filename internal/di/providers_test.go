package di

import (
	"context"
	"testing"
	"time"

	"UMKMForecast/pkg/cache"
	"UMKMForecast/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvideCacheWithoutRedis(t *testing.T) {
	cfg := &config.Config{}
	cfg.Session.TTL = time.Hour

	c := ProvideCache(cfg, nil)
	t.Cleanup(func() { _ = c.Close() })
	require.IsType(t, &cache.MemoryCache{}, c)

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, 0))
	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
