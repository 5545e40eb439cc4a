package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/config"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

func TestNoopCacheAlwaysMisses(t *testing.T) {
	c := NewNoopHistoryCache()
	ctx := context.Background()
	key := c.BuildKey("r", domain.Page{Before: "m1", Limit: 10})

	require.NoError(t, c.Set(ctx, key, &domain.HistoryPage{}, time.Minute))
	_, err := c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Close())
}

func TestRedisBuildKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	c := NewRedisHistoryCacheWithClient(client, "roomsync:history")
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "roomsync:history:r:m1:20", c.BuildKey("r", domain.Page{Before: "m1", Limit: 20}))
	assert.Equal(t, "roomsync:history:r:latest:50", c.BuildKey("r", domain.Page{Limit: 50}))
	assert.NotEqual(t,
		c.BuildKey("r", domain.Page{Before: "m1", Limit: 20}),
		c.BuildKey("r", domain.Page{Before: "m1", Limit: 21}),
	)
}

func TestRedisUnreachable(t *testing.T) {
	_, err := NewRedisHistoryCache(config.RedisConfig{Address: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
