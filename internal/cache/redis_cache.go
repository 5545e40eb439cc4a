package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/config"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

type RedisHistoryCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisHistoryCache connects to Redis and verifies the connection.
func NewRedisHistoryCache(cfg config.RedisConfig) (*RedisHistoryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisHistoryCacheWithClient(client, cfg.Prefix), nil
}

// NewRedisHistoryCacheWithClient wraps an existing client.
func NewRedisHistoryCacheWithClient(client redis.UniversalClient, prefix string) *RedisHistoryCache {
	return &RedisHistoryCache{client: client, prefix: prefix}
}

func (c *RedisHistoryCache) BuildKey(roomID string, page domain.Page) string {
	before := page.Before
	if before == "" {
		before = "latest"
	}
	return fmt.Sprintf("%s:%s:%s:%d", c.prefix, roomID, before, page.Limit)
}

func (c *RedisHistoryCache) Get(ctx context.Context, key string) (*domain.HistoryPage, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var page domain.HistoryPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return &page, nil
}

func (c *RedisHistoryCache) Set(ctx context.Context, key string, page *domain.HistoryPage, ttl time.Duration) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisHistoryCache) Close() error {
	return c.client.Close()
}
