package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

// NoopHistoryCache always misses. It is used when Redis is disabled.
type NoopHistoryCache struct{}

func NewNoopHistoryCache() *NoopHistoryCache { return &NoopHistoryCache{} }

func (NoopHistoryCache) Get(context.Context, string) (*domain.HistoryPage, error) {
	return nil, ErrCacheMiss
}

func (NoopHistoryCache) Set(context.Context, string, *domain.HistoryPage, time.Duration) error {
	return nil
}

func (NoopHistoryCache) BuildKey(roomID string, page domain.Page) string {
	return fmt.Sprintf("%s:%s:%d", roomID, page.Before, page.Limit)
}

func (NoopHistoryCache) Close() error { return nil }
