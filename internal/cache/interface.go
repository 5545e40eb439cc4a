package cache

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// HistoryCache stores history pages that lie behind a cursor. Such pages
// never change once written, since messages are append-only.
type HistoryCache interface {
	Get(ctx context.Context, key string) (*domain.HistoryPage, error)
	Set(ctx context.Context, key string, page *domain.HistoryPage, ttl time.Duration) error
	BuildKey(roomID string, page domain.Page) string
	Close() error
}
