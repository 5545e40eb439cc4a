package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/cache"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/repository"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

// HistoryStore is the part of the durable store history reads need.
type HistoryStore interface {
	IsAuthorized(ctx context.Context, userID, roomID string) (bool, error)
	History(ctx context.Context, roomID string, page domain.Page) (*domain.HistoryPage, error)
}

var _ HistoryStore = (repository.Store)(nil)

// CursorValidator rejects cursors that cannot be message IDs.
type CursorValidator interface {
	Validate(id string) error
}

type historyServiceImpl struct {
	store    HistoryStore
	cache    cache.HistoryCache
	cursors  CursorValidator
	cacheTTL time.Duration
	sf       singleflight.Group
}

func NewHistoryService(
	store HistoryStore,
	historyCache cache.HistoryCache,
	cursors CursorValidator,
	cacheTTL time.Duration,
) HistoryService {
	if historyCache == nil {
		historyCache = cache.NewNoopHistoryCache()
	}
	return &historyServiceImpl{
		store:    store,
		cache:    historyCache,
		cursors:  cursors,
		cacheTTL: cacheTTL,
	}
}

// GetHistory returns a page of the room's messages, oldest first, to a
// member of the room.
func (s *historyServiceImpl) GetHistory(ctx context.Context, userID, roomID string, page domain.Page) (*domain.HistoryPage, error) {
	page = page.Normalize()

	if page.Before != "" && s.cursors != nil {
		if err := s.cursors.Validate(page.Before); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
		}
	}

	allowed, err := s.store.IsAuthorized(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, domain.ErrNotAuthorized
	}

	// The latest page changes with every message, so it is never cached.
	if page.Before == "" {
		result, err := s.store.History(ctx, roomID, page)
		if err != nil {
			return nil, fmt.Errorf("failed to get messages from repository: %w", err)
		}
		return result, nil
	}

	key := s.cache.BuildKey(roomID, page)
	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		return s.fetchWithCache(ctx, roomID, page, key)
	})
	if err != nil {
		return nil, err
	}

	historyPage, ok := result.(*domain.HistoryPage)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return historyPage, nil
}

func (s *historyServiceImpl) fetchWithCache(ctx context.Context, roomID string, page domain.Page, key string) (*domain.HistoryPage, error) {
	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("cache get error")
	}

	result, err := s.store.History(ctx, roomID, page)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCursor) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get messages from repository: %w", err)
	}

	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(cacheCtx, key, result, s.cacheTTL); err != nil {
			l := log.L()
			l.Warn().Err(err).Msg("cache set error")
		}
	}()

	return result, nil
}
