package repository

import (
	"context"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

// RoomRepository persists rooms and their authorization lists.
type RoomRepository interface {
	CreateRoom(ctx context.Context, name, creatorID string) (*domain.Room, error)
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	ListRoomsFor(ctx context.Context, userID string) ([]domain.Room, error)
	IsAuthorized(ctx context.Context, userID, roomID string) (bool, error)
	AddMember(ctx context.Context, roomID, userID string) error
}

// MessageRepository persists messages and serves history oldest first.
type MessageRepository interface {
	AppendMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error)
	History(ctx context.Context, roomID string, page domain.Page) (*domain.HistoryPage, error)
}

// UserRepository persists users.
type UserRepository interface {
	UpsertUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	TouchUser(ctx context.Context, userID string) error
}

// Store is the full durable store.
type Store interface {
	RoomRepository
	MessageRepository
	UserRepository
}
