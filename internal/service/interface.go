package service

import (
	"context"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/registry"
)

// SyncService is the real-time surface used by socket connections.
type SyncService interface {
	Connect(ctx context.Context, credential string, sink domain.Sink) (*registry.Connection, error)
	Disconnect(ctx context.Context, connectionID string)
	JoinRoom(ctx context.Context, connectionID, roomID string) error
	LeaveRoom(ctx context.Context, connectionID, roomID string)
	SetTyping(ctx context.Context, connectionID, roomID string, isTyping bool) error
	SendMessage(ctx context.Context, connectionID, roomID, body, tempID string) (*domain.Message, error)
	MembersOnline(roomID string) []string
	TypingUsers(roomID string) []string
	Close()
}

// RoomService manages rooms and their authorization lists.
type RoomService interface {
	CreateRoom(ctx context.Context, userID, name string) (*domain.Room, error)
	ListRooms(ctx context.Context, userID string) ([]domain.Room, error)
	AddMember(ctx context.Context, userID, roomID string) (*domain.Room, error)
}

// HistoryService serves message backlog to room members.
type HistoryService interface {
	GetHistory(ctx context.Context, userID, roomID string, page domain.Page) (*domain.HistoryPage, error)
}

// AuthService issues tokens for display-name logins.
type AuthService interface {
	Login(ctx context.Context, displayName string) (*domain.LoginResult, error)
}
