package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/audit"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/repository"
)

const MaxRoomNameLength = 100

type roomServiceImpl struct {
	repo repository.RoomRepository
}

func NewRoomService(repo repository.RoomRepository) RoomService {
	return &roomServiceImpl{repo: repo}
}

// CreateRoom creates a room; the creator is its first member.
func (s *roomServiceImpl) CreateRoom(ctx context.Context, userID, name string) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxRoomNameLength {
		return nil, fmt.Errorf("%w: must be 1-%d characters", domain.ErrInvalidRoomName, MaxRoomNameLength)
	}

	room, err := s.repo.CreateRoom(ctx, name, userID)
	if err != nil {
		return nil, err
	}
	audit.LogRoom(ctx, audit.ActionCreateRoom, userID, room.ID, "room created")
	return room, nil
}

func (s *roomServiceImpl) ListRooms(ctx context.Context, userID string) ([]domain.Room, error) {
	return s.repo.ListRoomsFor(ctx, userID)
}

// AddMember puts the caller on the room's authorization list.
func (s *roomServiceImpl) AddMember(ctx context.Context, userID, roomID string) (*domain.Room, error) {
	if err := s.repo.AddMember(ctx, roomID, userID); err != nil {
		return nil, err
	}
	audit.LogRoom(ctx, audit.ActionAddMember, userID, roomID, "room member added")
	return s.repo.GetRoom(ctx, roomID)
}
