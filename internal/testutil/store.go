package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

// MemoryStore is an in-memory durable store.
type MemoryStore struct {
	mu       sync.Mutex
	rooms    map[string]*domain.Room
	messages map[string][]domain.Message
	users    map[string]*domain.User
	seq      int

	appendErr   error
	appendDelay time.Duration
	appends     int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms:    make(map[string]*domain.Room),
		messages: make(map[string][]domain.Message),
		users:    make(map[string]*domain.User),
	}
}

// AddRoom creates a room with the given ID and members.
func (s *MemoryStore) AddRoom(roomID string, members ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = &domain.Room{
		ID:        roomID,
		Name:      roomID,
		MemberIDs: append([]string(nil), members...),
		CreatedAt: time.Now().UTC(),
	}
}

func (s *MemoryStore) CreateRoom(_ context.Context, name, creatorID string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	room := &domain.Room{
		ID:        fmt.Sprintf("room-%d", s.seq),
		Name:      name,
		CreatorID: creatorID,
		MemberIDs: []string{creatorID},
		CreatedAt: time.Now().UTC(),
	}
	s.rooms[room.ID] = room
	cp := *room
	return &cp, nil
}

func (s *MemoryStore) GetRoom(_ context.Context, roomID string) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *room
	cp.MemberIDs = append([]string(nil), room.MemberIDs...)
	return &cp, nil
}

func (s *MemoryStore) ListRoomsFor(_ context.Context, userID string) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Room
	for _, room := range s.rooms {
		if room.IsMember(userID) {
			out = append(out, *room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) IsAuthorized(_ context.Context, userID, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return false, domain.ErrRoomNotFound
	}
	return room.IsMember(userID), nil
}

func (s *MemoryStore) AddMember(_ context.Context, roomID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if !room.IsMember(userID) {
		room.MemberIDs = append(room.MemberIDs, userID)
	}
	return nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, nm domain.NewMessage) (*domain.Message, error) {
	s.mu.Lock()
	s.appends++
	delay, appendErr := s.appendDelay, s.appendErr
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if appendErr != nil {
		return nil, appendErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg := domain.Message{
		ID:         fmt.Sprintf("msg-%06d", s.seq),
		RoomID:     nm.RoomID,
		SenderID:   nm.SenderID,
		SenderName: nm.SenderName,
		Body:       nm.Body,
		CreatedAt:  time.Now().UTC(),
	}
	s.messages[nm.RoomID] = append(s.messages[nm.RoomID], msg)
	return &msg, nil
}

func (s *MemoryStore) History(_ context.Context, roomID string, page domain.Page) (*domain.HistoryPage, error) {
	page = page.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.messages[roomID]
	end := len(all)
	if page.Before != "" {
		end = -1
		for i, m := range all {
			if m.ID == page.Before {
				end = i
				break
			}
		}
		if end < 0 {
			return nil, domain.ErrInvalidCursor
		}
	}
	start := end - page.Limit
	if start < 0 {
		start = 0
	}

	msgs := append([]domain.Message{}, all[start:end]...)
	result := &domain.HistoryPage{Messages: msgs, HasMore: start > 0}
	if result.HasMore {
		result.NextCursor = msgs[0].ID
	}
	return result, nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, userID string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) TouchUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.LastSeenAt = time.Now().UTC()
	return nil
}

// AppendCount returns the number of AppendMessage calls.
func (s *MemoryStore) AppendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appends
}

// SetAppendErr makes AppendMessage fail with err.
func (s *MemoryStore) SetAppendErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// SetAppendDelay makes AppendMessage wait for d or context cancellation.
func (s *MemoryStore) SetAppendDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendDelay = d
}
