package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/idgen"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

// GormStore implements Store using GORM.
type GormStore struct {
	db  *gorm.DB
	ids idgen.Generator
	now func() time.Time
}

// NewGormStore creates a store that issues message IDs from ids.
func NewGormStore(db *gorm.DB, ids idgen.Generator) *GormStore {
	return &GormStore{
		db:  db,
		ids: ids,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// CreateRoom creates a room with its creator as the first member.
func (s *GormStore) CreateRoom(ctx context.Context, name, creatorID string) (*domain.Room, error) {
	l := log.Ctx(ctx)

	model := &RoomModel{
		ID:        uuid.New().String(),
		Name:      name,
		CreatorID: creatorID,
		Members:   []RoomMemberModel{{UserID: creatorID}},
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		l.Error().Err(err).Msg("failed to create room in db")
		return nil, err
	}

	l.Debug().Str(log.FieldRoomID, model.ID).Msg("room created in db")
	return model.ToDomain(), nil
}

// GetRoom retrieves a room with its authorization list.
func (s *GormStore) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	var model RoomModel
	err := s.db.WithContext(ctx).Preload("Members").First(&model, "id = ?", roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to get room")
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListRoomsFor returns the rooms userID may join, oldest first.
func (s *GormStore) ListRoomsFor(ctx context.Context, userID string) ([]domain.Room, error) {
	var models []RoomModel
	err := s.db.WithContext(ctx).
		Preload("Members").
		Joins("JOIN room_members ON room_members.room_id = rooms.id").
		Where("room_members.user_id = ?", userID).
		Order("rooms.created_at ASC, rooms.id ASC").
		Find(&models).Error
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("failed to list rooms")
		return nil, err
	}

	rooms := make([]domain.Room, len(models))
	for i := range models {
		rooms[i] = *models[i].ToDomain()
	}
	return rooms, nil
}

// IsAuthorized reports whether userID is on the room's authorization list.
// It returns domain.ErrRoomNotFound for unknown rooms.
func (s *GormStore) IsAuthorized(ctx context.Context, userID, roomID string) (bool, error) {
	db := s.db.WithContext(ctx)

	var rooms int64
	if err := db.Model(&RoomModel{}).Where("id = ?", roomID).Count(&rooms).Error; err != nil {
		return false, err
	}
	if rooms == 0 {
		return false, domain.ErrRoomNotFound
	}

	var members int64
	err := db.Model(&RoomMemberModel{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&members).Error
	if err != nil {
		return false, err
	}
	return members > 0, nil
}

// AddMember puts userID on the room's authorization list. Adding an
// existing member is a no-op.
func (s *GormStore) AddMember(ctx context.Context, roomID, userID string) error {
	db := s.db.WithContext(ctx)

	var rooms int64
	if err := db.Model(&RoomModel{}).Where("id = ?", roomID).Count(&rooms).Error; err != nil {
		return err
	}
	if rooms == 0 {
		return domain.ErrRoomNotFound
	}

	return db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&RoomMemberModel{RoomID: roomID, UserID: userID}).Error
}

// AppendMessage stores a message, assigning its ID and a timestamp that is
// never earlier than the room's previous message.
func (s *GormStore) AppendMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error) {
	id, err := s.ids.Generate()
	if err != nil {
		return nil, err
	}

	model := &MessageModel{
		ID:         id,
		RoomID:     msg.RoomID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Body:       msg.Body,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		err := tx.Model(&MessageModel{}).
			Where("room_id = ?", msg.RoomID).
			Select("COALESCE(MAX(created_ns), 0)").
			Scan(&last).Error
		if err != nil {
			return err
		}

		// strictly after the newest message so ids never break ties
		ns := s.now().UnixNano()
		if ns <= last {
			ns = last + 1
		}
		model.CreatedNs = ns
		model.CreatedAt = time.Unix(0, ns).UTC()
		return tx.Create(model).Error
	})
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoomID, msg.RoomID).Msg("failed to append message")
		return nil, err
	}

	out := model.ToDomain()
	return &out, nil
}

// History returns up to page.Limit messages older than page.Before, oldest
// first.
func (s *GormStore) History(ctx context.Context, roomID string, page domain.Page) (*domain.HistoryPage, error) {
	page = page.Normalize()
	query := s.db.WithContext(ctx).Where("room_id = ?", roomID)

	if page.Before != "" {
		var cursor MessageModel
		err := s.db.WithContext(ctx).
			Select("id", "created_ns").
			First(&cursor, "id = ? AND room_id = ?", page.Before, roomID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCursor, page.Before)
			}
			return nil, err
		}
		query = query.Where(
			"created_ns < ? OR (created_ns = ? AND id < ?)",
			cursor.CreatedNs, cursor.CreatedNs, cursor.ID,
		)
	}

	var models []MessageModel
	err := query.
		Order("created_ns DESC, id DESC").
		Limit(page.Limit + 1).
		Find(&models).Error
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to load history")
		return nil, err
	}

	hasMore := len(models) > page.Limit
	if hasMore {
		models = models[:page.Limit]
	}

	messages := make([]domain.Message, len(models))
	for i := range models {
		messages[len(models)-1-i] = models[i].ToDomain()
	}

	result := &domain.HistoryPage{Messages: messages, HasMore: hasMore}
	if hasMore && len(messages) > 0 {
		result.NextCursor = messages[0].ID
	}
	return result, nil
}

// UpsertUser creates the user or refreshes its display name and last-seen
// time.
func (s *GormStore) UpsertUser(ctx context.Context, user *domain.User) error {
	if user.LastSeenAt.IsZero() {
		user.LastSeenAt = s.now()
	}
	model := &UserModel{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		LastSeenAt:  user.LastSeenAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "last_seen_at"}),
	}).Create(model).Error
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, user.ID).Msg("failed to upsert user")
		return err
	}
	return nil
}

func (s *GormStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// TouchUser sets the user's last-seen time to now.
func (s *GormStore) TouchUser(ctx context.Context, userID string) error {
	result := s.db.WithContext(ctx).Model(&UserModel{}).
		Where("id = ?", userID).
		Update("last_seen_at", s.now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
