package repository

import (
	"time"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

// UserModel is the GORM model for the users table.
type UserModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	DisplayName string    `gorm:"type:varchar(64);not null"`
	LastSeenAt  time.Time `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToDomain() *domain.User {
	return &domain.User{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		LastSeenAt:  m.LastSeenAt,
		CreatedAt:   m.CreatedAt,
	}
}

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID        string            `gorm:"type:varchar(36);primaryKey"`
	Name      string            `gorm:"type:varchar(100);not null"`
	CreatorID string            `gorm:"type:varchar(36);index;not null"`
	CreatedAt time.Time         `gorm:"autoCreateTime"`
	Members   []RoomMemberModel `gorm:"foreignKey:RoomID"`
}

func (RoomModel) TableName() string {
	return "rooms"
}

func (m *RoomModel) ToDomain() *domain.Room {
	members := make([]string, len(m.Members))
	for i, mem := range m.Members {
		members[i] = mem.UserID
	}
	return &domain.Room{
		ID:        m.ID,
		Name:      m.Name,
		CreatorID: m.CreatorID,
		MemberIDs: members,
		CreatedAt: m.CreatedAt,
	}
}

// RoomMemberModel is one entry of a room's authorization list.
type RoomMemberModel struct {
	RoomID   string    `gorm:"type:varchar(36);primaryKey"`
	UserID   string    `gorm:"type:varchar(36);primaryKey;index"`
	JoinedAt time.Time `gorm:"autoCreateTime"`
}

func (RoomMemberModel) TableName() string {
	return "room_members"
}

// MessageModel is the GORM model for the messages table. CreatedNs is the
// ordering key; it never decreases within a room.
type MessageModel struct {
	ID         string    `gorm:"type:varchar(64);primaryKey"`
	RoomID     string    `gorm:"type:varchar(36);not null;index:idx_messages_room_order,priority:1"`
	CreatedNs  int64     `gorm:"not null;index:idx_messages_room_order,priority:2"`
	SenderID   string    `gorm:"type:varchar(36);not null"`
	SenderName string    `gorm:"type:varchar(64);not null"`
	Body       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (MessageModel) TableName() string {
	return "messages"
}

func (m *MessageModel) ToDomain() domain.Message {
	return domain.Message{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Body:       m.Body,
		CreatedAt:  m.CreatedAt,
	}
}

// Models lists every model for auto-migration.
func Models() []interface{} {
	return []interface{}{
		&UserModel{},
		&RoomModel{},
		&RoomMemberModel{},
		&MessageModel{},
	}
}
