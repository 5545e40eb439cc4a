package domain

import "time"

// Identity is what the identity provider vouches for.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// User is a persisted participant.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Room is a durable named channel. MemberIDs is the authorization list,
// not the set of users currently online.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// IsMember reports whether userID is on the room's authorization list.
func (r *Room) IsMember(userID string) bool {
	for _, id := range r.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Message is a persisted chat message. ID and CreatedAt are assigned by the
// store.
type Message struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"room_id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessage is a message accepted for persistence.
type NewMessage struct {
	RoomID     string
	SenderID   string
	SenderName string
	Body       string
}

// Page selects a window of history. Before is the ID of the oldest message
// the client already holds; empty means the latest page.
type Page struct {
	Before string
	Limit  int
}

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

// Normalize clamps the limit into the accepted range.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultHistoryLimit
	}
	if p.Limit > MaxHistoryLimit {
		p.Limit = MaxHistoryLimit
	}
	return p
}

// HistoryPage is a slice of history ordered oldest to newest.
type HistoryPage struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	User      *User  `json:"user"`
}
