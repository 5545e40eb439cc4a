package domain

// Outbound event types.
const (
	EventPresence = "presence"
	EventTyping   = "typing"
	EventMessage  = "message"
)

// Event is one of the broadcasts a connection can receive. The set is
// closed: PresenceChanged, TypingChanged and MessageRelayed.
type Event interface {
	EventType() string
	EventRoomID() string
}

// Sink receives events for a single connection. Deliver must not block;
// implementations drop the event and return an error when they cannot
// accept it.
type Sink interface {
	Deliver(ev Event) error
}

// PresenceChanged carries the users online in a room. Version increases
// with every membership change in the room.
type PresenceChanged struct {
	Type    string   `json:"type"`
	RoomID  string   `json:"room_id"`
	UserIDs []string `json:"user_ids"`
	Version uint64   `json:"version"`
}

func NewPresenceChanged(roomID string, userIDs []string, version uint64) *PresenceChanged {
	return &PresenceChanged{Type: EventPresence, RoomID: roomID, UserIDs: nonNil(userIDs), Version: version}
}

func (e *PresenceChanged) EventType() string   { return EventPresence }
func (e *PresenceChanged) EventRoomID() string { return e.RoomID }

// TypingChanged carries the users currently typing in a room.
type TypingChanged struct {
	Type    string   `json:"type"`
	RoomID  string   `json:"room_id"`
	UserIDs []string `json:"user_ids"`
	Version uint64   `json:"version"`
}

func NewTypingChanged(roomID string, userIDs []string, version uint64) *TypingChanged {
	return &TypingChanged{Type: EventTyping, RoomID: roomID, UserIDs: nonNil(userIDs), Version: version}
}

func (e *TypingChanged) EventType() string   { return EventTyping }
func (e *TypingChanged) EventRoomID() string { return e.RoomID }

// MessageRelayed carries a persisted message. TempID is only set on the
// copy sent back to the submitting connection.
type MessageRelayed struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
	TempID  string  `json:"temp_id,omitempty"`
}

func NewMessageRelayed(msg Message, tempID string) *MessageRelayed {
	return &MessageRelayed{Type: EventMessage, Message: msg, TempID: tempID}
}

func (e *MessageRelayed) EventType() string   { return EventMessage }
func (e *MessageRelayed) EventRoomID() string { return e.Message.RoomID }

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
