package domain

// WebSocket message types from client.
const (
	MsgTypeJoinRoom    = "join_room"
	MsgTypeLeaveRoom   = "leave_room"
	MsgTypeTyping      = "typing"
	MsgTypeSendMessage = "send_message"
	MsgTypePing        = "ping"
)

// WebSocket message types to client. Presence, typing and message events
// use the Event types.
const (
	MsgTypeConnected  = "connected"
	MsgTypeRoomJoined = "room_joined"
	MsgTypeRoomLeft   = "room_left"
	MsgTypeError      = "error"
	MsgTypePong       = "pong"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type RoomMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type TypingMessage struct {
	Type     string `json:"type"`
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

type SendMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
	Body   string `json:"body"`
	TempID string `json:"temp_id"`
}

// Server -> Client messages

type ConnectedMessage struct {
	Type         string `json:"type"`
	ConnectionID string `json:"connection_id"`
	UserID       string `json:"user_id"`
	DisplayName  string `json:"display_name"`
}

func NewConnectedMessage(connectionID, userID, displayName string) *ConnectedMessage {
	return &ConnectedMessage{
		Type:         MsgTypeConnected,
		ConnectionID: connectionID,
		UserID:       userID,
		DisplayName:  displayName,
	}
}

type RoomAckMessage struct {
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

func NewRoomJoinedMessage(roomID string) *RoomAckMessage {
	return &RoomAckMessage{Type: MsgTypeRoomJoined, RoomID: roomID}
}

func NewRoomLeftMessage(roomID string) *RoomAckMessage {
	return &RoomAckMessage{Type: MsgTypeRoomLeft, RoomID: roomID}
}

type ErrorMessage struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Detail string `json:"detail"`
	RoomID string `json:"room_id,omitempty"`
	TempID string `json:"temp_id,omitempty"`
}

// NewErrorMessage builds an error reply. The text goes under "detail" so it
// never collides with the "message" object of message frames.
func NewErrorMessage(code, detail string) *ErrorMessage {
	return &ErrorMessage{
		Type:   MsgTypeError,
		Code:   code,
		Detail: detail,
	}
}

// NewErrorMessageFor builds an error reply for a failed room operation.
func NewErrorMessageFor(err error, roomID, tempID string) *ErrorMessage {
	m := NewErrorMessage(ErrorCode(err), err.Error())
	m.RoomID = roomID
	m.TempID = tempID
	return m
}
