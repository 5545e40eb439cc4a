package domain

import "errors"

var (
	ErrAuth               = errors.New("authentication failed")
	ErrNotAuthorized      = errors.New("user is not a member of this room")
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotAMember         = errors.New("connection has not joined this room")
	ErrEmptyBody          = errors.New("message body is empty")
	ErrBodyTooLong        = errors.New("message body is too long")
	ErrPersistenceTimeout = errors.New("message store timed out")
	ErrPersistenceFailure = errors.New("message store failed")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCursor      = errors.New("invalid history cursor")
	ErrInvalidRoomName    = errors.New("invalid room name")
	ErrInvalidDisplayName = errors.New("invalid display name")
)

// Error codes sent to clients.
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNotAuthorized      = "NOT_AUTHORIZED"
	ErrCodeRoomNotFound       = "ROOM_NOT_FOUND"
	ErrCodeNotAMember         = "NOT_A_MEMBER"
	ErrCodeEmptyBody          = "EMPTY_BODY"
	ErrCodeBodyTooLong        = "BODY_TOO_LONG"
	ErrCodePersistenceTimeout = "PERSISTENCE_TIMEOUT"
	ErrCodePersistenceFailure = "PERSISTENCE_FAILURE"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// ErrorCode maps an error to the code reported to clients.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAuth), errors.Is(err, ErrConnectionNotFound), errors.Is(err, ErrUserNotFound):
		return ErrCodeUnauthorized
	case errors.Is(err, ErrNotAuthorized):
		return ErrCodeNotAuthorized
	case errors.Is(err, ErrRoomNotFound):
		return ErrCodeRoomNotFound
	case errors.Is(err, ErrNotAMember):
		return ErrCodeNotAMember
	case errors.Is(err, ErrEmptyBody):
		return ErrCodeEmptyBody
	case errors.Is(err, ErrBodyTooLong):
		return ErrCodeBodyTooLong
	case errors.Is(err, ErrPersistenceTimeout):
		return ErrCodePersistenceTimeout
	case errors.Is(err, ErrPersistenceFailure):
		return ErrCodePersistenceFailure
	case errors.Is(err, ErrInvalidCursor),
		errors.Is(err, ErrInvalidRoomName),
		errors.Is(err, ErrInvalidDisplayName):
		return ErrCodeBadRequest
	default:
		return ErrCodeInternalError
	}
}
