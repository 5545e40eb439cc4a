package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrAuth, ErrCodeUnauthorized},
		{fmt.Errorf("%w: expired", ErrAuth), ErrCodeUnauthorized},
		{ErrConnectionNotFound, ErrCodeUnauthorized},
		{ErrUserNotFound, ErrCodeUnauthorized},
		{ErrNotAuthorized, ErrCodeNotAuthorized},
		{ErrRoomNotFound, ErrCodeRoomNotFound},
		{ErrNotAMember, ErrCodeNotAMember},
		{ErrEmptyBody, ErrCodeEmptyBody},
		{ErrBodyTooLong, ErrCodeBodyTooLong},
		{fmt.Errorf("%w: context deadline exceeded", ErrPersistenceTimeout), ErrCodePersistenceTimeout},
		{fmt.Errorf("%w: disk full", ErrPersistenceFailure), ErrCodePersistenceFailure},
		{ErrInvalidCursor, ErrCodeBadRequest},
		{ErrInvalidRoomName, ErrCodeBadRequest},
		{ErrInvalidDisplayName, ErrCodeBadRequest},
		{errors.New("boom"), ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestErrorMessageFor(t *testing.T) {
	m := NewErrorMessageFor(ErrBodyTooLong, "r", "t1")
	assert.Equal(t, MsgTypeError, m.Type)
	assert.Equal(t, ErrCodeBodyTooLong, m.Code)
	assert.Equal(t, "r", m.RoomID)
	assert.Equal(t, "t1", m.TempID)
	assert.Equal(t, ErrBodyTooLong.Error(), m.Detail)
}

func TestErrorMessageJSONKeys(t *testing.T) {
	tests := []struct {
		name string
		msg  *ErrorMessage
	}{
		{name: "plain", msg: NewErrorMessage(ErrCodeBadRequest, "unknown message type")},
		{name: "room scoped", msg: NewErrorMessageFor(ErrNotAMember, "r", "t1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.msg)
			require.NoError(t, err)
			var fields map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &fields))
			assert.Contains(t, fields, "detail")
			assert.NotContains(t, fields, "message")

			// a message frame decoder must not trip over error frames
			var frame struct {
				Type    string   `json:"type"`
				Message *Message `json:"message"`
			}
			require.NoError(t, json.Unmarshal(raw, &frame))
			assert.Equal(t, MsgTypeError, frame.Type)
			assert.Nil(t, frame.Message)
		})
	}
}

func TestEventsNeverCarryNilUserIDs(t *testing.T) {
	assert.NotNil(t, NewPresenceChanged("r", nil, 1).UserIDs)
	assert.NotNil(t, NewTypingChanged("r", nil, 1).UserIDs)
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, DefaultHistoryLimit, Page{}.Normalize().Limit)
	assert.Equal(t, DefaultHistoryLimit, Page{Limit: -3}.Normalize().Limit)
	assert.Equal(t, MaxHistoryLimit, Page{Limit: MaxHistoryLimit + 1}.Normalize().Limit)
	assert.Equal(t, 10, Page{Limit: 10, Before: "x"}.Normalize().Limit)
}
