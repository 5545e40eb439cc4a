package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

func TestNewRelayedMessageEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ev := NewRelayedMessageEvent(&domain.Message{
		ID:         "m1",
		RoomID:     "r1",
		SenderID:   "u1",
		SenderName: "Ann",
		Body:       "hi",
		CreatedAt:  at,
	})

	assert.Equal(t, "m1", ev.MessageID)
	assert.Equal(t, "r1", ev.RoomID)
	assert.Equal(t, "u1", ev.SenderID)
	assert.Equal(t, "Ann", ev.SenderName)
	assert.Equal(t, "hi", ev.Body)
	assert.Equal(t, at.UnixMilli(), ev.Timestamp)
}

func TestNoopProducer(t *testing.T) {
	var p MessageProducer = NoopProducer{}
	assert.NoError(t, p.ProduceMessage(context.Background(), &domain.Message{ID: "m1"}))
	assert.NoError(t, p.Close())
}
