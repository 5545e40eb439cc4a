package kafka

import (
	"context"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

// MessageProducer publishes relayed messages for downstream consumers.
type MessageProducer interface {
	ProduceMessage(ctx context.Context, msg *domain.Message) error
	Close() error
}

// RelayedMessageEvent is the record written to the topic.
type RelayedMessageEvent struct {
	MessageID  string `json:"message_id"`
	RoomID     string `json:"room_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Body       string `json:"body"`
	Timestamp  int64  `json:"timestamp"`
}

func NewRelayedMessageEvent(msg *domain.Message) *RelayedMessageEvent {
	return &RelayedMessageEvent{
		MessageID:  msg.ID,
		RoomID:     msg.RoomID,
		SenderID:   msg.SenderID,
		SenderName: msg.SenderName,
		Body:       msg.Body,
		Timestamp:  msg.CreatedAt.UnixMilli(),
	}
}

// NoopProducer discards messages. It is used when Kafka is disabled.
type NoopProducer struct{}

func (NoopProducer) ProduceMessage(context.Context, *domain.Message) error { return nil }
func (NoopProducer) Close() error { return nil }
