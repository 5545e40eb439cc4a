package service

import (
	"context"
	"time"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/audit"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/kafka"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/membership"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/presence"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/registry"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/relay"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/repository"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/room"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/typing"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

const touchTimeout = 2 * time.Second

// SyncStore is the part of the durable store the engine needs.
type SyncStore interface {
	membership.Authorizer
	relay.MessageStore
	TouchUser(ctx context.Context, userID string) error
}

var _ SyncStore = (repository.Store)(nil)

type SyncConfig struct {
	TypingWindow   time.Duration
	PersistTimeout time.Duration
	MaxBodyLength  int
}

type syncServiceImpl struct {
	store    SyncStore
	producer kafka.MessageProducer

	registry *registry.Registry
	tracker  *membership.Tracker
	presence *presence.Publisher
	typing   *typing.Aggregator
	relay    *relay.Relay
}

// NewSyncService wires the connection registry, membership tracker,
// presence publisher, typing aggregator and message relay together.
func NewSyncService(
	identity registry.IdentityProvider,
	store SyncStore,
	producer kafka.MessageProducer,
	cfg SyncConfig,
	opts ...registry.Option,
) SyncService {
	if producer == nil {
		producer = kafka.NoopProducer{}
	}

	rooms := room.NewDirectory()
	reg := registry.New(identity, opts...)
	tracker := membership.New(reg, rooms, store)
	pub := presence.NewPublisher(rooms)
	agg := typing.New(reg, rooms, cfg.TypingWindow)

	// Typing entries are cleared before presence is announced.
	tracker.Listen(agg.Listener())
	tracker.Listen(pub.Listener())

	return &syncServiceImpl{
		store:    store,
		producer: producer,
		registry: reg,
		tracker:  tracker,
		presence: pub,
		typing:   agg,
		relay: relay.New(reg, rooms, store, relay.Config{
			PersistTimeout: cfg.PersistTimeout,
			MaxBodyLength:  cfg.MaxBodyLength,
		}),
	}
}

func (s *syncServiceImpl) Connect(ctx context.Context, credential string, sink domain.Sink) (*registry.Connection, error) {
	conn, err := s.registry.Register(ctx, credential, sink)
	if err != nil {
		return nil, err
	}
	audit.LogWithDetail(ctx, audit.ActionConnect, conn.UserID(), conn.ID(), "connection opened")
	return conn, nil
}

// Disconnect forgets the connection, which removes it from every room, and
// records the user's last-seen time.
func (s *syncServiceImpl) Disconnect(ctx context.Context, connectionID string) {
	conn, ok := s.registry.Lookup(connectionID)
	if !ok {
		return
	}
	s.registry.Forget(connectionID)
	audit.LogWithDetail(ctx, audit.ActionDisconnect, conn.UserID(), conn.ID(), "connection closed")

	touchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), touchTimeout)
	defer cancel()
	if err := s.store.TouchUser(touchCtx, conn.UserID()); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldUserID, conn.UserID()).Msg("failed to update last seen")
	}
}

func (s *syncServiceImpl) JoinRoom(ctx context.Context, connectionID, roomID string) error {
	return s.tracker.Join(ctx, connectionID, roomID)
}

func (s *syncServiceImpl) LeaveRoom(_ context.Context, connectionID, roomID string) {
	s.tracker.Leave(connectionID, roomID)
}

func (s *syncServiceImpl) SetTyping(_ context.Context, connectionID, roomID string, isTyping bool) error {
	return s.typing.Signal(connectionID, roomID, isTyping)
}

// SendMessage relays the message and then publishes it to the event
// stream. Publishing is best-effort and never fails the send.
func (s *syncServiceImpl) SendMessage(ctx context.Context, connectionID, roomID, body, tempID string) (*domain.Message, error) {
	msg, err := s.relay.Submit(ctx, connectionID, roomID, body, tempID)
	if err != nil {
		return nil, err
	}
	if err := s.producer.ProduceMessage(ctx, msg); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to publish relayed message")
	}
	return msg, nil
}

func (s *syncServiceImpl) MembersOnline(roomID string) []string {
	return s.tracker.MembersOnline(roomID)
}

func (s *syncServiceImpl) TypingUsers(roomID string) []string {
	return s.typing.Users(roomID)
}

// Close stops typing timers and forgets every connection.
func (s *syncServiceImpl) Close() {
	s.typing.Stop()
	s.registry.Close()
}
