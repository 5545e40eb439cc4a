package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/registry"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/room"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

const (
	DefaultPersistTimeout = 5 * time.Second
	DefaultMaxBodyLength  = 2000
)

// MessageStore persists accepted messages and assigns their ID and time.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg domain.NewMessage) (*domain.Message, error)
}

type Config struct {
	PersistTimeout time.Duration
	MaxBodyLength  int
}

// Relay persists submitted messages and fans them out to the room.
type Relay struct {
	registry *registry.Registry
	rooms    *room.Directory
	store    MessageStore
	cfg      Config
}

func New(reg *registry.Registry, rooms *room.Directory, store MessageStore, cfg Config) *Relay {
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = DefaultPersistTimeout
	}
	if cfg.MaxBodyLength <= 0 {
		cfg.MaxBodyLength = DefaultMaxBodyLength
	}
	return &Relay{
		registry: reg,
		rooms:    rooms,
		store:    store,
		cfg:      cfg,
	}
}

// Submit persists body as a message from the connection and broadcasts it
// to the room. The submitter's copy carries tempID. Submissions to one room
// are persisted and broadcast in a single order.
func (r *Relay) Submit(ctx context.Context, connectionID, roomID, body, tempID string) (*domain.Message, error) {
	conn, ok := r.registry.Lookup(connectionID)
	if !ok {
		return nil, domain.ErrConnectionNotFound
	}
	if strings.TrimSpace(body) == "" {
		return nil, domain.ErrEmptyBody
	}
	if utf8.RuneCountInString(body) > r.cfg.MaxBodyLength {
		return nil, domain.ErrBodyTooLong
	}

	st, ok := r.rooms.Lookup(roomID)
	if !ok || !conn.InRoom(roomID) {
		return nil, domain.ErrNotAMember
	}

	// the deadline covers waiting for earlier submissions too
	pctx, cancel := context.WithTimeout(ctx, r.cfg.PersistTimeout)
	defer cancel()

	if err := st.AcquireSequence(pctx); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).
			Str(log.FieldRoomID, roomID).
			Str(log.FieldTempID, tempID).
			Msg("message not persisted")
		return nil, persistError(pctx, err)
	}
	defer st.ReleaseSequence()

	msg, err := r.persist(pctx, domain.NewMessage{
		RoomID:     roomID,
		SenderID:   conn.UserID(),
		SenderName: conn.DisplayName(),
		Body:       body,
	})
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).
			Str(log.FieldRoomID, roomID).
			Str(log.FieldTempID, tempID).
			Msg("message not persisted")
		return nil, err
	}

	shared := domain.NewMessageRelayed(*msg, "")
	echo := domain.NewMessageRelayed(*msg, tempID)

	st.Lock()
	st.BroadcastEach(func(sub *registry.Connection) domain.Event {
		if sub.ID() == conn.ID() {
			return echo
		}
		return shared
	})
	st.Unlock()

	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldRoomID, roomID).
		Str(log.FieldMessageID, msg.ID).
		Msg("message relayed")
	return msg, nil
}

func (r *Relay) persist(ctx context.Context, nm domain.NewMessage) (*domain.Message, error) {
	msg, err := r.store.AppendMessage(ctx, nm)
	if err != nil {
		return nil, persistError(ctx, err)
	}
	return msg, nil
}

func persistError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrPersistenceTimeout, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
}
