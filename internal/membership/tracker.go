package membership

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/registry"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/room"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

// Authorizer answers whether a user is on a room's authorization list.
type Authorizer interface {
	IsAuthorized(ctx context.Context, userID, roomID string) (bool, error)
}

type ChangeKind int

const (
	Joined ChangeKind = iota
	Left
)

func (k ChangeKind) String() string {
	if k == Joined {
		return "joined"
	}
	return "left"
}

// Change describes one connection entering or leaving a room.
type Change struct {
	Kind       ChangeKind
	RoomID     string
	Connection *registry.Connection
}

// Listener is notified after a change is applied, outside the room lock.
type Listener func(Change)

// Tracker records which connections are subscribed to which rooms.
type Tracker struct {
	registry *registry.Registry
	rooms    *room.Directory
	auth     Authorizer

	mu        sync.RWMutex
	listeners []Listener
}

// New builds a Tracker and hooks it into the registry so that forgotten
// connections leave every room they had joined.
func New(reg *registry.Registry, rooms *room.Directory, auth Authorizer) *Tracker {
	t := &Tracker{
		registry: reg,
		rooms:    rooms,
		auth:     auth,
	}
	reg.OnForget(t.forget)
	return t
}

// Listen registers a listener. Listeners run in registration order.
func (t *Tracker) Listen(l Listener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Join admits the connection to roomID after checking the authorization
// list. Joining a room the connection is already in is a no-op.
func (t *Tracker) Join(ctx context.Context, connectionID, roomID string) error {
	conn, ok := t.registry.Lookup(connectionID)
	if !ok {
		return domain.ErrConnectionNotFound
	}
	if conn.InRoom(roomID) {
		return nil
	}

	allowed, err := t.auth.IsAuthorized(ctx, conn.UserID(), roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return err
		}
		return fmt.Errorf("check room authorization: %w", err)
	}
	if !allowed {
		return domain.ErrNotAuthorized
	}

	st := t.rooms.Get(roomID)
	st.Lock()
	if err := conn.AttachRoom(roomID); err != nil {
		st.Unlock()
		return err
	}
	added := st.AddSubscriber(conn)
	st.Unlock()

	if !added {
		return nil
	}

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldRoomID, roomID).Msg("joined room")
	t.notify(Change{Kind: Joined, RoomID: roomID, Connection: conn})
	return nil
}

// Leave removes the connection from roomID. Unknown connections and rooms
// are ignored.
func (t *Tracker) Leave(connectionID, roomID string) {
	conn, ok := t.registry.Lookup(connectionID)
	if !ok {
		return
	}
	t.leave(conn, roomID)
}

func (t *Tracker) leave(conn *registry.Connection, roomID string) {
	st, ok := t.rooms.Lookup(roomID)
	if !ok {
		return
	}

	st.Lock()
	removed := st.RemoveSubscriber(conn.ID())
	conn.DetachRoom(roomID)
	st.Unlock()

	if !removed {
		return
	}

	l := log.L()
	l.Debug().
		Str(log.FieldConnectionID, conn.ID()).
		Str(log.FieldRoomID, roomID).
		Msg("left room")
	t.notify(Change{Kind: Left, RoomID: roomID, Connection: conn})
}

func (t *Tracker) forget(conn *registry.Connection, rooms []string) {
	for _, roomID := range rooms {
		t.leave(conn, roomID)
	}
}

// MembersOnline returns the sorted users with a connection in roomID.
func (t *Tracker) MembersOnline(roomID string) []string {
	st, ok := t.rooms.Lookup(roomID)
	if !ok {
		return []string{}
	}
	st.Lock()
	defer st.Unlock()
	return st.OnlineUsers()
}

// Subscribers returns the connections currently joined to roomID.
func (t *Tracker) Subscribers(roomID string) []*registry.Connection {
	st, ok := t.rooms.Lookup(roomID)
	if !ok {
		return nil
	}
	st.Lock()
	defer st.Unlock()
	return st.Subscribers()
}

func (t *Tracker) notify(ch Change) {
	t.mu.RLock()
	listeners := t.listeners
	t.mu.RUnlock()
	for _, l := range listeners {
		l(ch)
	}
}
