package typing

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/membership"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/registry"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/room"
)

const DefaultWindow = 5 * time.Second

// Aggregator tracks who is typing in each room. Entries expire after the
// window unless refreshed; a per-room timer armed at the earliest deadline
// announces expiries.
type Aggregator struct {
	registry *registry.Registry
	rooms    *room.Directory
	window   time.Duration
	now      func() time.Time
	stopped  atomic.Bool
}

func New(reg *registry.Registry, rooms *room.Directory, window time.Duration) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Aggregator{
		registry: reg,
		rooms:    rooms,
		window:   window,
		now:      time.Now,
	}
}

// Signal records a typing start or stop from the connection. Only
// connections joined to the room may signal.
func (a *Aggregator) Signal(connectionID, roomID string, isTyping bool) error {
	conn, ok := a.registry.Lookup(connectionID)
	if !ok {
		return domain.ErrConnectionNotFound
	}
	st, ok := a.rooms.Lookup(roomID)
	if !ok {
		return domain.ErrNotAMember
	}

	st.Lock()
	defer st.Unlock()
	if !st.HasSubscriber(conn.ID()) {
		return domain.ErrNotAMember
	}

	now := a.now()
	if isTyping {
		st.Typing().Set(conn.UserID(), conn.ID(), now.Add(a.window))
	} else {
		st.Typing().ClearConnection(conn.ID())
	}
	a.publishLocked(st, now)
	return nil
}

// ClearConnection drops the connection's entries in roomID.
func (a *Aggregator) ClearConnection(connectionID, roomID string) {
	st, ok := a.rooms.Lookup(roomID)
	if !ok {
		return
	}
	st.Lock()
	defer st.Unlock()
	if st.Typing().ClearConnection(connectionID) {
		a.publishLocked(st, a.now())
	}
}

// Listener clears typing entries of connections leaving a room.
func (a *Aggregator) Listener() membership.Listener {
	return func(ch membership.Change) {
		if ch.Kind == membership.Left {
			a.ClearConnection(ch.Connection.ID(), ch.RoomID)
		}
	}
}

// Users returns the users currently typing in roomID.
func (a *Aggregator) Users(roomID string) []string {
	st, ok := a.rooms.Lookup(roomID)
	if !ok {
		return []string{}
	}
	st.Lock()
	defer st.Unlock()
	st.Typing().Prune(a.now())
	return st.Typing().Users()
}

// Stop cancels every pending expiry timer.
func (a *Aggregator) Stop() {
	a.stopped.Store(true)
	a.rooms.Each(func(st *room.State) {
		st.Lock()
		st.Typing().Disarm()
		st.Unlock()
	})
}

func (a *Aggregator) publishLocked(st *room.State, now time.Time) {
	table := st.Typing()
	table.Prune(now)

	users := table.Users()
	if !slices.Equal(users, table.Announced()) {
		table.SetAnnounced(users)
		st.Broadcast(domain.NewTypingChanged(st.ID(), users, st.NextTypingVersion()))
	}

	a.armLocked(st, now)
}

func (a *Aggregator) armLocked(st *room.State, now time.Time) {
	table := st.Typing()
	next, ok := table.NextDeadline()
	if !ok || a.stopped.Load() {
		table.Disarm()
		return
	}
	delay := next.Sub(now)
	if delay < 0 {
		delay = 0
	}
	table.Arm(time.AfterFunc(delay, func() { a.expire(st) }))
}

func (a *Aggregator) expire(st *room.State) {
	if a.stopped.Load() {
		return
	}
	st.Lock()
	defer st.Unlock()
	a.publishLocked(st, a.now())
}
