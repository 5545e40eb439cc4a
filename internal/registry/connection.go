package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
)

// ErrConnectionClosed is returned by Deliver once the connection has been
// forgotten.
var ErrConnectionClosed = errors.New("connection closed")

// Connection is a live, authenticated session. Its room set is guarded by
// its own lock, which is always taken after a room lock.
type Connection struct {
	id          string
	userID      string
	displayName string
	connectedAt time.Time
	sink        domain.Sink

	mu     sync.Mutex
	closed bool
	rooms  map[string]struct{}
}

func newConnection(id string, identity domain.Identity, sink domain.Sink, now time.Time) *Connection {
	return &Connection{
		id:          id,
		userID:      identity.UserID,
		displayName: identity.DisplayName,
		connectedAt: now,
		sink:        sink,
		rooms:       make(map[string]struct{}),
	}
}

func (c *Connection) ID() string             { return c.id }
func (c *Connection) UserID() string         { return c.userID }
func (c *Connection) DisplayName() string    { return c.displayName }
func (c *Connection) ConnectedAt() time.Time { return c.connectedAt }

// Deliver hands an event to the connection's sink. It never blocks.
func (c *Connection) Deliver(ev domain.Event) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrConnectionClosed
	}
	return c.sink.Deliver(ev)
}

// AttachRoom records roomID in the joined set. It fails once the connection
// is closed so that a join racing a forget cannot leave a phantom member.
func (c *Connection) AttachRoom(roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrConnectionNotFound
	}
	c.rooms[roomID] = struct{}{}
	return nil
}

// DetachRoom removes roomID from the joined set and reports whether it was
// present.
func (c *Connection) DetachRoom(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.rooms[roomID]; !ok {
		return false
	}
	delete(c.rooms, roomID)
	return true
}

func (c *Connection) InRoom(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[roomID]
	return ok
}

// Rooms returns the joined room IDs in sorted order.
func (c *Connection) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return sortedKeys(c.rooms)
}

func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// close marks the connection closed and returns the rooms it had joined.
func (c *Connection) close() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return sortedKeys(c.rooms)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
