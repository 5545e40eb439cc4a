package room

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/registry"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
)

// State is the in-memory state of one room. Every method except Lock,
// Unlock, AcquireSequence and ReleaseSequence must be called with the lock
// held.
type State struct {
	id string

	mu              sync.Mutex
	subscribers     map[string]*registry.Connection
	presenceVersion uint64
	typingVersion   uint64
	typing          *TypingTable

	// seq orders message submissions. It is held across persistence and is
	// never taken while mu is held.
	seq *semaphore.Weighted
}

func newState(id string) *State {
	return &State{
		id:          id,
		subscribers: make(map[string]*registry.Connection),
		typing:      newTypingTable(),
		seq:         semaphore.NewWeighted(1),
	}
}

func (s *State) ID() string { return s.id }

func (s *State) Lock()   { s.mu.Lock() }
func (s *State) Unlock() { s.mu.Unlock() }

// AcquireSequence waits for the room's submission slot or for ctx to end.
func (s *State) AcquireSequence(ctx context.Context) error {
	return s.seq.Acquire(ctx, 1)
}

func (s *State) ReleaseSequence() { s.seq.Release(1) }

// AddSubscriber reports whether the connection was newly added.
func (s *State) AddSubscriber(conn *registry.Connection) bool {
	if _, ok := s.subscribers[conn.ID()]; ok {
		return false
	}
	s.subscribers[conn.ID()] = conn
	return true
}

// RemoveSubscriber reports whether the connection was subscribed.
func (s *State) RemoveSubscriber(connectionID string) bool {
	if _, ok := s.subscribers[connectionID]; !ok {
		return false
	}
	delete(s.subscribers, connectionID)
	return true
}

func (s *State) HasSubscriber(connectionID string) bool {
	_, ok := s.subscribers[connectionID]
	return ok
}

// Subscribers returns a snapshot ordered by connection ID.
func (s *State) Subscribers() []*registry.Connection {
	out := make([]*registry.Connection, 0, len(s.subscribers))
	for _, c := range s.subscribers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// OnlineUsers returns the sorted, distinct owners of the subscribers.
func (s *State) OnlineUsers() []string {
	seen := make(map[string]struct{}, len(s.subscribers))
	users := make([]string, 0, len(s.subscribers))
	for _, c := range s.subscribers {
		if _, ok := seen[c.UserID()]; ok {
			continue
		}
		seen[c.UserID()] = struct{}{}
		users = append(users, c.UserID())
	}
	sort.Strings(users)
	return users
}

func (s *State) NextPresenceVersion() uint64 {
	s.presenceVersion++
	return s.presenceVersion
}

func (s *State) PresenceVersion() uint64 { return s.presenceVersion }

func (s *State) NextTypingVersion() uint64 {
	s.typingVersion++
	return s.typingVersion
}

func (s *State) Typing() *TypingTable { return s.typing }

// Broadcast delivers ev to every subscriber. Delivery failures are logged
// and skipped.
func (s *State) Broadcast(ev domain.Event) {
	s.BroadcastEach(func(*registry.Connection) domain.Event { return ev })
}

// BroadcastEach delivers the event built by fn to each subscriber. A nil
// event skips that subscriber.
func (s *State) BroadcastEach(fn func(conn *registry.Connection) domain.Event) {
	for _, c := range s.subscribers {
		ev := fn(c)
		if ev == nil {
			continue
		}
		if err := c.Deliver(ev); err != nil {
			l := log.L()
			l.Debug().Err(err).
				Str(log.FieldRoomID, s.id).
				Str(log.FieldConnectionID, c.ID()).
				Str(log.FieldEventType, ev.EventType()).
				Msg("event dropped")
		}
	}
}
