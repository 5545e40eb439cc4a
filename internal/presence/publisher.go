package presence

import (
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/membership"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/room"
)

// Publisher broadcasts the online-user set of a room whenever its
// membership changes.
type Publisher struct {
	rooms *room.Directory
}

func NewPublisher(rooms *room.Directory) *Publisher {
	return &Publisher{rooms: rooms}
}

// OnMembershipChanged recomputes the room's online users and sends them to
// every current subscriber. The snapshot and the enqueue happen under the
// room lock, so subscribers observe presence in change order.
func (p *Publisher) OnMembershipChanged(roomID string) {
	st, ok := p.rooms.Lookup(roomID)
	if !ok {
		return
	}

	st.Lock()
	defer st.Unlock()
	users := st.OnlineUsers()
	st.Broadcast(domain.NewPresenceChanged(roomID, users, st.NextPresenceVersion()))
}

// Listener adapts the publisher to membership changes.
func (p *Publisher) Listener() membership.Listener {
	return func(ch membership.Change) {
		p.OnMembershipChanged(ch.RoomID)
	}
}
