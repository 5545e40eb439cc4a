package presence_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/membership"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/presence"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/registry"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/room"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	reg     *registry.Registry
	tracker *membership.Tracker
	store   *testutil.MemoryStore
}

func newFixture() *fixture {
	reg := registry.New(testutil.StaticIdentity{})
	rooms := room.NewDirectory()
	store := testutil.NewMemoryStore()
	tracker := membership.New(reg, rooms, store)
	tracker.Listen(presence.NewPublisher(rooms).Listener())
	return &fixture{reg: reg, tracker: tracker, store: store}
}

func (f *fixture) join(t *testing.T, userID, roomID string) (*registry.Connection, *testutil.RecordingSink) {
	t.Helper()
	sink := testutil.NewRecordingSink()
	conn, err := f.reg.Register(context.Background(), userID, sink)
	require.NoError(t, err)
	require.NoError(t, f.tracker.Join(context.Background(), conn.ID(), roomID))
	return conn, sink
}

func TestPresenceIncludesTrigger(t *testing.T) {
	f := newFixture()
	f.store.AddRoom("r", "alice", "bob")

	_, alice := f.join(t, "alice", "r")
	require.NotNil(t, alice.LastPresence())
	assert.Equal(t, []string{"alice"}, alice.LastPresence().UserIDs)

	_, bob := f.join(t, "bob", "r")
	for _, sink := range []*testutil.RecordingSink{alice, bob} {
		p := sink.LastPresence()
		require.NotNil(t, p)
		assert.Equal(t, "r", p.RoomID)
		assert.Equal(t, []string{"alice", "bob"}, p.UserIDs)
		assert.Equal(t, uint64(2), p.Version)
	}
}

func TestPresenceAfterLeaveAndForget(t *testing.T) {
	f := newFixture()
	f.store.AddRoom("r", "alice", "bob", "carol")

	a, alice := f.join(t, "alice", "r")
	b, _ := f.join(t, "bob", "r")
	_, carol := f.join(t, "carol", "r")

	f.tracker.Leave(b.ID(), "r")
	assert.Equal(t, []string{"alice", "carol"}, carol.LastPresence().UserIDs)

	f.reg.Forget(a.ID())
	assert.Equal(t, []string{"carol"}, carol.LastPresence().UserIDs)

	// The forgotten connection receives nothing after it is closed.
	for _, p := range alice.Presence() {
		assert.Contains(t, p.UserIDs, "alice")
	}
}

func TestFailedSubscriberDoesNotBlockOthers(t *testing.T) {
	f := newFixture()
	f.store.AddRoom("r", "alice", "bob", "carol")

	_, alice := f.join(t, "alice", "r")
	alice.Close()
	_, bob := f.join(t, "bob", "r")
	_, _ = f.join(t, "carol", "r")

	assert.Equal(t, []string{"alice", "bob", "carol"}, bob.LastPresence().UserIDs)
}

func TestOnMembershipChangedUnknownRoom(t *testing.T) {
	pub := presence.NewPublisher(room.NewDirectory())
	pub.OnMembershipChanged("missing")
}

// Every subscriber sees strictly increasing versions whose content
// reflects the membership at that version.
func TestPresenceVersionsAreOrdered(t *testing.T) {
	f := newFixture()
	users := []string{"u0", "u1", "u2", "u3", "u4", "u5", "u6", "u7"}
	f.store.AddRoom("r", append(users, "watcher")...)

	_, watcher := f.join(t, "watcher", "r")

	conns := make([]*registry.Connection, len(users))
	for i, u := range users {
		conn, err := f.reg.Register(context.Background(), u, testutil.NewRecordingSink())
		require.NoError(t, err)
		conns[i] = conn
	}

	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(conn *registry.Connection) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				assert.NoError(t, f.tracker.Join(context.Background(), conn.ID(), "r"))
				f.tracker.Leave(conn.ID(), "r")
			}
		}(conn)
	}
	wg.Wait()

	events := watcher.Presence()
	require.NotEmpty(t, events)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].Version, events[i-1].Version)
	}
	assert.Equal(t, []string{"watcher"}, events[len(events)-1].UserIDs)
}
