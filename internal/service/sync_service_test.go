package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/service"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingProducer struct {
	mu       sync.Mutex
	messages []*domain.Message
	err      error
}

func (p *recordingProducer) ProduceMessage(_ context.Context, msg *domain.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func (p *recordingProducer) produced() []*domain.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*domain.Message(nil), p.messages...)
}

func newSync(t *testing.T, store *testutil.MemoryStore, producer *recordingProducer) service.SyncService {
	t.Helper()
	svc := service.NewSyncService(testutil.StaticIdentity{}, store, producer, service.SyncConfig{})
	t.Cleanup(svc.Close)
	return svc
}

func TestTwoUsersShareARoom(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	store.AddRoom("R", "U1", "U2")
	producer := &recordingProducer{}
	svc := newSync(t, store, producer)
	history := service.NewHistoryService(store, nil, nil, 0)

	s1 := testutil.NewRecordingSink()
	c1, err := svc.Connect(ctx, "U1:Ann", s1)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, c1.ID(), "R"))
	assert.Equal(t, []string{"U1"}, s1.LastPresence().UserIDs)

	msg, err := svc.SendMessage(ctx, c1.ID(), "R", "hi", "t1")
	require.NoError(t, err)

	echo := s1.Messages()
	require.Len(t, echo, 1)
	assert.Equal(t, "t1", echo[0].TempID)
	assert.Equal(t, "hi", echo[0].Message.Body)
	assert.Equal(t, "U1", echo[0].Message.SenderID)

	s2 := testutil.NewRecordingSink()
	c2, err := svc.Connect(ctx, "U2:Bo", s2)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, c2.ID(), "R"))

	assert.Equal(t, []string{"U1", "U2"}, s1.LastPresence().UserIDs)
	assert.Equal(t, []string{"U1", "U2"}, s2.LastPresence().UserIDs)
	assert.Equal(t, []string{"U1", "U2"}, svc.MembersOnline("R"))
	assert.Empty(t, s2.Messages())

	page, err := history.GetHistory(ctx, "U2", "R", domain.Page{})
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.Equal(t, msg.ID, page.Messages[0].ID)
	assert.Equal(t, "hi", page.Messages[0].Body)
	assert.False(t, page.HasMore)

	require.Len(t, producer.produced(), 1)
	assert.Equal(t, msg.ID, producer.produced()[0].ID)

	svc.Disconnect(ctx, c1.ID())
	assert.Equal(t, []string{"U2"}, s2.LastPresence().UserIDs)
	assert.Equal(t, []string{"U2"}, svc.MembersOnline("R"))
}

func TestConnectRejectsBadCredential(t *testing.T) {
	svc := newSync(t, testutil.NewMemoryStore(), &recordingProducer{})

	_, err := svc.Connect(context.Background(), "bad", testutil.NewRecordingSink())
	require.ErrorIs(t, err, domain.ErrAuth)
}

func TestSendSucceedsWhenPublishFails(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	store.AddRoom("R", "U1")
	producer := &recordingProducer{err: errors.New("broker down")}
	svc := newSync(t, store, producer)

	sink := testutil.NewRecordingSink()
	conn, err := svc.Connect(ctx, "U1", sink)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, conn.ID(), "R"))

	_, err = svc.SendMessage(ctx, conn.ID(), "R", "hi", "")
	require.NoError(t, err)
	assert.Len(t, sink.Messages(), 1)
}

func TestRejectedSendIsNotPublished(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	store.AddRoom("R", "U1")
	producer := &recordingProducer{}
	svc := newSync(t, store, producer)

	conn, err := svc.Connect(ctx, "U1", testutil.NewRecordingSink())
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, conn.ID(), "R", "hi", "")
	require.ErrorIs(t, err, domain.ErrNotAMember)
	assert.Empty(t, producer.produced())
}

func TestDisconnectClearsTypingAndTouchesUser(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	store.AddRoom("R", "U1", "U2")
	require.NoError(t, store.UpsertUser(ctx, &domain.User{ID: "U1", DisplayName: "Ann"}))
	svc := newSync(t, store, &recordingProducer{})

	c1, err := svc.Connect(ctx, "U1", testutil.NewRecordingSink())
	require.NoError(t, err)
	s2 := testutil.NewRecordingSink()
	c2, err := svc.Connect(ctx, "U2", s2)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, c1.ID(), "R"))
	require.NoError(t, svc.JoinRoom(ctx, c2.ID(), "R"))

	require.NoError(t, svc.SetTyping(ctx, c1.ID(), "R", true))
	assert.Equal(t, []string{"U1"}, svc.TypingUsers("R"))
	assert.Equal(t, []string{"U1"}, s2.LastTyping().UserIDs)

	svc.Disconnect(ctx, c1.ID())
	assert.Empty(t, svc.TypingUsers("R"))
	assert.Empty(t, s2.LastTyping().UserIDs)
	assert.Equal(t, []string{"U2"}, s2.LastPresence().UserIDs)

	user, err := store.GetUser(ctx, "U1")
	require.NoError(t, err)
	assert.False(t, user.LastSeenAt.IsZero())

	// A second disconnect is a no-op.
	svc.Disconnect(ctx, c1.ID())
}

func TestLeaveRoomStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewMemoryStore()
	store.AddRoom("R", "U1", "U2")
	svc := newSync(t, store, &recordingProducer{})

	c1, err := svc.Connect(ctx, "U1", testutil.NewRecordingSink())
	require.NoError(t, err)
	s2 := testutil.NewRecordingSink()
	c2, err := svc.Connect(ctx, "U2", s2)
	require.NoError(t, err)
	require.NoError(t, svc.JoinRoom(ctx, c1.ID(), "R"))
	require.NoError(t, svc.JoinRoom(ctx, c2.ID(), "R"))

	svc.LeaveRoom(ctx, c2.ID(), "R")
	_, err = svc.SendMessage(ctx, c1.ID(), "R", "after", "")
	require.NoError(t, err)
	assert.Empty(t, s2.Messages())
}
