package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/config"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/handler"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/hub"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/identity"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/service"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/testutil"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/jwt"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type wsEvent struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id"`
	UserIDs []string        `json:"user_ids"`
	Code    string          `json:"code"`
	TempID  string          `json:"temp_id"`
	Detail  string          `json:"detail"`
	Message *domain.Message `json:"message"`
	UserID  string          `json:"user_id"`
}

type testServer struct {
	url string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := testutil.NewMemoryStore()
	manager, err := jwt.NewManager("test-secret", time.Hour, "roomsync-test")
	require.NoError(t, err)
	provider := identity.NewJWTProvider(manager)

	syncSvc := service.NewSyncService(provider, store, nil, service.SyncConfig{})
	wsCfg := config.WebSocketConfig{
		PingInterval:   30 * time.Second,
		PongWait:       60 * time.Second,
		WriteWait:      10 * time.Second,
		MaxMessageSize: 8192,
		SendBuffer:     64,
	}

	r := gin.New()
	handler.NewHandler(
		service.NewAuthService(store, provider),
		service.NewRoomService(store),
		service.NewHistoryService(store, nil, nil, time.Minute),
		syncSvc,
		middleware.NewAuthMiddleware(manager),
	).RegisterRoutes(r)
	h := hub.NewHub()
	handler.NewWSHandler(h, syncSvc, wsCfg).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		h.Shutdown()
		srv.Close()
		syncSvc.Close()
	})
	return &testServer{url: srv.URL}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.url+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func (s *testServer) login(t *testing.T, name string) domain.LoginResult {
	t.Helper()
	status, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"display_name": name})
	require.Equal(t, http.StatusOK, status)
	var result domain.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	return result
}

func (s *testServer) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := "ws" + strings.TrimPrefix(s.url, "http") + "/ws"
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return websocket.DefaultDialer.Dial(u, nil)
}

func (s *testServer) connect(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	ws, _, err := s.dial(t, token)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	readUntil(t, ws, domain.MsgTypeConnected, nil)
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg interface{}) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(msg))
}

// readUntil reads events until one of the given type satisfies match.
func readUntil(t *testing.T, ws *websocket.Conn, typ string, match func(wsEvent) bool) wsEvent {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var ev wsEvent
		require.NoError(t, ws.ReadJSON(&ev))
		if ev.Type == typ && (match == nil || match(ev)) {
			return ev
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, err := http.Get(s.url + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRESTRequiresToken(t *testing.T) {
	s := newTestServer(t)

	status, env := s.do(t, http.MethodGet, "/api/v1/rooms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, _ = s.do(t, http.MethodGet, "/api/v1/rooms", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginValidation(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"display_name": strings.Repeat("x", 65)})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRoomsAndHistoryAccess(t *testing.T) {
	s := newTestServer(t)
	ann := s.login(t, "Ann")
	bo := s.login(t, "Bo")

	status, env := s.do(t, http.MethodPost, "/api/v1/rooms", ann.Token, map[string]string{"name": "general"})
	require.Equal(t, http.StatusCreated, status)
	var room handler.RoomResponse
	require.NoError(t, json.Unmarshal(env.Data, &room))
	assert.Equal(t, "general", room.Name)
	assert.Equal(t, []string{}, room.OnlineUserIDs)

	status, env = s.do(t, http.MethodGet, "/api/v1/rooms/"+room.ID+"/messages", bo.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.ErrCodeNotAuthorized, env.Error.Code)

	status, env = s.do(t, http.MethodGet, "/api/v1/rooms/missing/messages", bo.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.ErrCodeRoomNotFound, env.Error.Code)

	status, _ = s.do(t, http.MethodPost, "/api/v1/rooms/"+room.ID+"/members", bo.Token, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = s.do(t, http.MethodGet, "/api/v1/rooms", bo.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var rooms []handler.RoomResponse
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, room.ID, rooms[0].ID)

	status, _ = s.do(t, http.MethodPost, "/api/v1/rooms", ann.Token, map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	s := newTestServer(t)

	for _, token := range []string{"", "garbage"} {
		ws, resp, err := s.dial(t, token)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		resp.Body.Close()
		assert.Nil(t, ws)
	}
}

func TestWebSocketRoomFlow(t *testing.T) {
	s := newTestServer(t)
	ann := s.login(t, "Ann")
	bo := s.login(t, "Bo")

	_, env := s.do(t, http.MethodPost, "/api/v1/rooms", ann.Token, map[string]string{"name": "general"})
	var room handler.RoomResponse
	require.NoError(t, json.Unmarshal(env.Data, &room))
	s.do(t, http.MethodPost, "/api/v1/rooms/"+room.ID+"/members", bo.Token, nil)

	annWS := s.connect(t, ann.Token)
	send(t, annWS, domain.RoomMessage{Type: domain.MsgTypeJoinRoom, RoomID: room.ID})
	readUntil(t, annWS, domain.MsgTypeRoomJoined, nil)

	boWS := s.connect(t, bo.Token)
	send(t, boWS, domain.RoomMessage{Type: domain.MsgTypeJoinRoom, RoomID: room.ID})
	readUntil(t, boWS, domain.MsgTypeRoomJoined, nil)

	both := func(ev wsEvent) bool { return len(ev.UserIDs) == 2 }
	p := readUntil(t, annWS, domain.EventPresence, both)
	assert.ElementsMatch(t, []string{ann.User.ID, bo.User.ID}, p.UserIDs)

	send(t, annWS, domain.TypingMessage{Type: domain.MsgTypeTyping, RoomID: room.ID, IsTyping: true})
	typing := readUntil(t, boWS, domain.EventTyping, nil)
	assert.Equal(t, []string{ann.User.ID}, typing.UserIDs)

	send(t, annWS, domain.SendMessage{Type: domain.MsgTypeSendMessage, RoomID: room.ID, Body: "hi", TempID: "t1"})
	echo := readUntil(t, annWS, domain.EventMessage, nil)
	assert.Equal(t, "t1", echo.TempID)
	require.NotNil(t, echo.Message)
	assert.Equal(t, "hi", echo.Message.Body)
	assert.Equal(t, "Ann", echo.Message.SenderName)

	shared := readUntil(t, boWS, domain.EventMessage, nil)
	assert.Empty(t, shared.TempID)
	require.NotNil(t, shared.Message)
	assert.Equal(t, echo.Message.ID, shared.Message.ID)

	send(t, annWS, domain.SendMessage{Type: domain.MsgTypeSendMessage, RoomID: room.ID, Body: "  ", TempID: "t2"})
	failed := readUntil(t, annWS, domain.MsgTypeError, nil)
	assert.Equal(t, domain.ErrCodeEmptyBody, failed.Code)
	assert.Equal(t, "t2", failed.TempID)
	assert.NotEmpty(t, failed.Detail)
	assert.Nil(t, failed.Message)

	send(t, annWS, domain.BaseMessage{Type: domain.MsgTypePing})
	readUntil(t, annWS, domain.MsgTypePong, nil)

	send(t, annWS, domain.BaseMessage{Type: "dance"})
	unknown := readUntil(t, annWS, domain.MsgTypeError, nil)
	assert.Equal(t, domain.ErrCodeBadRequest, unknown.Code)
	assert.NotEmpty(t, unknown.Detail)

	status, env := s.do(t, http.MethodGet, "/api/v1/rooms/"+room.ID+"/messages?limit=10", bo.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var page domain.HistoryPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Messages, 1)
	assert.Equal(t, echo.Message.ID, page.Messages[0].ID)

	require.NoError(t, annWS.Close())
	left := readUntil(t, boWS, domain.EventPresence, func(ev wsEvent) bool { return len(ev.UserIDs) == 1 })
	assert.Equal(t, []string{bo.User.ID}, left.UserIDs)
}

func TestWebSocketJoinWithoutAccess(t *testing.T) {
	s := newTestServer(t)
	ann := s.login(t, "Ann")
	bo := s.login(t, "Bo")

	_, env := s.do(t, http.MethodPost, "/api/v1/rooms", ann.Token, map[string]string{"name": "private"})
	var room handler.RoomResponse
	require.NoError(t, json.Unmarshal(env.Data, &room))

	boWS := s.connect(t, bo.Token)
	send(t, boWS, domain.RoomMessage{Type: domain.MsgTypeJoinRoom, RoomID: room.ID})
	denied := readUntil(t, boWS, domain.MsgTypeError, nil)
	assert.Equal(t, domain.ErrCodeNotAuthorized, denied.Code)
	assert.Equal(t, room.ID, denied.RoomID)
	assert.NotEmpty(t, denied.Detail)

	send(t, boWS, domain.SendMessage{Type: domain.MsgTypeSendMessage, RoomID: room.ID, Body: "hi", TempID: "t1"})
	notMember := readUntil(t, boWS, domain.MsgTypeError, nil)
	assert.Equal(t, domain.ErrCodeNotAMember, notMember.Code)
}
