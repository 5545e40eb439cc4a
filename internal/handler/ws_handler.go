package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/config"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/hub"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/service"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/response"
)

// WSHandler serves the real-time socket. The bearer token is checked
// before the upgrade, so unauthenticated peers get a plain 401.
type WSHandler struct {
	hub      *hub.Hub
	service  service.SyncService
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
}

func NewWSHandler(h *hub.Hub, svc service.SyncService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(wsCfg.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.HandleWebSocket)
}

// HandleWebSocket authenticates, upgrades and then serves the socket until
// it closes. The connection is forgotten on every exit path.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	ctx := c.Request.Context()

	client := hub.NewClient(h.wsCfg)
	conn, err := h.service.Connect(ctx, middleware.BearerToken(c.Request), client)
	if err != nil {
		response.Unauthorized(c, err.Error())
		return
	}
	c.Set(middleware.UserIDKey, conn.UserID())
	c.Set(middleware.DisplayNameKey, conn.DisplayName())

	ctx = log.WithConnection(ctx, conn.ID(), conn.UserID())
	defer h.service.Disconnect(ctx, conn.ID())

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client.Attach(conn.ID(), ws)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	client.SendMessage(domain.NewConnectedMessage(conn.ID(), conn.UserID(), conn.DisplayName()))

	go client.WritePump()
	client.ReadPump(func(cl *hub.Client, message []byte) {
		h.handleMessage(ctx, cl, message)
	})
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid message format"))
		return
	}

	l := log.Ctx(ctx)

	switch base.Type {
	case domain.MsgTypeJoinRoom:
		var msg domain.RoomMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.RoomID == "" {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid join_room message"))
			return
		}
		if err := h.service.JoinRoom(ctx, client.ID, msg.RoomID); err != nil {
			l.Debug().Err(err).Str(log.FieldRoomID, msg.RoomID).Msg("join room failed")
			client.SendMessage(domain.NewErrorMessageFor(err, msg.RoomID, ""))
			return
		}
		client.SendMessage(domain.NewRoomJoinedMessage(msg.RoomID))

	case domain.MsgTypeLeaveRoom:
		var msg domain.RoomMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.RoomID == "" {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid leave_room message"))
			return
		}
		h.service.LeaveRoom(ctx, client.ID, msg.RoomID)
		client.SendMessage(domain.NewRoomLeftMessage(msg.RoomID))

	case domain.MsgTypeTyping:
		var msg domain.TypingMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.RoomID == "" {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid typing message"))
			return
		}
		if err := h.service.SetTyping(ctx, client.ID, msg.RoomID, msg.IsTyping); err != nil {
			client.SendMessage(domain.NewErrorMessageFor(err, msg.RoomID, ""))
		}

	case domain.MsgTypeSendMessage:
		var msg domain.SendMessage
		if err := json.Unmarshal(message, &msg); err != nil || msg.RoomID == "" {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "invalid send_message"))
			return
		}
		if _, err := h.service.SendMessage(ctx, client.ID, msg.RoomID, msg.Body, msg.TempID); err != nil {
			l.Debug().Err(err).Str(log.FieldRoomID, msg.RoomID).Str(log.FieldTempID, msg.TempID).Msg("send message failed")
			client.SendMessage(domain.NewErrorMessageFor(err, msg.RoomID, msg.TempID))
		}

	case domain.MsgTypePing:
		client.SendMessage(domain.BaseMessage{Type: domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "unknown message type"))
	}
}
