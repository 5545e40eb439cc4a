package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/domain"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/service"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/response"
)

type LoginRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

type CreateRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

type HistoryQuery struct {
	Before string `form:"before"`
	Limit  int    `form:"limit"`
}

// RoomResponse is a room with the users currently online in it.
type RoomResponse struct {
	domain.Room
	OnlineUserIDs []string `json:"online_user_ids"`
}

// Handler serves the REST API.
type Handler struct {
	authService    service.AuthService
	roomService    service.RoomService
	historyService service.HistoryService
	syncService    service.SyncService
	authMiddleware *middleware.AuthMiddleware
}

func NewHandler(
	authService service.AuthService,
	roomService service.RoomService,
	historyService service.HistoryService,
	syncService service.SyncService,
	authMiddleware *middleware.AuthMiddleware,
) *Handler {
	return &Handler{
		authService:    authService,
		roomService:    roomService,
		historyService: historyService,
		syncService:    syncService,
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", h.Login)

		rooms := api.Group("/rooms", h.authMiddleware.RequireAuth())
		{
			rooms.GET("", h.ListRooms)
			rooms.POST("", h.CreateRoom)
			rooms.POST("/:id/members", h.JoinRoom)
			rooms.GET("/:id/messages", h.GetHistory)
		}
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Login issues a token for a display name.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to bind login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(ctx, req.DisplayName)
	if err != nil {
		writeError(c, err, "log in")
		return
	}
	response.OK(c, http.StatusOK, result)
}

// ListRooms lists the rooms the caller may join.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		writeError(c, err, "list rooms")
		return
	}

	out := make([]RoomResponse, len(rooms))
	for i, room := range rooms {
		out[i] = h.withPresence(room)
	}
	response.OK(c, http.StatusOK, out)
}

// CreateRoom creates a room owned by the caller.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), middleware.GetUserID(c), req.Name)
	if err != nil {
		writeError(c, err, "create room")
		return
	}
	response.OK(c, http.StatusCreated, h.withPresence(*room))
}

// JoinRoom adds the caller to the room's member list.
func (h *Handler) JoinRoom(c *gin.Context) {
	room, err := h.roomService.AddMember(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "join room")
		return
	}
	response.OK(c, http.StatusOK, h.withPresence(*room))
}

// GetHistory returns a page of the room's messages, oldest first.
func (h *Handler) GetHistory(c *gin.Context) {
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	page, err := h.historyService.GetHistory(
		c.Request.Context(),
		middleware.GetUserID(c),
		c.Param("id"),
		domain.Page{Before: q.Before, Limit: q.Limit},
	)
	if err != nil {
		writeError(c, err, "get history")
		return
	}
	response.OK(c, http.StatusOK, page)
}

func (h *Handler) withPresence(room domain.Room) RoomResponse {
	return RoomResponse{
		Room:          room,
		OnlineUserIDs: h.syncService.MembersOnline(room.ID),
	}
}
