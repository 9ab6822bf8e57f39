package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"roombooking/internal/middleware"
	"roombooking/internal/policy"
	"roombooking/internal/pkg/response"
	"roombooking/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	rooms := protected.Group("/rooms")
	{
		rooms.GET("", h.ListRooms)
		rooms.GET("/:id", h.GetRoom)
		rooms.POST("", middleware.RequireRoomManager(), h.CreateRoom)
		rooms.PUT("/:id", middleware.RequireRoomManager(), h.UpdateRoom)
		rooms.DELETE("/:id", middleware.RequireRoomManager(), h.DeleteRoom)
	}
}

func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Internal(c, err, "Failed to load rooms")
		return
	}
	response.Success(c, http.StatusOK, rooms)
}

func (h *Handler) GetRoom(c *gin.Context) {
	id, ok := roomID(c)
	if !ok {
		return
	}

	room, err := h.service.GetRoom(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "Failed to load room")
		return
	}
	response.Success(c, http.StatusOK, room)
}

func (h *Handler) CreateRoom(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.FieldErrors(err))
		return
	}

	room, err := h.service.CreateRoom(c.Request.Context(), principal, req)
	if err != nil {
		h.writeError(c, err, "Failed to create room")
		return
	}
	response.Success(c, http.StatusCreated, room)
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, ok := roomID(c)
	if !ok {
		return
	}

	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.FieldErrors(err))
		return
	}

	room, err := h.service.UpdateRoom(c.Request.Context(), principal, id, req)
	if err != nil {
		h.writeError(c, err, "Failed to update room")
		return
	}
	response.Success(c, http.StatusOK, room)
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, ok := roomID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteRoom(c.Request.Context(), principal, id); err != nil {
		h.writeError(c, err, "Failed to delete room")
		return
	}
	response.NoContent(c)
}

func (h *Handler) writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, policy.ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only administrators can manage rooms")
	case errors.Is(err, ErrRoomNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Room not found")
	default:
		response.Internal(c, err, message)
	}
}

func roomID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid room ID")
		return 0, false
	}
	return id, true
}
