package booking

import (
	"errors"
	"net/http"
	"strconv"

	"roombooking/internal/middleware"
	"roombooking/internal/pkg/response"
	"roombooking/internal/pkg/validator"
	"roombooking/internal/policy"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	bookings := protected.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("", h.ListBookings)
		bookings.PUT("/:id", h.UpdateBooking)
		bookings.DELETE("/:id", h.DeleteBooking)
	}

	protected.GET("/rooms/:id/bookings", h.ListRoomBookings)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.FieldErrors(err))
		return
	}

	b, err := h.service.Create(c.Request.Context(), principal, req)
	if err != nil {
		h.writeError(c, err, "Failed to create booking")
		return
	}
	response.Success(c, http.StatusCreated, b)
}

func (h *Handler) ListBookings(c *gin.Context) {
	bookings, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Internal(c, err, "Failed to load bookings")
		return
	}
	response.Success(c, http.StatusOK, bookings)
}

func (h *Handler) ListRoomBookings(c *gin.Context) {
	roomID, ok := pathID(c, "Invalid room ID")
	if !ok {
		return
	}

	bookings, err := h.service.ListByRoom(c.Request.Context(), roomID)
	if err != nil {
		h.writeError(c, err, "Failed to load room bookings")
		return
	}
	response.Success(c, http.StatusOK, bookings)
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, ok := pathID(c, "Invalid booking ID")
	if !ok {
		return
	}

	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.FieldErrors(err))
		return
	}

	b, err := h.service.Update(c.Request.Context(), principal, id, req)
	if err != nil {
		h.writeError(c, err, "Failed to update booking")
		return
	}
	response.Success(c, http.StatusOK, b)
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	id, ok := pathID(c, "Invalid booking ID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), principal, id); err != nil {
		h.writeError(c, err, "Failed to delete booking")
		return
	}
	response.NoContent(c)
}

func (h *Handler) writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "startTime must be before endTime")
	case errors.Is(err, policy.ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only the creator or an administrator can change this booking")
	case errors.Is(err, ErrRoomNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Room not found")
	case errors.Is(err, ErrBookingNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrConflict):
		response.Error(c, http.StatusConflict, "BOOKING_CONFLICT", "Room is already booked for the selected time")
	case errors.Is(err, ErrConcurrentUpdate):
		response.Error(c, http.StatusConflict, "BOOKING_BUSY", "Booking was changed by another request; retry")
	default:
		response.Internal(c, err, message)
	}
}

func pathID(c *gin.Context, message string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", message)
		return 0, false
	}
	return id, true
}
