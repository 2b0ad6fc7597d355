package api

import (
	"context"
	"errors"
	"net/http"

	reqdto "tutorlink/internal/handler/dto/request"
	resdto "tutorlink/internal/handler/dto/response"
	"tutorlink/internal/handler/middleware"
	"tutorlink/internal/usecase/commands"
	"tutorlink/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	bookingCommands commands.BookingCommands
	bookingQueries  queries.BookingQueries
}

func NewBookingHandler(bookingCommands commands.BookingCommands, bookingQueries queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		bookingCommands: bookingCommands,
		bookingQueries:  bookingQueries,
	}
}

// @Summary Create booking
// @Description Reserve a teacher's time slot; idempotent when idempotencyKey is supplied
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.BookingCreatedResponse
// @Success 200 {object} resdto.BookingCreatedResponse "idempotent replay"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	result, err := h.bookingCommands.CreateBooking(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrTeacherNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Teacher not found or not accepting bookings",
			})
		case errors.Is(err, commands.ErrSlotConflict):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Requested time slot is already reserved",
			})
		case errors.Is(err, commands.ErrInsufficientLeadTime):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Requested time must be at least 30 minutes from now",
			})
		case errors.Is(err, commands.ErrInvalidBookingRequest):
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid booking request",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromCreatedView(result.Booking))
}

// @Summary Get booking
// @Description Get booking by ID
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	view, err := h.bookingQueries.GetBooking(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, queries.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary List teacher bookings
// @Description All bookings for a teacher, newest first. Teachers may only list their own.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {array} resdto.BookingListResponse
// @Failure 403 {object} map[string]string
// @Router /teachers/{id}/bookings [get]
func (h *BookingHandler) ListTeacherBookings(c *gin.Context) {
	teacherID, ok := parseIDParam(c)
	if !ok {
		return
	}

	callerID, hasCaller := middleware.GetUserID(c)
	role, _ := middleware.GetUserRole(c)
	if !hasCaller {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}
	if role != middleware.RoleAdmin && callerID != teacherID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Cannot list another teacher's bookings",
		})
		return
	}

	items, err := h.bookingQueries.ListTeacherBookings(c.Request.Context(), teacherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	resp := make([]*resdto.BookingListResponse, len(items))
	for i, item := range items {
		resp[i] = resdto.FromBookingListItem(item)
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Confirm booking
// @Description Transition a pending booking to confirmed
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	h.transition(c, h.bookingCommands.ConfirmBooking, "confirmed")
}

// @Summary Cancel booking
// @Description Cancel a pending or confirmed booking, freeing its slot
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.transition(c, h.bookingCommands.CancelBooking, "cancelled")
}

func (h *BookingHandler) transition(c *gin.Context, apply func(ctx context.Context, id uuid.UUID) error, to string) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := apply(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, commands.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Booking not found",
			})
		case errors.Is(err, commands.ErrInvalidStatusTransition):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Booking cannot be " + to + " in its current state",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": to})
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}
