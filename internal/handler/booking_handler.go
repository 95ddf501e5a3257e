package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/availability-api/internal/dto"
	"github.com/noah-isme/availability-api/internal/models"
	appErrors "github.com/noah-isme/availability-api/pkg/errors"
	"github.com/noah-isme/availability-api/pkg/response"
)

type bookingService interface {
	List(ctx context.Context, q dto.ListBookingsQuery) ([]models.Booking, error)
}

// BookingHandler exposes read access to concrete bookings.
type BookingHandler struct {
	service bookingService
}

func NewBookingHandler(service bookingService) *BookingHandler {
	return &BookingHandler{service: service}
}

// List godoc
// @Summary List bookings overlapping a range
// @Tags Bookings
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD or RFC3339)"
// @Param to query string true "Range end, exclusive"
// @Param event_type_id query int false "Event type filter"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	var q dto.ListBookingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking query"))
		return
	}
	bookings, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, bookings, map[string]interface{}{"count": len(bookings)})
}
