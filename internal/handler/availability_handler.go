package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/availability-api/internal/dto"
	"github.com/noah-isme/availability-api/internal/models"
	"github.com/noah-isme/availability-api/pkg/logger"
	"github.com/noah-isme/availability-api/pkg/response"
)

type availabilityService interface {
	ListRecords(ctx context.Context, eventTypeID int64) ([]models.AvailabilityRecord, error)
	Replace(ctx context.Context, eventTypeID int64, req dto.ReplaceAvailabilityRequest) (*dto.ReplaceAvailabilityResponse, error)
	Grid(ctx context.Context, eventTypeID int64, week string) (*dto.AvailabilityGridResponse, error)
	Export(ctx context.Context, eventTypeID int64, week, format string) (*dto.ExportFile, error)
}

// AvailabilityHandler exposes stored recurring availability per event type.
type AvailabilityHandler struct {
	service availabilityService
	logger  *zap.Logger
}

func NewAvailabilityHandler(service availabilityService, logger *zap.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{service: service, logger: logger}
}

// List godoc
// @Summary List stored availability intervals
// @Tags Availability
// @Produce json
// @Param id path int true "Event type ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /event-types/{id}/availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	id, ok := eventTypeIDParam(c)
	if !ok {
		return
	}
	records, err := h.service.ListRecords(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}

// Replace godoc
// @Summary Replace availability
// @Description Replaces every interval of the event type. Adjacent and overlapping slots are merged.
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path int true "Event type ID"
// @Param payload body dto.ReplaceAvailabilityRequest true "Full availability set"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /event-types/{id}/availability [put]
func (h *AvailabilityHandler) Replace(c *gin.Context) {
	id, ok := eventTypeIDParam(c)
	if !ok {
		return
	}
	var req dto.ReplaceAvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	result, err := h.service.Replace(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	logger.FromContext(c, h.logger).Info("availability updated",
		zap.Int64("event_type_id", id),
		zap.Int("updated", result.Updated),
		actorField(c),
	)
	response.OK(c, result)
}

// Grid godoc
// @Summary Weekly availability grid with booking overlay
// @Tags Availability
// @Produce json
// @Param id path int true "Event type ID"
// @Param week query string false "Any date of the week (YYYY-MM-DD), defaults to the current week"
// @Success 200 {object} response.Envelope
// @Router /event-types/{id}/availability/grid [get]
func (h *AvailabilityHandler) Grid(c *gin.Context) {
	id, ok := eventTypeIDParam(c)
	if !ok {
		return
	}
	grid, err := h.service.Grid(c.Request.Context(), id, c.Query("week"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grid)
}

// Export godoc
// @Summary Export the weekly schedule
// @Tags Availability
// @Produce text/csv
// @Produce application/pdf
// @Param id path int true "Event type ID"
// @Param week query string false "Any date of the week (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /event-types/{id}/availability/export [get]
func (h *AvailabilityHandler) Export(c *gin.Context) {
	id, ok := eventTypeIDParam(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), id, c.Query("week"), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Body)
}
