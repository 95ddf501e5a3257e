package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/availability-api/internal/dto"
	"github.com/noah-isme/availability-api/pkg/logger"
	"github.com/noah-isme/availability-api/pkg/response"
)

type editorService interface {
	Create(ctx context.Context, req dto.CreateEditorSessionRequest) (*dto.EditorSessionResponse, error)
	Get(id string) (*dto.EditorSessionResponse, error)
	SelectEventType(ctx context.Context, id string, req dto.SelectEventTypeRequest) (*dto.EditorSessionResponse, error)
	Toggle(id string, req dto.ToggleCellRequest) (*dto.ToggleCellResponse, error)
	Navigate(ctx context.Context, id string, req dto.NavigateWeekRequest) (*dto.EditorSessionResponse, error)
	ReloadBookings(ctx context.Context, id string) (*dto.EditorSessionResponse, error)
	Save(ctx context.Context, id string) (*dto.SaveAvailabilityResponse, error)
	Discard(id string) (*dto.EditorSessionResponse, error)
	Close(id string) error
}

// EditorHandler drives server-side availability editor sessions.
type EditorHandler struct {
	service editorService
	logger  *zap.Logger
}

func NewEditorHandler(service editorService, logger *zap.Logger) *EditorHandler {
	return &EditorHandler{service: service, logger: logger}
}

// Create godoc
// @Summary Open an editor session
// @Tags Editor
// @Accept json
// @Produce json
// @Param payload body dto.CreateEditorSessionRequest false "Initial event type and week"
// @Success 201 {object} response.Envelope
// @Router /editor/sessions [post]
func (h *EditorHandler) Create(c *gin.Context) {
	var req dto.CreateEditorSessionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req, "invalid editor session payload") {
		return
	}
	session, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Get editor session state
// @Tags Editor
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /editor/sessions/{sessionId} [get]
func (h *EditorHandler) Get(c *gin.Context) {
	session, err := h.service.Get(c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// SelectEventType godoc
// @Summary Load an event type into the session
// @Description Discards unsaved edits and loads the stored availability of the event type.
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.SelectEventTypeRequest true "Event type"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /editor/sessions/{sessionId}/event-type [put]
func (h *EditorHandler) SelectEventType(c *gin.Context) {
	var req dto.SelectEventTypeRequest
	if !bindJSON(c, &req, "invalid event type selection") {
		return
	}
	session, err := h.service.SelectEventType(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// Toggle godoc
// @Summary Toggle one grid cell
// @Description Cells occupied by a booking in the displayed week are left unchanged and applied is false.
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.ToggleCellRequest true "Cell"
// @Success 200 {object} response.Envelope
// @Router /editor/sessions/{sessionId}/toggle [post]
func (h *EditorHandler) Toggle(c *gin.Context) {
	var req dto.ToggleCellRequest
	if !bindJSON(c, &req, "invalid cell") {
		return
	}
	result, err := h.service.Toggle(c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// Navigate godoc
// @Summary Move the displayed week
// @Tags Editor
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body dto.NavigateWeekRequest true "Direction"
// @Success 200 {object} response.Envelope
// @Router /editor/sessions/{sessionId}/week [post]
func (h *EditorHandler) Navigate(c *gin.Context) {
	var req dto.NavigateWeekRequest
	if !bindJSON(c, &req, "invalid direction") {
		return
	}
	session, err := h.service.Navigate(c.Request.Context(), c.Param("sessionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// ReloadBookings godoc
// @Summary Refetch bookings of the displayed week
// @Tags Editor
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /editor/sessions/{sessionId}/bookings/reload [post]
func (h *EditorHandler) ReloadBookings(c *gin.Context) {
	session, err := h.service.ReloadBookings(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// Save godoc
// @Summary Save the session grid
// @Description Replaces the stored availability of the selected event type with the grid.
// @Tags Editor
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /editor/sessions/{sessionId}/save [post]
func (h *EditorHandler) Save(c *gin.Context) {
	id := c.Param("sessionId")
	result, err := h.service.Save(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	fields := []zap.Field{zap.String("session_id", id), zap.Int("updated", result.Updated), actorField(c)}
	if result.Session.EventTypeID != nil {
		fields = append(fields, zap.Int64("event_type_id", *result.Session.EventTypeID))
	}
	logger.FromContext(c, h.logger).Info("availability saved from editor", fields...)
	response.OK(c, result)
}

// Discard godoc
// @Summary Drop unsaved edits and the selected event type
// @Tags Editor
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /editor/sessions/{sessionId}/discard [post]
func (h *EditorHandler) Discard(c *gin.Context) {
	session, err := h.service.Discard(c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

// Close godoc
// @Summary Close an editor session
// @Tags Editor
// @Param sessionId path string true "Session ID"
// @Success 204
// @Router /editor/sessions/{sessionId} [delete]
func (h *EditorHandler) Close(c *gin.Context) {
	if err := h.service.Close(c.Param("sessionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
