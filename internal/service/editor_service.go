package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/availability-api/internal/availability"
	"github.com/noah-isme/availability-api/internal/dto"
	appErrors "github.com/noah-isme/availability-api/pkg/errors"
)

var errSessionNotFound = appErrors.Clone(appErrors.ErrNotFound, "editor session not found")

// EditorServiceConfig tunes editor sessions.
type EditorServiceConfig struct {
	Window     availability.Window
	Location   *time.Location
	SessionTTL time.Duration
	Now        func() time.Time
}

type editorSession struct {
	editor   *availability.Editor
	lastSeen time.Time
}

// EditorService keeps availability editors in memory, one per session id.
type EditorService struct {
	intervals availability.IntervalStore
	bookings  availability.BookingStore
	cfg       EditorServiceConfig
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService

	mu       sync.Mutex
	sessions map[string]*editorSession
}

func NewEditorService(intervals availability.IntervalStore, bookings availability.BookingStore, cfg EditorServiceConfig, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *EditorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Window == (availability.Window{}) {
		cfg.Window = availability.DefaultWindow()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &EditorService{
		intervals: intervals,
		bookings:  bookings,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		sessions:  make(map[string]*editorSession),
	}
}

// Create opens a session positioned on the requested (or current) week, loads its bookings
// and, when an event type is given, its availability. Load failures are reported in the snapshot.
func (s *EditorService) Create(ctx context.Context, req dto.CreateEditorSessionRequest) (*dto.EditorSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid editor session payload")
	}

	now := s.cfg.Now
	if req.Week != "" {
		week, err := availability.ParseWeek(req.Week, s.cfg.Location)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "week must be YYYY-MM-DD")
		}
		now = week.Start
	}

	id := uuid.NewString()
	sessionLogger := s.logger.With(zap.String("session_id", id))
	editor, err := availability.NewEditor(s.intervals, s.bookings, availability.EditorOptions{
		Window:   s.cfg.Window,
		Location: s.cfg.Location,
		Now:      now,
		Logger:   sessionLogger,
		OnStale:  s.metrics.RecordStaleResponse,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create editor")
	}

	s.mu.Lock()
	s.sessions[id] = &editorSession{editor: editor, lastSeen: s.cfg.Now()}
	count := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(count)
	sessionLogger.Info("editor session opened")

	// Both loads record their failure on the editor; the snapshot carries it to the caller.
	_ = editor.LoadBookings(ctx)
	if req.EventTypeID != nil {
		_ = editor.SelectEntity(ctx, *req.EventTypeID)
	}
	return s.present(id, editor), nil
}

// Get returns the current snapshot of a session.
func (s *EditorService) Get(id string) (*dto.EditorSessionResponse, error) {
	editor, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.present(id, editor), nil
}

// SelectEventType replaces the session grid with the stored availability of an event type.
func (s *EditorService) SelectEventType(ctx context.Context, id string, req dto.SelectEventTypeRequest) (*dto.EditorSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event type selection")
	}
	editor, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := editor.SelectEntity(ctx, req.EventTypeID); err != nil {
		return nil, mapEditorError(err)
	}
	return s.present(id, editor), nil
}

// Toggle flips one cell. A cell occupied by a booking in the displayed week is not changed
// and the response reports applied=false.
func (s *EditorService) Toggle(id string, req dto.ToggleCellRequest) (*dto.ToggleCellResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cell")
	}
	editor, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	day := *req.Day
	var row int
	if req.Row != nil {
		row = *req.Row
	} else {
		row = editor.Window().FromWallClock(req.Time)
	}

	applied, value, err := editor.ToggleCell(day, row)
	if err != nil {
		return nil, mapEditorError(err)
	}
	s.metrics.RecordToggle(applied)

	return &dto.ToggleCellResponse{Applied: applied, Day: day, Row: row, Value: value}, nil
}

// Navigate moves the displayed week and reloads its bookings. A failed booking fetch is
// reported in the snapshot and the week change still applies.
func (s *EditorService) Navigate(ctx context.Context, id string, req dto.NavigateWeekRequest) (*dto.EditorSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid direction")
	}
	dir, err := availability.ParseDirection(req.Direction)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid direction")
	}
	editor, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	_ = editor.NavigateWeek(ctx, dir)
	return s.present(id, editor), nil
}

// ReloadBookings retries the booking fetch for the displayed week.
func (s *EditorService) ReloadBookings(ctx context.Context, id string) (*dto.EditorSessionResponse, error) {
	editor, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := editor.LoadBookings(ctx); err != nil {
		return nil, mapEditorError(err)
	}
	return s.present(id, editor), nil
}

// Save writes the session grid as the full availability of the selected event type.
func (s *EditorService) Save(ctx context.Context, id string) (*dto.SaveAvailabilityResponse, error) {
	editor, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	updated, err := editor.Save(ctx)
	if err != nil {
		return nil, mapEditorError(err)
	}
	return &dto.SaveAvailabilityResponse{Updated: updated, Session: *s.present(id, editor)}, nil
}

// Discard drops the unsaved grid and the selected event type. The session stays open.
func (s *EditorService) Discard(id string) (*dto.EditorSessionResponse, error) {
	editor, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	editor.Discard()
	return s.present(id, editor), nil
}

// Close removes a session.
func (s *EditorService) Close(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	count := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return errSessionNotFound
	}
	session.editor.Discard()
	s.metrics.SetActiveSessions(count)
	return nil
}

// PruneExpired closes sessions idle for longer than the configured TTL.
func (s *EditorService) PruneExpired() int {
	cutoff := s.cfg.Now().Add(-s.cfg.SessionTTL)
	s.mu.Lock()
	var pruned []*editorSession
	for id, session := range s.sessions {
		if session.lastSeen.Before(cutoff) {
			pruned = append(pruned, session)
			delete(s.sessions, id)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	for _, session := range pruned {
		session.editor.Discard()
	}
	if len(pruned) > 0 {
		s.logger.Info("editor sessions expired", zap.Int("count", len(pruned)))
	}
	s.metrics.SetActiveSessions(count)
	return len(pruned)
}

// RunJanitor prunes expired sessions every interval until ctx is done.
func (s *EditorService) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.PruneExpired()
		}
	}
}

func (s *EditorService) lookup(id string) (*availability.Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	session.lastSeen = s.cfg.Now()
	return session.editor, nil
}

func (s *EditorService) present(id string, editor *availability.Editor) *dto.EditorSessionResponse {
	snap := editor.Snapshot()
	resp := &dto.EditorSessionResponse{
		ID:       id,
		State:    string(snap.State),
		Loaded:   snap.Loaded,
		Empty:    snap.Empty,
		Saving:   snap.Saving,
		Week:     weekView(snap.Week),
		Rows:     rowViews(editor.Window()),
		Grid:     gridRows(snap.Grid),
		Occupied: snap.Occupied.Keys(),
	}
	if snap.HasEntity {
		eventTypeID := snap.EventTypeID
		resp.EventTypeID = &eventTypeID
	}
	if snap.Err != nil {
		resp.Error = mapEditorError(snap.Err)
	}
	if snap.BookingsErr != nil {
		resp.BookingsError = mapEditorError(snap.BookingsErr)
	}

	s.mu.Lock()
	if session, ok := s.sessions[id]; ok {
		resp.ExpiresAt = session.lastSeen.Add(s.cfg.SessionTTL).UTC().Format(time.RFC3339)
	}
	s.mu.Unlock()
	return resp
}

// mapEditorError converts editor failures into API errors. Typed errors raised by the stores
// (not found, invalid interval) are kept as is.
func mapEditorError(err error) *appErrors.Error {
	var (
		loadErr *availability.LoadError
		saveErr *availability.SaveError
		invalid *availability.InvalidIntervalError
		appErr  *appErrors.Error
	)
	switch {
	case errors.Is(err, availability.ErrNoEntity):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "select an event type first")
	case errors.Is(err, availability.ErrNotLoaded):
		return appErrors.WrapAs(appErrors.ErrNotLoaded, err, "")
	case errors.Is(err, availability.ErrSaveInProgress):
		return appErrors.WrapAs(appErrors.ErrConflict, err, "save already in progress")
	case errors.Is(err, availability.ErrCellOutOfRange):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.As(err, &invalid):
		return appErrors.WrapAs(appErrors.ErrInvalidInterval, err, invalid.Error())
	case errors.As(err, &appErr):
		return appErr
	case errors.As(err, &loadErr):
		return appErrors.WrapAs(appErrors.ErrLoadFailed, err, "")
	case errors.As(err, &saveErr):
		return appErrors.WrapAs(appErrors.ErrSaveFailed, err, "")
	default:
		return appErrors.FromError(err)
	}
}
