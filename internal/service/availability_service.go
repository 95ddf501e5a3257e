package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/availability-api/internal/availability"
	"github.com/noah-isme/availability-api/internal/dto"
	"github.com/noah-isme/availability-api/internal/models"
	appErrors "github.com/noah-isme/availability-api/pkg/errors"
	"github.com/noah-isme/availability-api/pkg/export"
)

type eventTypeReader interface {
	FindByID(ctx context.Context, id int64) (*models.EventType, error)
}

type availabilityRepository interface {
	ListByEventType(ctx context.Context, eventTypeID int64) ([]models.AvailabilityRecord, error)
	Replace(ctx context.Context, eventTypeID int64, intervals []models.Interval) (int, error)
}

type scheduleRenderer interface {
	Render(s export.Schedule) ([]byte, error)
}

// Export formats.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

// AvailabilityServiceConfig carries the grid layout shared with the editor.
type AvailabilityServiceConfig struct {
	Window   availability.Window
	Location *time.Location
	Now      func() time.Time
}

// AvailabilityService reads and fully replaces the recurring availability of event types.
// It satisfies availability.IntervalStore.
type AvailabilityService struct {
	eventTypes eventTypeReader
	repo       availabilityRepository
	bookings   availability.BookingStore
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
	cfg        AvailabilityServiceConfig
	csv        scheduleRenderer
	pdf        scheduleRenderer
}

func NewAvailabilityService(eventTypes eventTypeReader, repo availabilityRepository, bookings availability.BookingStore, cfg AvailabilityServiceConfig, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AvailabilityService {
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
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AvailabilityService{
		eventTypes: eventTypes,
		repo:       repo,
		bookings:   bookings,
		validator:  validate,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
}

func (s *AvailabilityService) findEventType(ctx context.Context, id int64) (*models.EventType, error) {
	et, err := s.eventTypes.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event type not found")
		}
		return nil, appErrors.WrapAs(appErrors.ErrLoadFailed, err, "failed to load event type")
	}
	return et, nil
}

// ListRecords returns the stored rows of an event type, ids included.
func (s *AvailabilityService) ListRecords(ctx context.Context, eventTypeID int64) ([]models.AvailabilityRecord, error) {
	if _, err := s.findEventType(ctx, eventTypeID); err != nil {
		return nil, err
	}
	start := time.Now()
	records, err := s.repo.ListByEventType(ctx, eventTypeID)
	s.metrics.ObserveDBQuery("list_availability", time.Since(start))
	if err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrLoadFailed, err, "failed to load availability")
	}
	return records, nil
}

// ListIntervals returns stored intervals as persisted, without validation.
func (s *AvailabilityService) ListIntervals(ctx context.Context, eventTypeID int64) ([]models.Interval, error) {
	records, err := s.ListRecords(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}
	intervals := make([]models.Interval, len(records))
	for i, r := range records {
		intervals[i] = r.Interval()
	}
	return intervals, nil
}

// ReplaceIntervals canonicalises the intervals and replaces everything stored for the event type.
// An empty set clears it. The returned count is the number of stored intervals.
func (s *AvailabilityService) ReplaceIntervals(ctx context.Context, eventTypeID int64, intervals []models.Interval) (int, error) {
	canonical, err := s.cfg.Window.Canonicalize(intervals)
	if err != nil {
		return 0, invalidInterval(err)
	}
	return s.store(ctx, eventTypeID, len(intervals), canonical)
}

// Replace validates a full-replace payload and stores its canonical form.
func (s *AvailabilityService) Replace(ctx context.Context, eventTypeID int64, req dto.ReplaceAvailabilityRequest) (*dto.ReplaceAvailabilityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	canonical, err := s.cfg.Window.Canonicalize(req.Intervals())
	if err != nil {
		return nil, invalidInterval(err)
	}
	updated, err := s.store(ctx, eventTypeID, len(req.Slots), canonical)
	if err != nil {
		return nil, err
	}
	return &dto.ReplaceAvailabilityResponse{Updated: updated, Intervals: canonical}, nil
}

func (s *AvailabilityService) store(ctx context.Context, eventTypeID int64, submitted int, canonical []models.Interval) (int, error) {
	if _, err := s.findEventType(ctx, eventTypeID); err != nil {
		return 0, err
	}

	start := time.Now()
	updated, err := s.repo.Replace(ctx, eventTypeID, canonical)
	s.metrics.ObserveDBQuery("replace_availability", time.Since(start))
	s.metrics.RecordSave(err)
	if err != nil {
		s.logger.Error("replace availability failed", zap.Int64("event_type_id", eventTypeID), zap.Error(err))
		return 0, appErrors.WrapAs(appErrors.ErrSaveFailed, err, "")
	}
	s.logger.Info("availability replaced",
		zap.Int64("event_type_id", eventTypeID),
		zap.Int("submitted", submitted),
		zap.Int("stored", updated),
	)
	return updated, nil
}

// Grid composes the decoded availability of an event type with the booking overlay of a week.
// An empty week string selects the current week.
func (s *AvailabilityService) Grid(ctx context.Context, eventTypeID int64, rawWeek string) (*dto.AvailabilityGridResponse, error) {
	week, err := s.resolveWeek(rawWeek)
	if err != nil {
		return nil, err
	}
	grid, err := s.decodeStored(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.occupied(ctx, week)
	if err != nil {
		return nil, err
	}
	return &dto.AvailabilityGridResponse{
		EventTypeID: eventTypeID,
		Week:        weekView(week),
		Rows:        rowViews(s.cfg.Window),
		Grid:        gridRows(grid),
		Occupied:    occupied.Keys(),
		Empty:       grid.IsEmpty(),
	}, nil
}

// Export renders the weekly schedule of an event type as CSV or PDF.
func (s *AvailabilityService) Export(ctx context.Context, eventTypeID int64, rawWeek, format string) (*dto.ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	var renderer scheduleRenderer
	contentType := "text/csv"
	switch format {
	case FormatCSV:
		renderer = s.csv
	case FormatPDF:
		renderer = s.pdf
		contentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	week, err := s.resolveWeek(rawWeek)
	if err != nil {
		return nil, err
	}
	et, err := s.findEventType(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}
	grid, err := s.decodeStored(ctx, eventTypeID)
	if err != nil {
		return nil, err
	}
	occupied, err := s.occupied(ctx, week)
	if err != nil {
		return nil, err
	}

	body, err := renderer.Render(s.schedule(et.Name, week, grid, occupied))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("availability-%s-%s.%s", et.Slug, week.Key(), format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

func (s *AvailabilityService) schedule(title string, week availability.Week, grid availability.Grid, occupied availability.OccupiedCellSet) export.Schedule {
	w := s.cfg.Window
	dates := week.Dates()
	columns := make([]string, len(dates))
	for i, d := range dates {
		columns[i] = d.Format("Mon 01/02")
	}
	rows := make([]export.ScheduleRow, w.RowCount())
	for r := range rows {
		cells := make([]export.CellState, len(dates))
		for d, date := range dates {
			switch {
			case occupied.Contains(date, r):
				cells[d] = export.CellBooked
			case grid[d][r]:
				cells[d] = export.CellAvailable
			}
		}
		rows[r] = export.ScheduleRow{Label: availability.FormatLabel(w.RowToTime(r)), Cells: cells}
	}
	return export.Schedule{Title: fmt.Sprintf("%s: week of %s", title, week.Key()), Columns: columns, Rows: rows}
}

func (s *AvailabilityService) decodeStored(ctx context.Context, eventTypeID int64) (availability.Grid, error) {
	intervals, err := s.ListIntervals(ctx, eventTypeID)
	if err != nil {
		return availability.Grid{}, err
	}
	grid, err := s.cfg.Window.Decode(intervals)
	if err != nil {
		return availability.Grid{}, invalidInterval(err)
	}
	return grid, nil
}

func (s *AvailabilityService) occupied(ctx context.Context, week availability.Week) (availability.OccupiedCellSet, error) {
	if s.bookings == nil {
		return s.cfg.Window.BuildOccupied(nil, week), nil
	}
	from, to := week.Range()
	bookings, err := s.bookings.ListBookings(ctx, from, to)
	if err != nil {
		return availability.OccupiedCellSet{}, err
	}
	return s.cfg.Window.BuildOccupied(bookings, week), nil
}

func (s *AvailabilityService) resolveWeek(raw string) (availability.Week, error) {
	if strings.TrimSpace(raw) == "" {
		return availability.NormalizeWeek(s.cfg.Now(), s.cfg.Location), nil
	}
	week, err := availability.ParseWeek(raw, s.cfg.Location)
	if err != nil {
		return availability.Week{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "week must be YYYY-MM-DD")
	}
	return week, nil
}

func invalidInterval(err error) error {
	var invalid *availability.InvalidIntervalError
	if errors.As(err, &invalid) {
		return appErrors.WrapAs(appErrors.ErrInvalidInterval, err, invalid.Error())
	}
	return appErrors.WrapAs(appErrors.ErrInvalidInterval, err, "")
}
