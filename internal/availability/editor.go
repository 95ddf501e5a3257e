package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/availability-api/internal/models"
)

// State is the lifecycle phase of an editor.
type State string

const (
	StateUnloaded State = "unloaded"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateSaving   State = "saving"
	StateError    State = "error"
)

// Stale response kinds passed to EditorOptions.OnStale.
const (
	StaleIntervals = "intervals"
	StaleBookings  = "bookings"
	StaleSave      = "save"
)

var (
	ErrNoEntity         = errors.New("no event type selected")
	ErrNotLoaded        = errors.New("availability for the selected event type failed to load")
	ErrSaveInProgress   = errors.New("save already in progress")
	ErrCellOutOfRange   = errors.New("cell out of range")
	ErrStaleResponse    = errors.New("stale response discarded")
	errNilIntervalStore = errors.New("interval store is required")
)

// LoadError wraps a failed fetch of intervals or bookings.
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SaveError wraps a failed full-replace write.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save availability: %v", e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// IntervalStore reads and fully replaces persisted availability for an event type.
type IntervalStore interface {
	ListIntervals(ctx context.Context, eventTypeID int64) ([]models.Interval, error)
	ReplaceIntervals(ctx context.Context, eventTypeID int64, intervals []models.Interval) (int, error)
}

// BookingStore lists concrete bookings overlapping [from, to).
type BookingStore interface {
	ListBookings(ctx context.Context, from, to time.Time) ([]models.Booking, error)
}

// EditorOptions configures an Editor.
type EditorOptions struct {
	Window   Window
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger
	// OnStale is invoked, without the editor lock held, for every discarded response.
	OnStale func(kind string)
}

// Snapshot is a consistent copy of the editor state.
type Snapshot struct {
	State        State
	EventTypeID  int64
	HasEntity    bool
	Loaded       bool
	Empty        bool
	Week         Week
	Grid         Grid
	Occupied     OccupiedCellSet
	Err          error
	BookingsErr  error
	BookingsBusy bool
	Saving       bool
}

// Editor owns one availability edit session: the grid of one event type plus the
// booking overlay of the displayed week. Store calls run without the lock held and
// their results are applied only when no newer request superseded them.
type Editor struct {
	intervals IntervalStore
	bookings  BookingStore
	window    Window
	logger    *zap.Logger
	onStale   func(kind string)

	mu          sync.Mutex
	state       State
	entityID    int64
	hasEntity   bool
	loaded      bool
	empty       bool
	grid        Grid
	lastErr     error
	loadSeq     uint64
	week        Week
	occupied    OccupiedCellSet
	bookingsErr error
	bookingSeq  uint64
	fetching    bool
	saving      bool
}

// NewEditor builds an editor positioned on the week containing Now.
func NewEditor(intervals IntervalStore, bookings BookingStore, opts EditorOptions) (*Editor, error) {
	if intervals == nil {
		return nil, errNilIntervalStore
	}
	if opts.Window == (Window{}) {
		opts.Window = DefaultWindow()
	}
	if err := opts.Window.Validate(); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Editor{
		intervals: intervals,
		bookings:  bookings,
		window:    opts.Window,
		logger:    opts.Logger,
		onStale:   opts.OnStale,
		state:     StateUnloaded,
		grid:      opts.Window.NewGrid(),
		week:      NormalizeWeek(opts.Now(), opts.Location),
		occupied:  OccupiedCellSet{},
	}, nil
}

// Window returns the row layout used by the editor.
func (e *Editor) Window() Window {
	return e.window
}

// SelectEntity discards the current grid and loads the availability of eventTypeID.
// On failure the grid stays all-false and the editor enters StateError.
func (e *Editor) SelectEntity(ctx context.Context, eventTypeID int64) error {
	e.mu.Lock()
	e.loadSeq++
	seq := e.loadSeq
	e.entityID = eventTypeID
	e.hasEntity = true
	e.loaded = false
	e.empty = false
	e.lastErr = nil
	e.grid = e.window.NewGrid()
	e.state = StateLoading
	e.mu.Unlock()

	intervals, err := e.intervals.ListIntervals(ctx, eventTypeID)
	var grid Grid
	if err == nil {
		grid, err = e.window.Decode(intervals)
	}

	e.mu.Lock()
	if seq != e.loadSeq {
		e.mu.Unlock()
		e.discard(StaleIntervals, zap.Int64("event_type_id", eventTypeID))
		return nil
	}
	defer e.mu.Unlock()

	if err != nil {
		e.grid = e.window.NewGrid()
		e.state = StateError
		e.lastErr = &LoadError{Op: StaleIntervals, Err: err}
		e.logger.Warn("availability load failed", zap.Int64("event_type_id", eventTypeID), zap.Error(err))
		return e.lastErr
	}
	e.grid = grid
	e.loaded = true
	e.empty = grid.IsEmpty()
	e.state = StateReady
	return nil
}

// ToggleCell flips one cell of the grid and returns the cell's resulting value. Cells
// occupied by a booking in the displayed week are left untouched and applied is false.
func (e *Editor) ToggleCell(day, row int) (applied, value bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.hasEntity {
		return false, false, ErrNoEntity
	}
	if day < 0 || day >= DaysPerWeek || row < 0 || row >= e.window.RowCount() {
		return false, false, fmt.Errorf("%w: day %d row %d", ErrCellOutOfRange, day, row)
	}
	if e.occupied.Contains(e.week.Date(day), row) {
		return false, e.grid[day][row], nil
	}
	e.grid[day][row] = !e.grid[day][row]
	return true, e.grid[day][row], nil
}

// Save encodes the grid and replaces the persisted availability with it.
// A failed write keeps the grid intact so the call can be retried.
func (e *Editor) Save(ctx context.Context) (int, error) {
	e.mu.Lock()
	switch {
	case !e.hasEntity:
		e.mu.Unlock()
		return 0, ErrNoEntity
	case !e.loaded:
		e.mu.Unlock()
		return 0, ErrNotLoaded
	case e.saving:
		e.mu.Unlock()
		return 0, ErrSaveInProgress
	}
	seq := e.loadSeq
	eventTypeID := e.entityID
	intervals := e.window.Encode(e.grid)
	e.saving = true
	e.state = StateSaving
	e.mu.Unlock()

	updated, err := e.intervals.ReplaceIntervals(ctx, eventTypeID, intervals)

	e.mu.Lock()
	e.saving = false
	if seq != e.loadSeq {
		e.mu.Unlock()
		e.discard(StaleSave, zap.Int64("event_type_id", eventTypeID))
		if err != nil {
			return 0, &SaveError{Err: err}
		}
		return updated, nil
	}
	defer e.mu.Unlock()

	if err != nil {
		e.state = StateError
		e.lastErr = &SaveError{Err: err}
		e.logger.Warn("availability save failed", zap.Int64("event_type_id", eventTypeID), zap.Error(err))
		return 0, e.lastErr
	}
	e.state = StateReady
	e.lastErr = nil
	e.empty = len(intervals) == 0
	return updated, nil
}

// NavigateWeek moves the displayed week and refetches its bookings.
// The grid is recurring and is not affected.
func (e *Editor) NavigateWeek(ctx context.Context, dir Direction) error {
	e.mu.Lock()
	e.week = e.week.Shift(dir)
	e.occupied = OccupiedCellSet{}
	e.mu.Unlock()
	return e.LoadBookings(ctx)
}

// LoadBookings fetches bookings for the current week and rebuilds the overlay.
// On failure the overlay is empty and the error is recorded for retry.
func (e *Editor) LoadBookings(ctx context.Context) error {
	e.mu.Lock()
	e.bookingSeq++
	seq := e.bookingSeq
	week := e.week
	e.fetching = true
	e.mu.Unlock()

	var (
		bookings []models.Booking
		err      error
	)
	if e.bookings != nil {
		from, to := week.Range()
		bookings, err = e.bookings.ListBookings(ctx, from, to)
	}
	occupied := e.window.BuildOccupied(bookings, week)

	e.mu.Lock()
	if seq != e.bookingSeq || !week.Equal(e.week) {
		e.mu.Unlock()
		e.discard(StaleBookings, zap.String("week", week.Key()))
		return nil
	}
	defer e.mu.Unlock()

	e.fetching = false
	if err != nil {
		e.occupied = OccupiedCellSet{}
		e.bookingsErr = &LoadError{Op: StaleBookings, Err: err}
		e.logger.Warn("booking overlay load failed", zap.String("week", week.Key()), zap.Error(err))
		return e.bookingsErr
	}
	e.occupied = occupied
	e.bookingsErr = nil
	return nil
}

// Discard drops the grid and selection, invalidating any in-flight load.
func (e *Editor) Discard() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadSeq++
	e.hasEntity = false
	e.loaded = false
	e.empty = false
	e.entityID = 0
	e.lastErr = nil
	e.grid = e.window.NewGrid()
	e.state = StateUnloaded
}

// Snapshot returns a copy of the current state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		State:        e.state,
		EventTypeID:  e.entityID,
		HasEntity:    e.hasEntity,
		Loaded:       e.loaded,
		Empty:        e.empty,
		Week:         e.week,
		Grid:         e.grid.Clone(),
		Occupied:     e.occupied,
		Err:          e.lastErr,
		BookingsErr:  e.bookingsErr,
		BookingsBusy: e.fetching,
		Saving:       e.saving,
	}
}

func (e *Editor) discard(kind string, fields ...zap.Field) {
	e.logger.Debug(ErrStaleResponse.Error(), append(fields, zap.String("kind", kind))...)
	if e.onStale != nil {
		e.onStale(kind)
	}
}
