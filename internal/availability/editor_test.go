package availability

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/availability-api/internal/models"
)

var editorNow = time.Date(2024, time.May, 6, 9, 0, 0, 0, time.UTC)

type intervalStoreStub struct {
	mu         sync.Mutex
	lists      map[int64][]models.Interval
	listErr    error
	replaceErr error
	replaced   map[int64][]models.Interval
	gates      map[int64]chan struct{}
	started    chan int64
}

func (s *intervalStoreStub) ListIntervals(ctx context.Context, eventTypeID int64) ([]models.Interval, error) {
	if s.started != nil {
		s.started <- eventTypeID
	}
	if gate, ok := s.gates[eventTypeID]; ok {
		<-gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]models.Interval(nil), s.lists[eventTypeID]...), nil
}

func (s *intervalStoreStub) ReplaceIntervals(ctx context.Context, eventTypeID int64, intervals []models.Interval) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return 0, s.replaceErr
	}
	if s.replaced == nil {
		s.replaced = make(map[int64][]models.Interval)
	}
	s.replaced[eventTypeID] = intervals
	return len(intervals), nil
}

type bookingStoreStub struct {
	byWeek  map[string][]models.Booking
	err     error
	gates   map[string]chan struct{}
	started chan string
}

func (s *bookingStoreStub) ListBookings(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	key := from.Format("2006-01-02")
	if s.started != nil {
		s.started <- key
	}
	if gate, ok := s.gates[key]; ok {
		<-gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.byWeek[key], nil
}

func newTestEditor(t *testing.T, intervals IntervalStore, bookings BookingStore, onStale func(string)) *Editor {
	t.Helper()
	editor, err := NewEditor(intervals, bookings, EditorOptions{
		Now:      func() time.Time { return editorNow },
		Location: time.UTC,
		OnStale:  onStale,
	})
	require.NoError(t, err)
	return editor
}

func tenToEleven(day int) models.Booking {
	start := time.Date(2024, time.May, 5+day, 10, 0, 0, 0, time.UTC)
	return models.Booking{StartAt: start, EndAt: start.Add(time.Hour), Status: models.BookingStatusConfirmed}
}

func TestEditorStartsUnloadedOnCurrentWeek(t *testing.T) {
	editor := newTestEditor(t, &intervalStoreStub{}, &bookingStoreStub{}, nil)
	snap := editor.Snapshot()
	assert.Equal(t, StateUnloaded, snap.State)
	assert.Equal(t, "2024-05-05", snap.Week.Key())
	assert.False(t, snap.HasEntity)

	_, _, err := editor.ToggleCell(1, 1)
	assert.ErrorIs(t, err, ErrNoEntity)
	_, err = editor.Save(context.Background())
	assert.ErrorIs(t, err, ErrNoEntity)
}

func TestNewEditorRequiresStoreAndValidWindow(t *testing.T) {
	_, err := NewEditor(nil, nil, EditorOptions{})
	require.Error(t, err)
	_, err = NewEditor(&intervalStoreStub{}, nil, EditorOptions{Window: Window{StartHour: 9, EndHour: 8, StepMinutes: 30}})
	require.Error(t, err)
}

func TestEditorSelectEntityDecodesGrid(t *testing.T) {
	store := &intervalStoreStub{lists: map[int64][]models.Interval{
		1: {{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}},
	}}
	editor := newTestEditor(t, store, &bookingStoreStub{}, nil)

	require.NoError(t, editor.SelectEntity(context.Background(), 1))
	snap := editor.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.Loaded)
	assert.False(t, snap.Empty)
	assert.True(t, snap.Grid[1][4])
	assert.True(t, snap.Grid[1][5])
	assert.False(t, snap.Grid[1][6])
}

func TestEditorSelectEntityEmptyIsReady(t *testing.T) {
	editor := newTestEditor(t, &intervalStoreStub{}, &bookingStoreStub{}, nil)

	require.NoError(t, editor.SelectEntity(context.Background(), 5))
	snap := editor.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	assert.True(t, snap.Empty)
	assert.Nil(t, snap.Err)
}

func TestEditorSelectEntityFailureDefaultsToEmptyGrid(t *testing.T) {
	store := &intervalStoreStub{listErr: errors.New("connection refused")}
	editor := newTestEditor(t, store, &bookingStoreStub{}, nil)

	err := editor.SelectEntity(context.Background(), 1)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)

	snap := editor.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.False(t, snap.Loaded)
	assert.True(t, snap.Grid.IsEmpty())

	applied, _, err := editor.ToggleCell(0, 0)
	require.NoError(t, err)
	assert.True(t, applied)

	_, err = editor.Save(context.Background())
	assert.ErrorIs(t, err, ErrNotLoaded)

	store.listErr = nil
	require.NoError(t, editor.SelectEntity(context.Background(), 1))
	assert.Equal(t, StateReady, editor.Snapshot().State)
}

func TestEditorSelectEntitySurfacesInvalidInterval(t *testing.T) {
	store := &intervalStoreStub{lists: map[int64][]models.Interval{
		1: {{DayOfWeek: 1, StartTime: "11:00", EndTime: "10:00"}},
	}}
	editor := newTestEditor(t, store, &bookingStoreStub{}, nil)

	err := editor.SelectEntity(context.Background(), 1)
	var invalid *InvalidIntervalError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "11:00", invalid.Interval.StartTime)
	assert.Equal(t, StateError, editor.Snapshot().State)
}

func TestEditorToggleAndSave(t *testing.T) {
	store := &intervalStoreStub{}
	editor := newTestEditor(t, store, &bookingStoreStub{}, nil)
	require.NoError(t, editor.SelectEntity(context.Background(), 3))

	for _, row := range []int{4, 5, 6} {
		applied, _, err := editor.ToggleCell(2, row)
		require.NoError(t, err)
		require.True(t, applied)
	}
	applied, value, err := editor.ToggleCell(2, 6)
	require.NoError(t, err)
	require.True(t, applied)
	assert.False(t, value)

	updated, err := editor.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, []models.Interval{{DayOfWeek: 2, StartTime: "09:00", EndTime: "10:00"}}, store.replaced[3])
	assert.Equal(t, StateReady, editor.Snapshot().State)
}

func TestEditorToggleReportsValueUnderConcurrency(t *testing.T) {
	editor := newTestEditor(t, &intervalStoreStub{}, &bookingStoreStub{}, nil)
	require.NoError(t, editor.SelectEntity(context.Background(), 1))

	const toggles = 100
	values := make(chan bool, toggles)
	var wg sync.WaitGroup
	for i := 0; i < toggles; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, value, err := editor.ToggleCell(4, 10)
			assert.NoError(t, err)
			values <- value
		}()
	}
	wg.Wait()
	close(values)

	on := 0
	for v := range values {
		if v {
			on++
		}
	}
	// Each toggle observes its own flip, so the results alternate exactly.
	assert.Equal(t, toggles/2, on)
	assert.False(t, editor.Snapshot().Grid[4][10])
}

func TestEditorToggleOutOfRange(t *testing.T) {
	editor := newTestEditor(t, &intervalStoreStub{}, &bookingStoreStub{}, nil)
	require.NoError(t, editor.SelectEntity(context.Background(), 1))

	for _, cell := range [][2]int{{-1, 0}, {7, 0}, {0, -1}, {0, 26}} {
		_, _, err := editor.ToggleCell(cell[0], cell[1])
		assert.ErrorIs(t, err, ErrCellOutOfRange)
	}
}

func TestEditorToggleRejectedOnOccupiedCell(t *testing.T) {
	store := &intervalStoreStub{lists: map[int64][]models.Interval{
		1: {{DayOfWeek: 1, StartTime: "10:00", EndTime: "10:30"}},
	}}
	bookings := &bookingStoreStub{byWeek: map[string][]models.Booking{
		"2024-05-05": {tenToEleven(1)},
	}}
	editor := newTestEditor(t, store, bookings, nil)
	require.NoError(t, editor.SelectEntity(context.Background(), 1))
	require.NoError(t, editor.LoadBookings(context.Background()))

	before := editor.Snapshot().Grid
	for row, want := range map[int]bool{6: true, 7: false} {
		applied, value, err := editor.ToggleCell(1, row)
		require.NoError(t, err)
		assert.False(t, applied)
		assert.Equal(t, want, value)
	}
	assert.True(t, before.Equal(editor.Snapshot().Grid))
	assert.True(t, editor.Snapshot().Grid[1][6])

	// Same row on another weekday is free.
	applied, _, err := editor.ToggleCell(2, 6)
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestEditorNavigateWeekLeavesGridAndMovesOverlay(t *testing.T) {
	bookings := &bookingStoreStub{byWeek: map[string][]models.Booking{
		"2024-05-05": {tenToEleven(1)},
	}}
	editor := newTestEditor(t, &intervalStoreStub{}, bookings, nil)
	require.NoError(t, editor.SelectEntity(context.Background(), 1))
	require.NoError(t, editor.LoadBookings(context.Background()))
	_, _, err := editor.ToggleCell(3, 3)
	require.NoError(t, err)

	require.NoError(t, editor.NavigateWeek(context.Background(), Next))
	snap := editor.Snapshot()
	assert.Equal(t, "2024-05-12", snap.Week.Key())
	assert.Zero(t, snap.Occupied.Len())
	assert.True(t, snap.Grid[3][3])

	applied, _, err := editor.ToggleCell(1, 6)
	require.NoError(t, err)
	assert.True(t, applied)

	require.NoError(t, editor.NavigateWeek(context.Background(), Previous))
	applied, _, err = editor.ToggleCell(1, 6)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestEditorBookingFailureLeavesEmptyOverlay(t *testing.T) {
	bookings := &bookingStoreStub{err: errors.New("timeout")}
	editor := newTestEditor(t, &intervalStoreStub{}, bookings, nil)
	require.NoError(t, editor.SelectEntity(context.Background(), 1))

	err := editor.LoadBookings(context.Background())
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, StaleBookings, loadErr.Op)

	snap := editor.Snapshot()
	assert.Zero(t, snap.Occupied.Len())
	assert.Error(t, snap.BookingsErr)
	assert.Equal(t, StateReady, snap.State)
}

func TestEditorSaveFailureKeepsGrid(t *testing.T) {
	store := &intervalStoreStub{}
	editor := newTestEditor(t, store, &bookingStoreStub{}, nil)
	require.NoError(t, editor.SelectEntity(context.Background(), 1))
	_, _, err := editor.ToggleCell(0, 0)
	require.NoError(t, err)

	store.replaceErr = errors.New("write failed")
	_, err = editor.Save(context.Background())
	var saveErr *SaveError
	require.ErrorAs(t, err, &saveErr)

	snap := editor.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.True(t, snap.Grid[0][0])

	store.replaceErr = nil
	updated, err := editor.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, StateReady, editor.Snapshot().State)
}

func TestEditorDiscardDropsGrid(t *testing.T) {
	editor := newTestEditor(t, &intervalStoreStub{}, &bookingStoreStub{}, nil)
	require.NoError(t, editor.SelectEntity(context.Background(), 1))
	_, _, err := editor.ToggleCell(0, 0)
	require.NoError(t, err)

	editor.Discard()
	snap := editor.Snapshot()
	assert.Equal(t, StateUnloaded, snap.State)
	assert.True(t, snap.Grid.IsEmpty())
	assert.False(t, snap.HasEntity)
}

func TestEditorDiscardsStaleWeekResponses(t *testing.T) {
	order := []struct {
		name  string
		first string
	}{
		{name: "latest resolves first", first: "2024-05-05"},
		{name: "stale resolves first", first: "2024-05-12"},
	}
	for _, tc := range order {
		t.Run(tc.name, func(t *testing.T) {
			gates := map[string]chan struct{}{
				"2024-05-05": make(chan struct{}),
				"2024-05-12": make(chan struct{}),
			}
			bookings := &bookingStoreStub{
				byWeek: map[string][]models.Booking{
					"2024-05-05": {tenToEleven(1)},
					"2024-05-12": {tenToEleven(8)},
				},
				gates:   gates,
				started: make(chan string, 2),
			}
			var stale int32
			editor := newTestEditor(t, &intervalStoreStub{}, bookings, func(kind string) {
				if kind == StaleBookings {
					atomic.AddInt32(&stale, 1)
				}
			})

			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = editor.NavigateWeek(context.Background(), Next)
			}()
			require.Equal(t, "2024-05-12", <-bookings.started)
			go func() {
				defer wg.Done()
				_ = editor.NavigateWeek(context.Background(), Previous)
			}()
			require.Equal(t, "2024-05-05", <-bookings.started)

			close(gates[tc.first])
			for key, gate := range gates {
				if key != tc.first {
					close(gate)
				}
			}
			wg.Wait()

			snap := editor.Snapshot()
			assert.Equal(t, "2024-05-05", snap.Week.Key())
			assert.Equal(t, []string{"2024-05-06-6", "2024-05-06-7"}, snap.Occupied.Keys())
			assert.Equal(t, int32(1), atomic.LoadInt32(&stale))
		})
	}
}

func TestEditorDiscardsStaleEntityLoad(t *testing.T) {
	store := &intervalStoreStub{
		lists: map[int64][]models.Interval{
			1: {{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}},
			2: {{DayOfWeek: 4, StartTime: "15:00", EndTime: "16:00"}},
		},
		gates:   map[int64]chan struct{}{1: make(chan struct{})},
		started: make(chan int64, 2),
	}
	var stale int32
	editor := newTestEditor(t, store, &bookingStoreStub{}, func(kind string) {
		if kind == StaleIntervals {
			atomic.AddInt32(&stale, 1)
		}
	})

	done := make(chan error, 1)
	go func() { done <- editor.SelectEntity(context.Background(), 1) }()
	require.Equal(t, int64(1), <-store.started)

	require.NoError(t, editor.SelectEntity(context.Background(), 2))
	<-store.started
	close(store.gates[1])
	require.NoError(t, <-done)

	snap := editor.Snapshot()
	assert.Equal(t, int64(2), snap.EventTypeID)
	assert.True(t, snap.Grid[4][16])
	assert.False(t, snap.Grid[1][4])
	assert.Equal(t, int32(1), atomic.LoadInt32(&stale))
}
