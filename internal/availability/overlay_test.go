package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/availability-api/internal/models"
)

func mayWeek() Week {
	return NormalizeWeek(time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC), time.UTC)
}

func booking(start, end time.Time) models.Booking {
	return models.Booking{StartAt: start, EndAt: end, Status: models.BookingStatusConfirmed}
}

func TestBuildOccupiedSingleBooking(t *testing.T) {
	w := DefaultWindow()
	set := w.BuildOccupied([]models.Booking{
		booking(time.Date(2024, time.May, 6, 10, 0, 0, 0, time.UTC), time.Date(2024, time.May, 6, 11, 0, 0, 0, time.UTC)),
	}, mayWeek())

	assert.Equal(t, []string{"2024-05-06-6", "2024-05-06-7"}, set.Keys())
	assert.True(t, set.Contains(time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC), 6))
	assert.False(t, set.Contains(time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC), 8))
	assert.False(t, set.Contains(time.Date(2024, time.May, 13, 0, 0, 0, 0, time.UTC), 6))
}

func TestBuildOccupiedStraddlesMidnight(t *testing.T) {
	w := DefaultWindow()
	set := w.BuildOccupied([]models.Booking{
		booking(time.Date(2024, time.May, 7, 23, 30, 0, 0, time.UTC), time.Date(2024, time.May, 8, 0, 30, 0, 0, time.UTC)),
	}, mayWeek())

	assert.Equal(t, []string{"2024-05-07-25", "2024-05-08-0"}, set.Keys())
}

func TestBuildOccupiedExcludesOtherWeeks(t *testing.T) {
	w := DefaultWindow()
	set := w.BuildOccupied([]models.Booking{
		booking(time.Date(2024, time.May, 13, 9, 0, 0, 0, time.UTC), time.Date(2024, time.May, 13, 10, 0, 0, 0, time.UTC)),
		booking(time.Date(2024, time.May, 4, 9, 0, 0, 0, time.UTC), time.Date(2024, time.May, 4, 10, 0, 0, 0, time.UTC)),
		// Saturday night into the following Sunday: only the in-week half counts.
		booking(time.Date(2024, time.May, 11, 23, 30, 0, 0, time.UTC), time.Date(2024, time.May, 12, 0, 30, 0, 0, time.UTC)),
	}, mayWeek())

	assert.Equal(t, []string{"2024-05-11-25"}, set.Keys())
}

func TestBuildOccupiedSkipsInvalidAndReleasedBookings(t *testing.T) {
	w := DefaultWindow()
	start := time.Date(2024, time.May, 6, 10, 0, 0, 0, time.UTC)
	cancelled := booking(start, start.Add(time.Hour))
	cancelled.Status = models.BookingStatusCancelled
	refunded := booking(start, start.Add(time.Hour))
	refunded.Status = models.BookingStatusRefunded

	set := w.BuildOccupied([]models.Booking{
		booking(start, start),
		booking(start, start.Add(-time.Hour)),
		{StartAt: start},
		cancelled,
		refunded,
	}, mayWeek())

	assert.Zero(t, set.Len())
}

func TestBuildOccupiedUsesWeekLocation(t *testing.T) {
	w := DefaultWindow()
	loc := time.FixedZone("UTC+2", 2*60*60)
	week := NormalizeWeek(time.Date(2024, time.May, 6, 0, 0, 0, 0, loc), loc)
	// 08:00 UTC is 10:00 local.
	set := w.BuildOccupied([]models.Booking{
		booking(time.Date(2024, time.May, 6, 8, 0, 0, 0, time.UTC), time.Date(2024, time.May, 6, 8, 30, 0, 0, time.UTC)),
	}, week)

	assert.Equal(t, []string{"2024-05-06-6"}, set.Keys())
}

func TestBuildOccupiedClampsOutsideWindow(t *testing.T) {
	w := DefaultWindow()
	set := w.BuildOccupied([]models.Booking{
		booking(time.Date(2024, time.May, 9, 6, 0, 0, 0, time.UTC), time.Date(2024, time.May, 9, 6, 30, 0, 0, time.UTC)),
	}, mayWeek())

	assert.Equal(t, []string{"2024-05-09-0"}, set.Keys())
}

func TestEmptyOccupiedSet(t *testing.T) {
	var set OccupiedCellSet
	assert.False(t, set.Has("2024-05-06-6"))
	assert.Empty(t, set.Keys())
	assert.Equal(t, "2024-05-06-3", CellKey(time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC), 3))
}
