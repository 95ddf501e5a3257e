package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/availability-api/internal/models"
)

func TestBookingRepositoryListOverlapping(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	rows := sqlmock.NewRows([]string{"id", "event_type_id", "title", "start_at", "end_at", "status"}).
		AddRow(int64(10), int64(4), "Demo", from.Add(33*time.Hour), from.Add(34*time.Hour), "confirmed")
	mock.ExpectQuery(regexp.QuoteMeta("WHERE start_at < $1 AND end_at > $2 AND status NOT IN ($3, $4) ORDER BY start_at ASC")).
		WithArgs(to, from, "cancelled", "refunded").
		WillReturnRows(rows)

	bookings, err := repo.ListOverlapping(context.Background(), models.BookingFilter{From: from, To: to})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.BookingStatusConfirmed, bookings[0].Status)
	require.NotNil(t, bookings[0].Title)
	assert.Equal(t, "Demo", *bookings[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListOverlappingByEventType(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	from := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	eventTypeID := int64(4)
	mock.ExpectQuery(regexp.QuoteMeta("AND event_type_id = $5 ORDER BY start_at ASC")).
		WithArgs(to, from, "cancelled", "refunded", eventTypeID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type_id", "title", "start_at", "end_at", "status"}))

	bookings, err := repo.ListOverlapping(context.Background(), models.BookingFilter{From: from, To: to, EventTypeID: &eventTypeID})
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}
