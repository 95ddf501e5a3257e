package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/availability-api/internal/dto"
	"github.com/noah-isme/availability-api/internal/models"
	appErrors "github.com/noah-isme/availability-api/pkg/errors"
)

func TestBookingServiceCachesWeekLookups(t *testing.T) {
	start := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	repo := &stubBookingRepo{bookings: []models.Booking{{ID: 1, EventTypeID: 4, StartAt: start, EndAt: start.Add(time.Hour), Status: models.BookingStatusConfirmed}}}
	metrics := NewMetricsService()
	cache := NewCacheService(newStubCacheRepo(), metrics, time.Minute, nil, true)
	svc := NewBookingService(repo, cache, time.Minute, time.UTC, nil, nil, metrics)

	from := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	first, err := svc.ListBookings(context.Background(), from, to)
	require.NoError(t, err)
	second, err := svc.ListBookings(context.Background(), from, to)
	require.NoError(t, err)

	assert.Len(t, repo.calls, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].StartAt.Equal(second[0].StartAt))
	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
}

func TestBookingServiceFailureIsLoadFailed(t *testing.T) {
	svc := NewBookingService(&stubBookingRepo{err: errors.New("timeout")}, nil, 0, time.UTC, nil, nil, nil)

	_, err := svc.ListBookings(context.Background(), time.Now(), time.Now().Add(time.Hour))
	assert.True(t, errors.Is(err, appErrors.ErrLoadFailed))
}

func TestBookingServiceListQuery(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	repo := &stubBookingRepo{}
	svc := NewBookingService(repo, nil, 0, loc, nil, nil, nil)

	_, err = svc.List(context.Background(), dto.ListBookingsQuery{From: "2024-01-07", To: "2024-01-14", EventTypeID: int64Ptr(4)})
	require.NoError(t, err)
	require.Len(t, repo.calls, 1)
	assert.True(t, repo.calls[0].From.Equal(time.Date(2024, 1, 7, 0, 0, 0, 0, loc)))
	assert.Equal(t, int64(4), *repo.calls[0].EventTypeID)

	_, err = svc.List(context.Background(), dto.ListBookingsQuery{From: "2024-01-07T00:00:00Z", To: "2024-01-07T00:00:00Z"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.List(context.Background(), dto.ListBookingsQuery{From: "yesterday", To: "2024-01-07"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.List(context.Background(), dto.ListBookingsQuery{To: "2024-01-07"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
