package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/availability-api/internal/models"
	appErrors "github.com/noah-isme/availability-api/pkg/errors"
)

type stubEventTypes struct {
	items map[int64]models.EventType
	err   error
}

func (s *stubEventTypes) FindByID(_ context.Context, id int64) (*models.EventType, error) {
	if s.err != nil {
		return nil, s.err
	}
	et, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("get event type %d: %w", id, sql.ErrNoRows)
	}
	return &et, nil
}

type stubAvailabilityRepo struct {
	mu         sync.Mutex
	stored     map[int64][]models.Interval
	listErr    error
	replaceErr error
	replaced   [][]models.Interval
}

func newStubAvailabilityRepo() *stubAvailabilityRepo {
	return &stubAvailabilityRepo{stored: make(map[int64][]models.Interval)}
}

func (s *stubAvailabilityRepo) ListByEventType(_ context.Context, id int64) ([]models.AvailabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	records := make([]models.AvailabilityRecord, 0, len(s.stored[id]))
	for i, iv := range s.stored[id] {
		records = append(records, models.AvailabilityRecord{
			ID: int64(i + 1), EventTypeID: id, DayOfWeek: iv.DayOfWeek, StartTime: iv.StartTime, EndTime: iv.EndTime,
		})
	}
	return records, nil
}

func (s *stubAvailabilityRepo) Replace(_ context.Context, id int64, intervals []models.Interval) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return 0, s.replaceErr
	}
	s.stored[id] = append([]models.Interval(nil), intervals...)
	s.replaced = append(s.replaced, s.stored[id])
	return len(intervals), nil
}

type stubBookingRepo struct {
	mu       sync.Mutex
	bookings []models.Booking
	err      error
	calls    []models.BookingFilter
}

func (s *stubBookingRepo) ListOverlapping(_ context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, filter)
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Booking
	for _, b := range s.bookings {
		if b.StartAt.Before(filter.To) && b.EndAt.After(filter.From) {
			out = append(out, b)
		}
	}
	return out, nil
}

type stubCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{items: make(map[string][]byte)}
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.items[key] = raw
	s.sets++
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string][]byte)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func intPtr(v int) *int { return &v }

func int64Ptr(v int64) *int64 { return &v }
