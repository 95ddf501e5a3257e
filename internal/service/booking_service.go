package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/availability-api/internal/dto"
	"github.com/noah-isme/availability-api/internal/models"
	appErrors "github.com/noah-isme/availability-api/pkg/errors"
)

type bookingRepository interface {
	ListOverlapping(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
}

// BookingService lists concrete bookings for overlay projection. It satisfies availability.BookingStore.
type BookingService struct {
	repo      bookingRepository
	cache     *CacheService
	cacheTTL  time.Duration
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

func NewBookingService(repo bookingRepository, cache *CacheService, cacheTTL time.Duration, loc *time.Location, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{repo: repo, cache: cache, cacheTTL: cacheTTL, location: loc, validator: validate, logger: logger, metrics: metrics}
}

// ListBookings returns bookings overlapping [from, to) that still occupy their range.
func (s *BookingService) ListBookings(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	return s.list(ctx, models.BookingFilter{From: from, To: to})
}

// List serves the HTTP query form of ListBookings.
func (s *BookingService) List(ctx context.Context, q dto.ListBookingsQuery) ([]models.Booking, error) {
	if err := s.validator.Struct(q); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking query")
	}
	from, err := s.parseBound(q.From)
	if err != nil {
		return nil, err
	}
	to, err := s.parseBound(q.To)
	if err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be after from")
	}
	return s.list(ctx, models.BookingFilter{From: from, To: to, EventTypeID: q.EventTypeID})
}

func (s *BookingService) list(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	key := bookingCacheKey(filter)
	var cached []models.Booking
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	start := time.Now()
	bookings, err := s.repo.ListOverlapping(ctx, filter)
	s.metrics.ObserveDBQuery("list_bookings", time.Since(start))
	if err != nil {
		s.logger.Warn("list bookings failed",
			zap.Time("from", filter.From),
			zap.Time("to", filter.To),
			zap.Error(err),
		)
		return nil, appErrors.WrapAs(appErrors.ErrLoadFailed, err, "failed to load bookings")
	}
	s.cache.Set(ctx, key, bookings, s.cacheTTL)
	return bookings, nil
}

func (s *BookingService) parseBound(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, s.location)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid date %q", raw))
	}
	return t, nil
}

func bookingCacheKey(filter models.BookingFilter) string {
	key := fmt.Sprintf("bookings:%d:%d", filter.From.Unix(), filter.To.Unix())
	if filter.EventTypeID != nil {
		key += fmt.Sprintf(":%d", *filter.EventTypeID)
	}
	return key
}
