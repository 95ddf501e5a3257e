package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/availability-api/internal/models"
)

// BookingRepository reads concrete bookings.
type BookingRepository struct {
	db *sqlx.DB
}

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// ListOverlapping returns bookings intersecting [filter.From, filter.To) that still hold their slot.
func (r *BookingRepository) ListOverlapping(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	query := `SELECT id, event_type_id, title, start_at, end_at, status FROM bookings
WHERE start_at < $1 AND end_at > $2 AND status NOT IN ($3, $4)`
	args := []interface{}{filter.To, filter.From, models.BookingStatusCancelled, models.BookingStatusRefunded}
	if filter.EventTypeID != nil {
		query += fmt.Sprintf(" AND event_type_id = $%d", len(args)+1)
		args = append(args, *filter.EventTypeID)
	}
	query += " ORDER BY start_at ASC"

	bookings := make([]models.Booking, 0)
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
