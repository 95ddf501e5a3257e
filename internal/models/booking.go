package models

import "time"

// BookingStatus represents the lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusPendingConfirmation BookingStatus = "pending_confirmation"
	BookingStatusConfirmed           BookingStatus = "confirmed"
	BookingStatusCancelled           BookingStatus = "cancelled"
	BookingStatusRescheduled         BookingStatus = "rescheduled"
	BookingStatusNoShow              BookingStatus = "no_show"
	BookingStatusCompleted           BookingStatus = "completed"
	BookingStatusRefunded            BookingStatus = "refunded"
)

// Occupies reports whether a booking in this status still holds its time range.
func (s BookingStatus) Occupies() bool {
	return s != BookingStatusCancelled && s != BookingStatusRefunded
}

// Booking is a concrete, already-committed meeting with absolute start and end instants.
type Booking struct {
	ID          int64         `db:"id" json:"id"`
	EventTypeID int64         `db:"event_type_id" json:"event_type_id"`
	Title       *string       `db:"title" json:"title,omitempty"`
	StartAt     time.Time     `db:"start_at" json:"start_at"`
	EndAt       time.Time     `db:"end_at" json:"end_at"`
	Status      BookingStatus `db:"status" json:"status"`
}

// BookingFilter scopes booking lookups to the half-open range [From, To).
type BookingFilter struct {
	From        time.Time
	To          time.Time
	EventTypeID *int64
}
