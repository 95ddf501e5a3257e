package models

import "fmt"

// Interval is one recurring weekly availability range for an event type.
// DayOfWeek is Sunday-first (0..6); times are HH:MM wall-clock strings.
type Interval struct {
	DayOfWeek int    `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// String renders the interval for error messages and logs.
func (i Interval) String() string {
	return fmt.Sprintf("day %d %s-%s", i.DayOfWeek, i.StartTime, i.EndTime)
}

// AvailabilityRecord is a stored availability row.
type AvailabilityRecord struct {
	ID          int64  `db:"id" json:"id"`
	EventTypeID int64  `db:"event_type_id" json:"event_type_id"`
	DayOfWeek   int    `db:"day_of_week" json:"day_of_week"`
	StartTime   string `db:"start_time" json:"start_time"`
	EndTime     string `db:"end_time" json:"end_time"`
}

// Interval strips storage metadata from the record.
func (r AvailabilityRecord) Interval() Interval {
	return Interval{DayOfWeek: r.DayOfWeek, StartTime: r.StartTime, EndTime: r.EndTime}
}
