package dto

import "github.com/noah-isme/availability-api/internal/models"

// AvailabilitySlot is one interval of a full-replace payload.
type AvailabilitySlot struct {
	DayOfWeek *int   `json:"day_of_week" validate:"required,min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04|eq=24:00"`
}

// ReplaceAvailabilityRequest replaces every interval of an event type.
type ReplaceAvailabilityRequest struct {
	Slots []AvailabilitySlot `json:"slots" validate:"omitempty,dive"`
}

// Intervals converts the validated payload into domain intervals.
func (r ReplaceAvailabilityRequest) Intervals() []models.Interval {
	out := make([]models.Interval, 0, len(r.Slots))
	for _, s := range r.Slots {
		var day int
		if s.DayOfWeek != nil {
			day = *s.DayOfWeek
		}
		out = append(out, models.Interval{DayOfWeek: day, StartTime: s.StartTime, EndTime: s.EndTime})
	}
	return out
}

// ReplaceAvailabilityResponse reports how many canonical intervals were stored.
type ReplaceAvailabilityResponse struct {
	Updated   int               `json:"updated"`
	Intervals []models.Interval `json:"intervals"`
}

// RowView labels one grid row.
type RowView struct {
	Index int    `json:"index"`
	Time  string `json:"time"`
	Label string `json:"label"`
}

// WeekView describes the displayed calendar week.
type WeekView struct {
	Start string   `json:"start"`
	Dates []string `json:"dates"`
}

// AvailabilityGridResponse is the composed read-only view of one event type and week.
type AvailabilityGridResponse struct {
	EventTypeID int64     `json:"event_type_id"`
	Week        WeekView  `json:"week"`
	Rows        []RowView `json:"rows"`
	Grid        [][]bool  `json:"grid"`
	Occupied    []string  `json:"occupied"`
	Empty       bool      `json:"empty"`
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ListBookingsQuery bounds a booking lookup. Dates are YYYY-MM-DD in the grid timezone
// or RFC3339 instants.
type ListBookingsQuery struct {
	From        string `form:"from" validate:"required"`
	To          string `form:"to" validate:"required"`
	EventTypeID *int64 `form:"event_type_id" validate:"omitempty,min=1"`
}
