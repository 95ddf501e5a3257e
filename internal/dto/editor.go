package dto

import appErrors "github.com/noah-isme/availability-api/pkg/errors"

// CreateEditorSessionRequest opens an editor, optionally selecting an event type and week.
type CreateEditorSessionRequest struct {
	EventTypeID *int64 `json:"event_type_id" validate:"omitempty,min=1"`
	Week        string `json:"week" validate:"omitempty,datetime=2006-01-02"`
}

type SelectEventTypeRequest struct {
	EventTypeID int64 `json:"event_type_id" validate:"required,min=1"`
}

// ToggleCellRequest addresses a cell by row index or by wall-clock time.
type ToggleCellRequest struct {
	Day  *int   `json:"day" validate:"required,min=0,max=6"`
	Row  *int   `json:"row" validate:"required_without=Time,omitempty,min=0"`
	Time string `json:"time" validate:"required_without=Row,omitempty,datetime=15:04"`
}

type NavigateWeekRequest struct {
	Direction string `json:"direction" validate:"required,oneof=next prev previous"`
}

// EditorSessionResponse is the presentation snapshot of an editor session.
type EditorSessionResponse struct {
	ID            string           `json:"id"`
	State         string           `json:"state"`
	EventTypeID   *int64           `json:"event_type_id,omitempty"`
	Loaded        bool             `json:"loaded"`
	Empty         bool             `json:"empty"`
	Saving        bool             `json:"saving"`
	Week          WeekView         `json:"week"`
	Rows          []RowView        `json:"rows"`
	Grid          [][]bool         `json:"grid"`
	Occupied      []string         `json:"occupied"`
	Error         *appErrors.Error `json:"error,omitempty"`
	BookingsError *appErrors.Error `json:"bookings_error,omitempty"`
	ExpiresAt     string           `json:"expires_at"`
}

// ToggleCellResponse reports whether the toggle was applied and the cell's new value.
type ToggleCellResponse struct {
	Applied bool `json:"applied"`
	Day     int  `json:"day"`
	Row     int  `json:"row"`
	Value   bool `json:"value"`
}

type SaveAvailabilityResponse struct {
	Updated int                   `json:"updated"`
	Session EditorSessionResponse `json:"session"`
}
