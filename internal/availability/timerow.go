package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DaysPerWeek is the number of recurring weekdays, Sunday first.
	DaysPerWeek = 7

	DefaultStartHour   = 7
	DefaultEndHour     = 20
	DefaultStepMinutes = 30

	minutesPerHour = 60
)

// Window describes the editable daily window [StartHour, EndHour) split into rows of StepMinutes.
type Window struct {
	StartHour   int
	EndHour     int
	StepMinutes int
}

// DefaultWindow returns the 07:00-20:00 window with 30 minute rows.
func DefaultWindow() Window {
	return Window{StartHour: DefaultStartHour, EndHour: DefaultEndHour, StepMinutes: DefaultStepMinutes}
}

// NewWindow validates and builds a window.
func NewWindow(startHour, endHour, stepMinutes int) (Window, error) {
	w := Window{StartHour: startHour, EndHour: endHour, StepMinutes: stepMinutes}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate checks that the window is well formed.
func (w Window) Validate() error {
	if w.StepMinutes <= 0 {
		return fmt.Errorf("step minutes must be positive, got %d", w.StepMinutes)
	}
	if w.StartHour < 0 || w.EndHour > 24 {
		return fmt.Errorf("window hours must lie within 0..24, got %d..%d", w.StartHour, w.EndHour)
	}
	if w.StartHour >= w.EndHour {
		return fmt.Errorf("window start hour %d must be before end hour %d", w.StartHour, w.EndHour)
	}
	if ((w.EndHour-w.StartHour)*minutesPerHour)%w.StepMinutes != 0 {
		return fmt.Errorf("window of %d hours is not divisible into %d minute rows", w.EndHour-w.StartHour, w.StepMinutes)
	}
	return nil
}

// RowCount is the number of rows per day.
func (w Window) RowCount() int {
	return (w.EndHour - w.StartHour) * minutesPerHour / w.StepMinutes
}

// Step returns the row width as a duration.
func (w Window) Step() time.Duration {
	return time.Duration(w.StepMinutes) * time.Minute
}

func (w Window) startMinutes() int {
	return w.StartHour * minutesPerHour
}

func (w Window) endMinutes() int {
	return w.EndHour * minutesPerHour
}

// RowToTime formats the lower boundary of row as HH:MM. The row is not clamped.
func (w Window) RowToTime(row int) string {
	return formatClock(w.startMinutes() + row*w.StepMinutes)
}

// FromWallClock maps an HH:MM string to its row, clamped into [0, RowCount-1].
// Unparseable input maps to row 0.
func (w Window) FromWallClock(clock string) int {
	minutes, err := parseClock(clock)
	if err != nil {
		return 0
	}
	return w.clampRow(w.rowFloor(minutes))
}

// RowOf maps the wall-clock part of t to its row, clamped like FromWallClock.
func (w Window) RowOf(t time.Time) int {
	return w.clampRow(w.rowFloor(t.Hour()*minutesPerHour + t.Minute()))
}

// boundaryRow maps an interval end to the exclusive row boundary in [0, RowCount].
func (w Window) boundaryRow(minutes int) int {
	row := w.rowFloor(minutes)
	if row < 0 {
		return 0
	}
	if row > w.RowCount() {
		return w.RowCount()
	}
	return row
}

func (w Window) rowFloor(minutes int) int {
	offset := minutes - w.startMinutes()
	row := offset / w.StepMinutes
	if offset%w.StepMinutes != 0 && offset < 0 {
		row--
	}
	return row
}

func (w Window) clampRow(row int) int {
	if row < 0 {
		return 0
	}
	if last := w.RowCount() - 1; row > last {
		return last
	}
	return row
}

// FormatLabel renders HH:MM as a 12-hour "h:mm AM/PM" label.
func FormatLabel(clock string) string {
	hourPart, minutePart, found := strings.Cut(clock, ":")
	if !found || minutePart == "" {
		minutePart = "00"
	}
	if len(minutePart) > 2 {
		minutePart = minutePart[:2]
	}
	h, err := strconv.Atoi(hourPart)
	if err != nil {
		return clock
	}
	switch {
	case h == 0:
		return fmt.Sprintf("12:%s AM", minutePart)
	case h < 12:
		return fmt.Sprintf("%d:%s AM", h, minutePart)
	case h == 12:
		return fmt.Sprintf("12:%s PM", minutePart)
	default:
		return fmt.Sprintf("%d:%s PM", h-12, minutePart)
	}
}

// parseClock parses HH:MM or HH:MM:SS into minutes since midnight. 24:00 is accepted as end of day.
func parseClock(clock string) (int, error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock %q", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q out of range", clock)
	}
	return h*minutesPerHour + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/minutesPerHour, minutes%minutesPerHour)
}
