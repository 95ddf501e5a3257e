package availability

import (
	"fmt"
	"strings"
	"time"
)

// Direction selects week navigation.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// ParseDirection accepts "next"/"prev"/"previous".
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "next":
		return Next, nil
	case "prev", "previous":
		return Previous, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", raw)
	}
}

// Week is a Sunday-aligned calendar week starting at local midnight.
// Values are immutable; navigation returns a new Week.
type Week struct {
	start time.Time
}

// NormalizeWeek returns the week containing t, evaluated in loc.
func NormalizeWeek(t time.Time, loc *time.Location) Week {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	y, m, d := local.Date()
	return Week{start: time.Date(y, m, d-int(local.Weekday()), 0, 0, 0, 0, loc)}
}

// Start returns the Sunday midnight that opens the week.
func (w Week) Start() time.Time {
	return w.start
}

// Location returns the reference frame of the week.
func (w Week) Location() *time.Location {
	if w.start.IsZero() {
		return time.UTC
	}
	return w.start.Location()
}

// Shift moves the week by whole weeks in the given direction.
func (w Week) Shift(dir Direction) Week {
	return Week{start: w.Date(int(dir) * DaysPerWeek)}
}

// Next returns the following week.
func (w Week) Next() Week {
	return w.Shift(Next)
}

// Prev returns the preceding week.
func (w Week) Prev() Week {
	return w.Shift(Previous)
}

// Date returns local midnight of the day offset from the week start.
func (w Week) Date(day int) time.Time {
	y, m, d := w.start.Date()
	return time.Date(y, m, d+day, 0, 0, 0, 0, w.Location())
}

// Dates returns the seven calendar dates of the week, Sunday first.
func (w Week) Dates() []time.Time {
	dates := make([]time.Time, DaysPerWeek)
	for i := range dates {
		dates[i] = w.Date(i)
	}
	return dates
}

// Range returns the half-open instant range [from, to) covered by the week.
func (w Week) Range() (time.Time, time.Time) {
	return w.start, w.Date(DaysPerWeek)
}

// Equal reports whether both values denote the same week.
func (w Week) Equal(other Week) bool {
	return w.start.Equal(other.start)
}

// Key formats the week start as YYYY-MM-DD.
func (w Week) Key() string {
	return w.start.Format(dateKeyLayout)
}

// ParseWeek normalizes a YYYY-MM-DD date into its week.
func ParseWeek(raw string, loc *time.Location) (Week, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(dateKeyLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return Week{}, fmt.Errorf("invalid week date %q: %w", raw, err)
	}
	return NormalizeWeek(t, loc), nil
}
