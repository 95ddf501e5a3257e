package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/availability-api/internal/models"
)

const dateKeyLayout = "2006-01-02"

// OccupiedCellSet holds "{date}-{row}" keys for cells taken by concrete bookings.
type OccupiedCellSet struct {
	keys map[string]struct{}
}

// CellKey formats the overlay key of a calendar date and row.
func CellKey(date time.Time, row int) string {
	return fmt.Sprintf("%s-%d", date.Format(dateKeyLayout), row)
}

// BuildOccupied projects bookings onto the rows of the given week. Each booking is
// walked in step increments over [StartAt, EndAt); every step resolves its own
// local date, so bookings crossing midnight land on both days.
func (w Window) BuildOccupied(bookings []models.Booking, week Week) OccupiedCellSet {
	set := OccupiedCellSet{keys: make(map[string]struct{})}
	from, to := week.Range()
	step := w.Step()
	for _, b := range bookings {
		if b.StartAt.IsZero() || b.EndAt.IsZero() || !b.EndAt.After(b.StartAt) {
			continue
		}
		if b.Status != "" && !b.Status.Occupies() {
			continue
		}
		for t := b.StartAt.In(week.Location()); t.Before(b.EndAt); t = t.Add(step) {
			if t.Before(from) || !t.Before(to) {
				continue
			}
			set.keys[CellKey(t, w.RowOf(t))] = struct{}{}
		}
	}
	return set
}

// Has reports whether the raw key is occupied.
func (s OccupiedCellSet) Has(key string) bool {
	_, ok := s.keys[key]
	return ok
}

// Contains reports whether row on the given calendar date is occupied.
func (s OccupiedCellSet) Contains(date time.Time, row int) bool {
	return s.Has(CellKey(date, row))
}

// Len returns the number of occupied cells.
func (s OccupiedCellSet) Len() int {
	return len(s.keys)
}

// Keys returns the occupied keys in sorted order.
func (s OccupiedCellSet) Keys() []string {
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
