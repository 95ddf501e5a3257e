package availability

import (
	"fmt"

	"github.com/noah-isme/availability-api/internal/models"
)

// Grid is the editable weekly occupancy matrix indexed by [day][row].
type Grid [DaysPerWeek][]bool

// NewGrid returns an all-false grid sized for the window.
func (w Window) NewGrid() Grid {
	var g Grid
	rows := w.RowCount()
	for d := range g {
		g[d] = make([]bool, rows)
	}
	return g
}

// Clone returns a deep copy of the grid.
func (g Grid) Clone() Grid {
	var out Grid
	for d := range g {
		out[d] = append([]bool(nil), g[d]...)
	}
	return out
}

// Equal reports whether both grids have identical cells.
func (g Grid) Equal(other Grid) bool {
	for d := range g {
		if len(g[d]) != len(other[d]) {
			return false
		}
		for r := range g[d] {
			if g[d][r] != other[d][r] {
				return false
			}
		}
	}
	return true
}

// IsEmpty reports whether no cell is set.
func (g Grid) IsEmpty() bool {
	for d := range g {
		for _, on := range g[d] {
			if on {
				return false
			}
		}
	}
	return true
}

// InvalidIntervalError reports a malformed persisted interval.
type InvalidIntervalError struct {
	Interval models.Interval
	Reason   string
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval %s: %s", e.Interval, e.Reason)
}

// Decode expands intervals into a grid. Overlapping intervals are tolerated;
// malformed or misaligned ones fail the whole decode.
func (w Window) Decode(intervals []models.Interval) (Grid, error) {
	grid := w.NewGrid()
	for _, iv := range intervals {
		startRow, endRow, err := w.rowsOf(iv)
		if err != nil {
			return Grid{}, err
		}
		for r := startRow; r < endRow; r++ {
			grid[iv.DayOfWeek][r] = true
		}
	}
	return grid, nil
}

func (w Window) rowsOf(iv models.Interval) (int, int, error) {
	if iv.DayOfWeek < 0 || iv.DayOfWeek >= DaysPerWeek {
		return 0, 0, &InvalidIntervalError{Interval: iv, Reason: "day of week must be within 0..6"}
	}
	start, err := parseClock(iv.StartTime)
	if err != nil {
		return 0, 0, &InvalidIntervalError{Interval: iv, Reason: err.Error()}
	}
	end, err := parseClock(iv.EndTime)
	if err != nil {
		return 0, 0, &InvalidIntervalError{Interval: iv, Reason: err.Error()}
	}
	if start >= end {
		return 0, 0, &InvalidIntervalError{Interval: iv, Reason: "start must be before end"}
	}
	if start < w.startMinutes() || end > w.endMinutes() {
		return 0, 0, &InvalidIntervalError{
			Interval: iv,
			Reason:   fmt.Sprintf("outside window %s-%s", formatClock(w.startMinutes()), formatClock(w.endMinutes())),
		}
	}
	if (start-w.startMinutes())%w.StepMinutes != 0 || (end-w.startMinutes())%w.StepMinutes != 0 {
		return 0, 0, &InvalidIntervalError{
			Interval: iv,
			Reason:   fmt.Sprintf("not aligned to %d-minute rows", w.StepMinutes),
		}
	}
	return w.clampRow(w.rowFloor(start)), w.boundaryRow(end), nil
}

// Encode collapses every maximal run of set cells into one interval, ordered by day then start.
func (w Window) Encode(grid Grid) []models.Interval {
	intervals := make([]models.Interval, 0)
	for d := range grid {
		rows := grid[d]
		r := 0
		for r < len(rows) {
			if !rows[r] {
				r++
				continue
			}
			start := r
			for r < len(rows) && rows[r] {
				r++
			}
			intervals = append(intervals, models.Interval{
				DayOfWeek: d,
				StartTime: w.RowToTime(start),
				EndTime:   w.RowToTime(r),
			})
		}
	}
	return intervals
}

// Canonicalize validates intervals and returns their minimal merged form.
func (w Window) Canonicalize(intervals []models.Interval) ([]models.Interval, error) {
	grid, err := w.Decode(intervals)
	if err != nil {
		return nil, err
	}
	return w.Encode(grid), nil
}
