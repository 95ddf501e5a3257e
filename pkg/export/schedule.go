package export

import "fmt"

// CellState is the printable state of one schedule cell.
type CellState int

const (
	CellEmpty CellState = iota
	CellAvailable
	CellBooked
)

func (s CellState) String() string {
	switch s {
	case CellAvailable:
		return "available"
	case CellBooked:
		return "booked"
	default:
		return ""
	}
}

// Schedule is a rendered week: one column per day and one row per time slot.
type Schedule struct {
	Title   string
	Columns []string
	Rows    []ScheduleRow
}

type ScheduleRow struct {
	Label string
	Cells []CellState
}

func (s Schedule) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("schedule requires at least one column")
	}
	for i, row := range s.Rows {
		if len(row.Cells) != len(s.Columns) {
			return fmt.Errorf("schedule row %d has %d cells, want %d", i, len(row.Cells), len(s.Columns))
		}
	}
	return nil
}
