package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders schedules as CSV with a leading "Time" column.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

func (e *CSVExporter) Render(s Schedule) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(append([]string{"Time"}, s.Columns...)); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	record := make([]string, len(s.Columns)+1)
	for _, row := range s.Rows {
		record[0] = row.Label
		for i, cell := range row.Cells {
			record[i+1] = cell.String()
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
