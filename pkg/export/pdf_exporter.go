package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth  = 277.0
	labelWidth = 25.0
	rowHeight  = 6.0
)

// PDFExporter prints schedules on a landscape A4 page with shaded cells.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

func (e *PDFExporter) Render(s Schedule) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	if s.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, s.Title, "", 1, "C", false, 0, "")
		pdf.Ln(2)
	}

	colWidth := (pageWidth - labelWidth) / float64(len(s.Columns))
	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(255, 255, 255)
		pdf.CellFormat(labelWidth, rowHeight+1, "Time", "1", 0, "C", false, 0, "")
		for _, col := range s.Columns {
			pdf.CellFormat(colWidth, rowHeight+1, col, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	pdf.SetFont("Arial", "", 8)
	for _, row := range s.Rows {
		pdf.CellFormat(labelWidth, rowHeight, row.Label, "1", 0, "R", false, 0, "")
		for _, cell := range row.Cells {
			fill := true
			switch cell {
			case CellAvailable:
				pdf.SetFillColor(187, 222, 251)
			case CellBooked:
				pdf.SetFillColor(255, 205, 210)
			default:
				fill = false
			}
			pdf.CellFormat(colWidth, rowHeight, cell.String(), "1", 0, "C", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
