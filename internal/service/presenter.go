package service

import (
	"github.com/noah-isme/availability-api/internal/availability"
	"github.com/noah-isme/availability-api/internal/dto"
)

func rowViews(w availability.Window) []dto.RowView {
	rows := make([]dto.RowView, w.RowCount())
	for i := range rows {
		clock := w.RowToTime(i)
		rows[i] = dto.RowView{Index: i, Time: clock, Label: availability.FormatLabel(clock)}
	}
	return rows
}

func weekView(week availability.Week) dto.WeekView {
	dates := week.Dates()
	view := dto.WeekView{Start: week.Key(), Dates: make([]string, len(dates))}
	for i, d := range dates {
		view.Dates[i] = d.Format("2006-01-02")
	}
	return view
}

func gridRows(g availability.Grid) [][]bool {
	out := make([][]bool, len(g))
	for d := range g {
		out[d] = append([]bool(nil), g[d]...)
	}
	return out
}
