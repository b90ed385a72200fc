package model

import "time"

type ExportFormat string

const (
	ExportFormatXLSX ExportFormat = "XLSX"
	ExportFormatPDF  ExportFormat = "PDF"
)

// TripReport is the document rendered by the trip export.
type TripReport struct {
	Scope       string
	GeneratedAt time.Time
	Filters     TripFilters
	Trips       []DecoratedTrip
}

func (r TripReport) TotalAlerts() (total, responded int) {
	for _, trip := range r.Trips {
		total += trip.TotalAlerts
		responded += trip.RespondedAlerts
	}
	return total, responded
}

type WeeklyCount struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Count int64     `json:"count"`
}
