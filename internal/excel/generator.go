package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/fleet-trips/internal/model"
)

const (
	summarySheet = "Summary"
	tripsSheet   = "Trips"
	alertsSheet  = "Alerts"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.TripReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, report); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(tripsSheet); err != nil {
		return nil, err
	}
	if err := g.writeTrips(file, report); err != nil {
		return nil, err
	}

	if _, err := file.NewSheet(alertsSheet); err != nil {
		return nil, err
	}
	if err := g.writeAlerts(file, report); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, report model.TripReport) error {
	totalAlerts, respondedAlerts := report.TotalAlerts()

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(summarySheet, cell, value)
	}

	set("A1", "Scope")
	set("B1", report.Scope)
	set("A2", "Generated at")
	set("B2", formatDateTime(report.GeneratedAt))
	set("A3", "Date from")
	set("B3", formatOptionalDate(report.Filters.DateFrom))
	set("A4", "Date to")
	set("B4", formatOptionalDate(report.Filters.DateTo))
	set("A5", "Route filter")
	set("B5", report.Filters.Destination)
	set("A6", "Status filter")
	set("B6", formatStatus(report.Filters.Status))
	set("A7", "Trips")
	set("B7", len(report.Trips))
	set("A8", "Alerts")
	set("B8", totalAlerts)
	set("A9", "Responded alerts")
	set("B9", respondedAlerts)

	conductRow := 11
	set(fmt.Sprintf("A%d", conductRow), "Conduct")
	set(fmt.Sprintf("B%d", conductRow), "Trips")
	counts := countByConduct(report.Trips)
	for i, conduct := range []model.Conduct{model.ConductNormal, model.ConductAggressive, model.ConductUnknown} {
		row := conductRow + 1 + i
		set(fmt.Sprintf("A%d", row), string(conduct))
		set(fmt.Sprintf("B%d", row), counts[conduct])
	}

	_ = file.SetColWidth(summarySheet, "A", "A", 24)
	_ = file.SetColWidth(summarySheet, "B", "B", 45)
	return nil
}

func (g *Generator) writeTrips(file *excelize.File, report model.TripReport) error {
	headers := []string{
		"Trip",
		"Route",
		"Driver",
		"Start",
		"End",
		"Status",
		"Conduct",
		"Alerts",
		"Responded",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		_ = file.SetCellValue(tripsSheet, cell, header)
	}

	for i, trip := range report.Trips {
		row := i + 2
		values := []interface{}{
			trip.ID.String(),
			trip.Route(),
			trip.UserID.String(),
			formatDateTime(trip.StartDate),
			formatOptionalDateTime(trip.EndDate),
			string(trip.Status),
			string(trip.Conduct),
			trip.TotalAlerts,
			trip.RespondedAlerts,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			_ = file.SetCellValue(tripsSheet, cell, value)
		}
	}

	_ = file.SetColWidth(tripsSheet, "A", "A", 38)
	_ = file.SetColWidth(tripsSheet, "B", "B", 32)
	_ = file.SetColWidth(tripsSheet, "C", "C", 38)
	_ = file.SetColWidth(tripsSheet, "D", "E", 20)
	_ = file.SetColWidth(tripsSheet, "F", "G", 14)
	_ = file.SetColWidth(tripsSheet, "H", "I", 10)
	return nil
}

func (g *Generator) writeAlerts(file *excelize.File, report model.TripReport) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(alertsSheet, cell, value)
	}

	set("A1", "Trip")
	set("B1", "Route")
	set("C1", "Time")
	set("D1", "Type")
	set("E1", "Responded")

	row := 2
	for _, trip := range report.Trips {
		for _, detail := range trip.Details {
			set(fmt.Sprintf("A%d", row), trip.ID.String())
			set(fmt.Sprintf("B%d", row), trip.Route())
			set(fmt.Sprintf("C%d", row), formatDateTime(detail.OccurredAt))
			set(fmt.Sprintf("D%d", row), detail.Type)
			set(fmt.Sprintf("E%d", row), formatBool(detail.Responded))
			row++
		}
	}

	_ = file.SetColWidth(alertsSheet, "A", "A", 38)
	_ = file.SetColWidth(alertsSheet, "B", "B", 32)
	_ = file.SetColWidth(alertsSheet, "C", "C", 20)
	_ = file.SetColWidth(alertsSheet, "D", "D", 24)
	return nil
}

func countByConduct(trips []model.DecoratedTrip) map[model.Conduct]int {
	counts := make(map[model.Conduct]int, 3)
	for _, trip := range trips {
		counts[trip.Conduct]++
	}
	return counts
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatOptionalDateTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDateTime(*t)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatStatus(status *model.TripStatus) string {
	if status == nil {
		return ""
	}
	return string(*status)
}

func formatBool(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
