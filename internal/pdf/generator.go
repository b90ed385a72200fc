package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nurpe/fleet-trips/internal/model"
)

// Generator renders trip reports with the core Helvetica font; text is
// translated to cp1252 so accented city names survive.
type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

func (g *Generator) Generate(report model.TripReport) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Trip report", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, tr(report.Scope), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated %s", formatDateTime(report.GeneratedAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	totalAlerts, respondedAlerts := report.TotalAlerts()
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	lines := []string{
		fmt.Sprintf("Period: %s - %s", formatOptionalDate(report.Filters.DateFrom), formatOptionalDate(report.Filters.DateTo)),
		fmt.Sprintf("Route filter: %s", safeValue(report.Filters.Destination)),
		fmt.Sprintf("Trips: %d", len(report.Trips)),
		fmt.Sprintf("Alerts: %d (responded %d)", totalAlerts, respondedAlerts),
	}
	for _, line := range lines {
		pdf.MultiCell(0, 5, tr(line), "", "L", false)
	}
	pdf.Ln(4)

	headers := []string{"Route", "Start", "End", "Status", "Conduct", "Alerts", "Responded"}
	colWidths := []float64{80, 36, 36, 32, 32, 25, 26}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)

	for _, trip := range report.Trips {
		row := []string{
			tr(trip.Route()),
			formatDateTime(trip.StartDate),
			formatOptionalDateTime(trip.EndDate),
			string(trip.Status),
			string(trip.Conduct),
			fmt.Sprintf("%d", trip.TotalAlerts),
			fmt.Sprintf("%d", trip.RespondedAlerts),
		}
		drawTableRow(pdf, g.fontName, row, colWidths, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 4 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02.01.2006 15:04")
}

func formatOptionalDateTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDateTime(*t)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02.01.2006")
}
