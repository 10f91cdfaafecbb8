// Package export renders route sheets: one xlsx per farrier and day with
// the visits in driving order.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aliceryden/portalen/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const routeSheetName = "Route"

var routeHeaders = []string{"Time", "Service", "Area", "Address", "Duration (min)", "Status", "Total price", "Owner notes"}

type RouteSheetExporter struct {
	exportsPath string
	logger      *zerolog.Logger
}

func NewRouteSheetExporter(exportsPath string, logger *zerolog.Logger) *RouteSheetExporter {
	return &RouteSheetExporter{exportsPath: exportsPath, logger: logger}
}

// BuildRouteSheet renders the day's bookings into a workbook. Bookings are
// expected in scheduled order.
func (e *RouteSheetExporter) BuildRouteSheet(farrier *models.Farrier, date string, bookings []*models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(routeSheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	title := fmt.Sprintf("%s: route for %s", farrierLabel(farrier), date)
	_ = f.SetCellValue(routeSheetName, "A1", title)
	lastCol, _ := excelize.ColumnNumberToName(len(routeHeaders))
	_ = f.MergeCell(routeSheetName, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(routeSheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range routeHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(routeSheetName, cell, header)
		_ = f.SetCellStyle(routeSheetName, cell, cell, headerStyle)
	}

	for i, booking := range bookings {
		row := i + 3
		values := []any{
			booking.Start().Format("15:04"),
			booking.ServiceType,
			booking.LocationCity,
			booking.LocationAddress,
			int(booking.Duration().Minutes()),
			string(booking.Status),
			booking.TotalPrice,
			booking.NotesFromOwner,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(routeSheetName, cell, v)
		}

		if styleID, err := statusStyle(f, booking.Status); err == nil {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(routeHeaders), row)
			_ = f.SetCellStyle(routeSheetName, first, last, styleID)
		}
	}

	_ = f.SetColWidth(routeSheetName, "A", "A", 8)
	_ = f.SetColWidth(routeSheetName, "B", "D", 22)
	_ = f.SetColWidth(routeSheetName, "E", "G", 14)
	_ = f.SetColWidth(routeSheetName, "H", "H", 32)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// SaveRouteSheet writes the workbook under the exports directory and
// returns the file path.
func (e *RouteSheetExporter) SaveRouteSheet(farrier *models.Farrier, date string, bookings []*models.Booking) (string, error) {
	if err := os.MkdirAll(e.exportsPath, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f, err := e.BuildRouteSheet(farrier, date, bookings)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("route_%d_%s.xlsx", farrier.ID, date)
	filePath := filepath.Join(e.exportsPath, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("route sheet created")
	return filePath, nil
}

func farrierLabel(farrier *models.Farrier) string {
	if farrier.BusinessName != "" {
		return farrier.BusinessName
	}
	return farrier.UserName
}

func statusStyle(f *excelize.File, status models.BookingStatus) (int, error) {
	var color string
	switch status {
	case models.StatusConfirmed, models.StatusCompleted:
		color = "#C6EFCE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusCancelled:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "top", WrapText: true},
	})
}
