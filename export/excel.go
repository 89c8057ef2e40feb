package export

import (
	"fmt"
	"time"

	"report-logger/metrics"
	"report-logger/models"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding exported reports.
const SheetName = "Reports"

const (
	dateTimeLayout = "02.01.2006 15:04"
	fileDateLayout = "02012006"
)

var header = []interface{}{
	"ID", "Date/Time", "Category", "Issue", "Solution", "Status", "Priority",
	"Escalated To", "Notes", "Picture 1", "Picture 2", "Picture 3",
}

var columnWidths = []float64{8, 18, 22, 32, 32, 14, 12, 20, 48, 11, 11, 11}

// Filename returns the download name for an export made at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("reports_%s.xlsx", now.Format(fileDateLayout))
}

// ReportsWorkbook writes one header row and one row per report, in the
// given order, and returns the serialized .xlsx.
func ReportsWorkbook(reports []models.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	for i := range reports {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := reportRow(&reports[i])
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write report %d: %w", reports[i].ID, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	metrics.ReportsExportedTotal.Add(float64(len(reports)))
	return buf.Bytes(), nil
}

func reportRow(r *models.Report) []interface{} {
	return []interface{}{
		r.ID,
		r.Datetime.Format(dateTimeLayout),
		r.CategoryName,
		r.IssueDescription,
		r.SolutionDescription,
		r.Status,
		r.Priority,
		deref(r.EscalateName),
		deref(r.Notes),
		yesNo(r.PicName1),
		yesNo(r.PicName2),
		yesNo(r.PicName3),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func yesNo(path *string) string {
	if path != nil && *path != "" {
		return "Yes"
	}
	return "No"
}
