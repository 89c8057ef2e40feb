package export

import (
	"bytes"
	"testing"
	"time"

	"report-logger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func TestReportsWorkbook(t *testing.T) {
	reports := []models.Report{
		{
			ID:                  12,
			Datetime:            time.Date(2024, time.May, 3, 9, 5, 0, 0, time.UTC),
			Notes:               strPtr("pump leaking"),
			Status:              models.StatusEscalate,
			Priority:            models.PriorityHigh,
			EscalateName:        strPtr("Ana"),
			PicName1:            strPtr("/uploads/12_pic_name1_03052024.jpg"),
			CategoryName:        "Plumbing",
			IssueDescription:    "Leak",
			SolutionDescription: "Replace seal",
		},
		{
			ID:                  11,
			Datetime:            time.Date(2024, time.May, 2, 18, 30, 0, 0, time.UTC),
			Status:              models.StatusDone,
			Priority:            models.PriorityLow,
			PicName3:            strPtr("/uploads/11_pic_name3_02052024.jpg"),
			CategoryName:        "Electrical",
			IssueDescription:    "Dead socket",
			SolutionDescription: "Rewire",
		},
	}

	data, err := ReportsWorkbook(reports)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, len(reports)+1)

	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Picture 3", rows[0][11])
	assert.Equal(t, []string{
		"12", "03.05.2024 09:05", "Plumbing", "Leak", "Replace seal", "escalate", "high",
		"Ana", "pump leaking", "Yes", "No", "No",
	}, rows[1])
	assert.Equal(t, []string{
		"11", "02.05.2024 18:30", "Electrical", "Dead socket", "Rewire", "done", "low",
		"", "", "No", "No", "Yes",
	}, rows[2])
}

func TestReportsWorkbookEmpty(t *testing.T) {
	data, err := ReportsWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "reports_09112024.xlsx", Filename(time.Date(2024, time.November, 9, 23, 0, 0, 0, time.UTC)))
}
