package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"visits/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleReport() Report {
	d1 := models.NewDate(2025, 6, 3)
	d2 := models.NewDate(2025, 6, 4)
	created := time.Date(2025, 6, 1, 9, 15, 0, 0, time.UTC)
	return Report{
		From: d1,
		To:   d2.AddDays(1),
		Bookings: []models.Booking{
			{ID: 1, Date: d1, Start: models.NewTimeOfDay(16, 30), End: models.NewTimeOfDay(17, 0), VisitorName: "Maria", Phone: "910", PartySize: 2, CreatedAt: created},
			{ID: 2, Date: d1, Start: models.NewTimeOfDay(17, 0), End: models.NewTimeOfDay(18, 0), VisitorName: "João", PartySize: 1, CreatedAt: created},
			{ID: 3, Date: d2, Start: models.NewTimeOfDay(16, 30), End: models.NewTimeOfDay(17, 0), VisitorName: "Ana", PartySize: 1, CreatedAt: created},
		},
		Contacts: []models.DutyContact{
			{Date: d1, Period: models.PeriodAfternoon, Name: "Joana", Phone: "912"},
		},
	}
}

func TestWorkbook(t *testing.T) {
	f, err := Workbook(sampleReport())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetBookings, SheetSummary, SheetDuty}, f.GetSheetList())

	rows, err := f.GetRows(SheetBookings)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Period: 2025-06-03 - 2025-06-05", rows[0][0])
	assert.Equal(t, []string{"ID", "Date", "Start", "End", "Visitor", "Phone", "Party", "Created"}, rows[1])
	assert.Equal(t, []string{"1", "2025-06-03", "16:30", "17:00", "Maria", "910", "2", "2025-06-01 09:15"}, rows[2])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 4)
	assert.Equal(t, []string{"2025-06-03", "2", "3"}, summary[1])
	assert.Equal(t, []string{"2025-06-05", "0", "0"}, summary[3])

	duty, err := f.GetRows(SheetDuty)
	require.NoError(t, err)
	require.Len(t, duty, 2)
	assert.Equal(t, []string{"2025-06-03", "afternoon", "Joana", "912"}, duty[1])
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(SheetBookings, "E5")
	require.NoError(t, err)
	assert.Equal(t, "Ana", v)
}

func TestSaveFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	r := sampleReport()

	path, err := SaveFile(dir, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "visits_2025-06-03_to_2025-06-05.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), SheetDuty)
}

func TestWorkbook_Empty(t *testing.T) {
	d := models.NewDate(2025, 6, 3)
	f, err := Workbook(Report{From: d, To: d})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetBookings)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
