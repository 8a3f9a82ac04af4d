// Package export renders bookings as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"visits/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetBookings = "Bookings"
	SheetSummary  = "Summary"
	SheetDuty     = "Duty"
)

// Report is everything a workbook shows for a date range.
type Report struct {
	From     models.Date
	To       models.Date
	Bookings []models.Booking
	Contacts []models.DutyContact
}

// FileName returns the conventional name of the report file.
func (r Report) FileName() string {
	return fmt.Sprintf("visits_%s_to_%s.xlsx", r.From, r.To)
}

// Workbook builds the workbook. The caller must Close it.
func Workbook(r Report) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetBookings)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeBookings(f, r); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSummary(f, r); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeDuty(f, r); err != nil {
		_ = f.Close()
		return nil, err
	}

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// Write streams the workbook to w.
func Write(w io.Writer, r Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// SaveFile writes the workbook into dir and returns the file path.
func SaveFile(dir string, r Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := Workbook(r)
	if err != nil {
		return "", err
	}
	defer f.Close()

	path := filepath.Join(dir, r.FileName())
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return path, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func writeHeader(f *excelize.File, sheet string, row int, titles ...string) error {
	style, err := headerStyle(f)
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}
	for i, title := range titles {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(titles), row)
	return f.SetCellStyle(sheet, first, last, style)
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	return f.SetSheetRow(sheet, cell, &values)
}

func writeBookings(f *excelize.File, r Report) error {
	_ = f.SetCellValue(SheetBookings, "A1", fmt.Sprintf("Period: %s - %s", r.From, r.To))
	_ = f.MergeCell(SheetBookings, "A1", "H1")
	title, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(SheetBookings, "A1", "A1", title)

	if err := writeHeader(f, SheetBookings, 2, "ID", "Date", "Start", "End", "Visitor", "Phone", "Party", "Created"); err != nil {
		return err
	}

	for i, b := range r.Bookings {
		err := setRow(f, SheetBookings, i+3,
			b.ID, b.Date.String(), b.Start.String(), b.End.String(),
			b.VisitorName, b.Phone, b.PartySize, b.CreatedAt.Format("2006-01-02 15:04"))
		if err != nil {
			return fmt.Errorf("error writing booking %d: %w", b.ID, err)
		}
	}

	_ = f.SetColWidth(SheetBookings, "A", "A", 8)
	_ = f.SetColWidth(SheetBookings, "B", "D", 12)
	_ = f.SetColWidth(SheetBookings, "E", "F", 25)
	_ = f.SetColWidth(SheetBookings, "G", "H", 16)
	return nil
}

func writeSummary(f *excelize.File, r Report) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	if err := writeHeader(f, SheetSummary, 1, "Date", "Bookings", "Visitors"); err != nil {
		return err
	}

	type totals struct{ bookings, visitors int }
	byDate := make(map[models.Date]totals)
	for _, b := range r.Bookings {
		t := byDate[b.Date]
		t.bookings++
		t.visitors += b.PartySize
		byDate[b.Date] = t
	}

	row := 2
	for d := r.From; !d.After(r.To); d = d.AddDays(1) {
		t := byDate[d]
		if err := setRow(f, SheetSummary, row, d.String(), t.bookings, t.visitors); err != nil {
			return err
		}
		row++
	}
	_ = f.SetColWidth(SheetSummary, "A", "C", 14)
	return nil
}

func writeDuty(f *excelize.File, r Report) error {
	if _, err := f.NewSheet(SheetDuty); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	if err := writeHeader(f, SheetDuty, 1, "Date", "Period", "Name", "Phone"); err != nil {
		return err
	}
	for i, c := range r.Contacts {
		if err := setRow(f, SheetDuty, i+2, c.Date.String(), string(c.Period), c.Name, c.Phone); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetDuty, "A", "B", 12)
	_ = f.SetColWidth(SheetDuty, "C", "D", 25)
	return nil
}
