package reports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"

	"timeclock_backend/internal/models"
)

func ts(h, m int) *time.Time {
	t := time.Date(2024, 3, 4, h, m, 0, 0, time.UTC)
	return &t
}

func sampleSheet() *models.Timesheet {
	editedAt := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	return &models.Timesheet{
		EmployeeEmail: "ana@example.com",
		EmployeeName:  "Ana",
		WorkloadHours: 8,
		Range:         models.DateRange{Start: "2024-03-01", End: "2024-03-31"},
		Rows: []models.ExportRow{
			{Date: "2024-03-04", EntryTime: ts(8, 0), LunchExitTime: ts(12, 0), LunchReturnTime: ts(13, 0), ExitTime: ts(18, 30), ExtraHours: 1.5, BalanceHours: 1.5},
			{Date: "2024-03-05", EntryTime: ts(8, 0), MissingHours: 8, BalanceHours: -8, Edited: true, EditedBy: "boss@example.com", EditedAt: &editedAt, EditReason: "ajuste"},
		},
		TotalBalance: -6.5,
	}
}

func TestWrite_PortugueseWorkbook(t *testing.T) {
	w := NewTimesheetWriter(time.UTC, language.BrazilianPortuguese)
	var buf bytes.Buffer
	if err := w.Write(&buf, sampleSheet(), time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if rows[0][0] != "Relatório de Ponto" {
		t.Fatalf("title = %q", rows[0][0])
	}
	header := rows[headerRow-1]
	if header[0] != "Data" || header[8] != "Status" || len(header) != 12 {
		t.Fatalf("header = %v", header)
	}

	first := rows[headerRow]
	if first[0] != "04/03/2024" || first[1] != "08:00" || first[4] != "18:30" || first[8] != "ORIGINAL" {
		t.Fatalf("first row = %v", first)
	}
	second := rows[headerRow+1]
	if second[4] != "-" || second[8] != "EDITADO" || second[9] != "boss@example.com" || second[11] != "ajuste" {
		t.Fatalf("second row = %v", second)
	}

	total := rows[len(rows)-1][0]
	if !strings.Contains(total, "6,50") {
		t.Fatalf("total = %q, want decimal comma", total)
	}
}

func TestWrite_EnglishLabels(t *testing.T) {
	w := NewTimesheetWriter(time.UTC, language.AmericanEnglish)
	if w.Headers()[0] != "Date" {
		t.Fatalf("headers = %v", w.Headers())
	}
	if got := w.FormatHours(1.5); got != "1.50" {
		t.Fatalf("FormatHours = %q", got)
	}
}

func TestWrite_ConvertsToLocation(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	w := NewTimesheetWriter(loc, language.BrazilianPortuguese)
	values := w.rowValues(models.ExportRow{Date: "2024-03-04", EntryTime: ts(11, 0)})
	if values[1] != "08:00" {
		t.Fatalf("entry = %v, want 08:00 local", values[1])
	}
}
