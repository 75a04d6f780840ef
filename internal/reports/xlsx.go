package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"timeclock_backend/internal/models"
	"timeclock_backend/pkg/utils"
)

const sheetName = "Registros"

// headerRow is the first row of the data table.
const headerRow = 6

// DefaultLanguage is used when no locale is configured.
var DefaultLanguage = language.BrazilianPortuguese

var supported = []language.Tag{language.BrazilianPortuguese, language.English}

var matcher = language.NewMatcher(supported)

type labels struct {
	title, employee, email, period, generated, total string
	headers                                           []string
	edited, original                                  string
}

var labelsByLang = map[language.Tag]labels{
	language.BrazilianPortuguese: {
		title:     "Relatório de Ponto",
		employee:  "Funcionário",
		email:     "Email",
		period:    "Período",
		generated: "Data de Geração",
		total:     "Saldo total",
		headers: []string{"Data", "Entrada", "Saída Almoço", "Retorno Almoço", "Saída",
			"Horas Extras", "Horas Faltantes", "Saldo", "Status", "Editado Por", "Data Edição", "Motivo Edição"},
		edited:   "EDITADO",
		original: "ORIGINAL",
	},
	language.English: {
		title:     "Timesheet",
		employee:  "Employee",
		email:     "Email",
		period:    "Period",
		generated: "Generated at",
		total:     "Total balance",
		headers: []string{"Date", "Entry", "Lunch Exit", "Lunch Return", "Exit",
			"Extra Hours", "Missing Hours", "Balance", "Status", "Edited By", "Edited At", "Edit Reason"},
		edited:   "EDITED",
		original: "ORIGINAL",
	},
}

// TimesheetWriter renders timesheets as xlsx workbooks.
type TimesheetWriter struct {
	loc     *time.Location
	printer *message.Printer
	labels  labels
}

// NewTimesheetWriter returns a writer for the given location and locale.
func NewTimesheetWriter(loc *time.Location, tag language.Tag) *TimesheetWriter {
	if loc == nil {
		loc = time.UTC
	}
	_, idx, _ := matcher.Match(tag)
	base := supported[idx]
	return &TimesheetWriter{
		loc:     loc,
		printer: message.NewPrinter(tag),
		labels:  labelsByLang[base],
	}
}

// Headers returns the column titles of the data table.
func (w *TimesheetWriter) Headers() []string {
	return w.labels.headers
}

// FormatHours renders an hour amount with two decimals in the writer's locale.
func (w *TimesheetWriter) FormatHours(h float64) string {
	return w.printer.Sprintf("%.2f", utils.RoundHours(h))
}

// Write renders sheet as a workbook into out.
func (w *TimesheetWriter) Write(out io.Writer, sheet *models.Timesheet, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	period := sheet.Range.Start + " - " + sheet.Range.End
	info := []struct{ cell, value string }{
		{"A1", w.labels.title},
		{"A2", fmt.Sprintf("%s: %s", w.labels.employee, sheet.EmployeeName)},
		{"A3", fmt.Sprintf("%s: %s", w.labels.email, sheet.EmployeeEmail)},
		{"A4", fmt.Sprintf("%s: %s", w.labels.period, period)},
		{"A5", fmt.Sprintf("%s: %s", w.labels.generated, generatedAt.In(w.loc).Format("02/01/2006 15:04:05"))},
	}
	for _, c := range info {
		if err := f.SetCellValue(sheetName, c.cell, c.value); err != nil {
			return fmt.Errorf("write %s: %w", c.cell, err)
		}
	}

	headerCell, _ := excelize.CoordinatesToCellName(1, headerRow)
	headers := make([]interface{}, len(w.labels.headers))
	for i, h := range w.labels.headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheetName, headerCell, &headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}

	for i, row := range sheet.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		values := w.rowValues(row)
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %s: %w", row.Date, err)
		}
	}

	totalCell, _ := excelize.CoordinatesToCellName(1, headerRow+len(sheet.Rows)+2)
	total := fmt.Sprintf("%s: %s", w.labels.total, w.FormatHours(sheet.TotalBalance))
	if err := f.SetCellValue(sheetName, totalCell, total); err != nil {
		return fmt.Errorf("write total: %w", err)
	}

	if err := f.SetColWidth(sheetName, "A", "L", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (w *TimesheetWriter) clock(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.In(w.loc).Format("15:04")
}

func (w *TimesheetWriter) rowValues(row models.ExportRow) []interface{} {
	date := row.Date
	if d, err := time.Parse(models.DateLayout, row.Date); err == nil {
		date = d.Format("02/01/2006")
	}

	status, editedBy, editedAt, reason := w.labels.original, "-", "-", "-"
	if row.Edited {
		status = w.labels.edited
		editedBy = row.EditedBy
		reason = row.EditReason
		if row.EditedAt != nil {
			editedAt = row.EditedAt.In(w.loc).Format("02/01/2006 15:04")
		}
	}

	return []interface{}{
		date,
		w.clock(row.EntryTime),
		w.clock(row.LunchExitTime),
		w.clock(row.LunchReturnTime),
		w.clock(row.ExitTime),
		utils.RoundHours(row.ExtraHours),
		utils.RoundHours(row.MissingHours),
		utils.RoundHours(row.BalanceHours),
		status,
		editedBy,
		editedAt,
		reason,
	}
}
