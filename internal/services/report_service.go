package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"timeclock_backend/internal/models"
	"timeclock_backend/internal/repositories"
	"timeclock_backend/internal/telemetry"
)

// ReportService answers read-only questions about punch records.
type ReportService interface {
	ListByEmployee(ctx context.Context, employeeID int64, dateRange models.DateRange) ([]models.DailyPunchRecord, error)
	ExportRows(ctx context.Context, employeeID int64, dateRange models.DateRange) ([]models.ExportRow, error)
	Timesheet(ctx context.Context, employee *models.Employee, dateRange models.DateRange) (*models.Timesheet, error)
	// Today returns the record for the day of now, or an unsaved empty one.
	Today(ctx context.Context, employeeID int64, now time.Time) (*models.DailyPunchRecord, error)
}

type reportService struct {
	employeeRepo repositories.EmployeeRepository
	timeLogRepo  repositories.TimeLogRepository
	querier      repositories.SQLExecutor
	settings     Settings
}

// NewReportService creates a new instance of ReportService.
func NewReportService(er repositories.EmployeeRepository, tr repositories.TimeLogRepository, querier repositories.SQLExecutor, settings Settings) ReportService {
	return &reportService{employeeRepo: er, timeLogRepo: tr, querier: querier, settings: settings}
}

func (s *reportService) ListByEmployee(ctx context.Context, employeeID int64, dateRange models.DateRange) ([]models.DailyPunchRecord, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ReportService.ListByEmployee")
	defer span.End()

	if err := dateRange.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	records, err := s.timeLogRepo.ListByEmployee(ctx, s.querier, employeeID, dateRange)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	loc := s.settings.location()
	for i := range records {
		records[i].In(loc)
	}
	return records, nil
}

func (s *reportService) ExportRows(ctx context.Context, employeeID int64, dateRange models.DateRange) ([]models.ExportRow, error) {
	records, err := s.ListByEmployee(ctx, employeeID, dateRange)
	if err != nil {
		return nil, err
	}
	rows := make([]models.ExportRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, exportRow(rec))
	}
	return rows, nil
}

func exportRow(rec models.DailyPunchRecord) models.ExportRow {
	row := models.ExportRow{
		Date:            rec.WorkDate,
		EntryTime:       rec.EntryTime,
		LunchExitTime:   rec.LunchExitTime,
		LunchReturnTime: rec.LunchReturnTime,
		ExitTime:        rec.ExitTime,
		ExtraHours:      rec.ExtraHours,
		MissingHours:    rec.MissingHours,
		BalanceHours:    rec.BalanceHours,
	}
	if rec.Edit != nil {
		editedAt := rec.Edit.EditedAt
		row.Edited = true
		row.EditedBy = rec.Edit.EditedBy
		row.EditedAt = &editedAt
		row.EditReason = rec.Edit.Reason
	}
	return row
}

func (s *reportService) Timesheet(ctx context.Context, employee *models.Employee, dateRange models.DateRange) (*models.Timesheet, error) {
	rows, err := s.ExportRows(ctx, employee.ID, dateRange)
	if err != nil {
		return nil, err
	}
	sheet := &models.Timesheet{
		EmployeeEmail: employee.Email,
		EmployeeName:  employee.Name,
		WorkloadHours: s.settings.workload(employee.WorkloadHours),
		Range:         dateRange,
		Rows:          rows,
	}
	for _, row := range rows {
		sheet.TotalBalance += row.BalanceHours
	}
	return sheet, nil
}

func (s *reportService) Today(ctx context.Context, employeeID int64, now time.Time) (*models.DailyPunchRecord, error) {
	employee, err := activeEmployee(ctx, s.employeeRepo, employeeID)
	if err != nil {
		return nil, err
	}
	workDate := s.settings.WorkDate(now)

	rec, err := s.timeLogRepo.GetByEmployeeDate(ctx, employeeID, workDate)
	if err == nil {
		return rec.In(s.settings.location()), nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load today's time log: %w", err)
	}

	empty := &models.DailyPunchRecord{EmployeeID: employeeID, WorkDate: workDate}
	Recompute(empty, s.settings.workload(employee.WorkloadHours)).Apply(empty)
	return empty, nil
}
