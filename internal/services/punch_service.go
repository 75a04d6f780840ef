package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"timeclock_backend/internal/database"
	"timeclock_backend/internal/models"
	"timeclock_backend/internal/repositories"
	"timeclock_backend/internal/telemetry"
)

// PunchService records the daily punch sequence.
type PunchService interface {
	// RegisterPunch fills the next empty slot of the employee's record for the day of now.
	RegisterPunch(ctx context.Context, employeeID int64, now time.Time) (*models.DailyPunchRecord, models.Slot, error)
}

type punchService struct {
	db           *database.DB
	employeeRepo repositories.EmployeeRepository
	timeLogRepo  repositories.TimeLogRepository
	settings     Settings
}

// NewPunchService creates a new instance of PunchService.
func NewPunchService(db *database.DB, er repositories.EmployeeRepository, tr repositories.TimeLogRepository, settings Settings) PunchService {
	return &punchService{db: db, employeeRepo: er, timeLogRepo: tr, settings: settings}
}

func (s *punchService) RegisterPunch(ctx context.Context, employeeID int64, now time.Time) (*models.DailyPunchRecord, models.Slot, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "PunchService.RegisterPunch")
	defer span.End()

	employee, err := activeEmployee(ctx, s.employeeRepo, employeeID)
	if err != nil {
		return nil, 0, err
	}

	now = now.Truncate(time.Millisecond)
	workDate := s.settings.WorkDate(now)
	workload := s.settings.workload(employee.WorkloadHours)
	span.SetAttributes(attribute.Int64("employee.id", employeeID), attribute.String("work_date", workDate))

	var record *models.DailyPunchRecord
	var slot models.Slot
	err = database.RunInTx(ctx, s.db.DB, nil, func(ctx context.Context, tx database.DBTX) error {
		rec, err := s.timeLogRepo.GetOrCreateForUpdate(ctx, tx, employeeID, workDate, now)
		if err != nil {
			return fmt.Errorf("failed to load time log: %w", err)
		}

		next, ok := rec.NextSlot()
		if !ok {
			return ErrAlreadyComplete
		}
		if next > models.SlotEntry {
			prev := rec.Get(next - 1)
			if !now.After(*prev) {
				return fmt.Errorf("%w: %s punch must be after %s", ErrValidation, next, next-1)
			}
		}

		rec.Set(next, &now)
		Recompute(rec, workload).Apply(rec)
		rec.UpdatedAt = now

		if err := s.timeLogRepo.Update(ctx, tx, rec); err != nil {
			if errors.Is(err, repositories.ErrStaleRecord) {
				return fmt.Errorf("%w: %v", ErrConflict, err)
			}
			return fmt.Errorf("failed to save time log: %w", err)
		}
		record, slot = rec, next
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, 0, err
	}

	log.Info().Int64("employee_id", employeeID).Str("work_date", workDate).Stringer("slot", slot).Msg("Punch registered")
	return record.In(s.settings.location()), slot, nil
}

// activeEmployee loads an employee, treating deactivated ones as missing.
func activeEmployee(ctx context.Context, repo repositories.EmployeeRepository, id int64) (*models.Employee, error) {
	employee, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load employee %d: %w", id, err)
	}
	if !employee.Active {
		return nil, fmt.Errorf("%w: employee %d is inactive", ErrNotFound, id)
	}
	return employee, nil
}
