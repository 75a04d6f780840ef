package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"timeclock_backend/internal/database"
	"timeclock_backend/internal/models"
	"timeclock_backend/internal/repositories"
	"timeclock_backend/internal/telemetry"
	"timeclock_backend/pkg/utils"
)

// MinReasonLength is the minimum number of characters of an edit reason or manager comment.
const MinReasonLength = 5

var editTimeLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// ManagerAuthorizer confirms a manager may act on an employee and returns that employee.
type ManagerAuthorizer interface {
	AuthorizeManagerFor(ctx context.Context, manager models.Identity, employeeID int64) (*models.Employee, error)
}

// ManualEditService applies manager corrections to daily records.
type ManualEditService interface {
	ApplyManagerEdit(ctx context.Context, recordID int64, edit models.PunchEdit, manager models.Identity, reason string) (*models.DailyPunchRecord, error)
	ApplyManagerEditForDate(ctx context.Context, employeeID int64, workDate string, edit models.PunchEdit, manager models.Identity, reason string) (*models.DailyPunchRecord, error)
	// Recalculate recomputes the stored metrics of a range and returns how many records changed.
	Recalculate(ctx context.Context, employeeID int64, dateRange models.DateRange, manager models.Identity) (int, error)
	// ParseEdit turns the HTTP payload into a PunchEdit. Bare HH:MM values are placed on workDate.
	ParseEdit(req models.ManualEditRequest, workDate string) (models.PunchEdit, error)
}

type manualEditService struct {
	db          *database.DB
	timeLogRepo repositories.TimeLogRepository
	authorizer  ManagerAuthorizer
	clock       Clock
	settings    Settings
}

// NewManualEditService creates a new instance of ManualEditService.
func NewManualEditService(db *database.DB, tr repositories.TimeLogRepository, authorizer ManagerAuthorizer, clock Clock, settings Settings) ManualEditService {
	return &manualEditService{db: db, timeLogRepo: tr, authorizer: authorizer, clock: clock, settings: settings}
}

func validateReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if !utils.HasMinRunes(reason, MinReasonLength) {
		return "", fmt.Errorf("%w: reason must have at least %d characters", ErrValidation, MinReasonLength)
	}
	return reason, nil
}

func (s *manualEditService) ApplyManagerEdit(ctx context.Context, recordID int64, edit models.PunchEdit, manager models.Identity, reason string) (*models.DailyPunchRecord, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ManualEditService.ApplyManagerEdit")
	defer span.End()
	span.SetAttributes(attribute.Int64("time_log.id", recordID))

	reason, err := validateReason(reason)
	if err != nil {
		return nil, err
	}

	current, err := s.timeLogRepo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: time log %d", ErrNotFound, recordID)
		}
		return nil, fmt.Errorf("failed to load time log %d: %w", recordID, err)
	}
	employee, err := s.authorizer.AuthorizeManagerFor(ctx, manager, current.EmployeeID)
	if err != nil {
		return nil, err
	}

	return s.apply(ctx, employee, edit, manager, reason, func(ctx context.Context, tx database.DBTX) (*models.DailyPunchRecord, error) {
		return s.timeLogRepo.GetByIDForUpdate(ctx, tx, recordID)
	})
}

func (s *manualEditService) ApplyManagerEditForDate(ctx context.Context, employeeID int64, workDate string, edit models.PunchEdit, manager models.Identity, reason string) (*models.DailyPunchRecord, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ManualEditService.ApplyManagerEditForDate")
	defer span.End()
	span.SetAttributes(attribute.Int64("employee.id", employeeID), attribute.String("work_date", workDate))

	reason, err := validateReason(reason)
	if err != nil {
		return nil, err
	}
	if _, err := time.Parse(models.DateLayout, workDate); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", ErrValidation, workDate)
	}
	employee, err := s.authorizer.AuthorizeManagerFor(ctx, manager, employeeID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().Truncate(time.Millisecond)
	return s.apply(ctx, employee, edit, manager, reason, func(ctx context.Context, tx database.DBTX) (*models.DailyPunchRecord, error) {
		return s.timeLogRepo.GetOrCreateForUpdate(ctx, tx, employeeID, workDate, now)
	})
}

func (s *manualEditService) apply(
	ctx context.Context,
	employee *models.Employee,
	edit models.PunchEdit,
	manager models.Identity,
	reason string,
	load func(ctx context.Context, tx database.DBTX) (*models.DailyPunchRecord, error),
) (*models.DailyPunchRecord, error) {
	workload := s.settings.workload(employee.WorkloadHours)
	now := s.clock.Now().Truncate(time.Millisecond)

	var result *models.DailyPunchRecord
	err := database.RunInTx(ctx, s.db.DB, nil, func(ctx context.Context, tx database.DBTX) error {
		rec, err := load(ctx, tx)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return fmt.Errorf("%w: time log", ErrNotFound)
			}
			return fmt.Errorf("failed to load time log: %w", err)
		}

		for i := range edit.Changes {
			edit.Changes[i].Value = edit.Changes[i].Value.Truncate(time.Millisecond)
		}
		if err := s.checkEditDates(rec.WorkDate, edit); err != nil {
			return err
		}
		edit.ApplyTo(rec)
		if err := rec.ValidateOrdering(); err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		Recompute(rec, workload).Apply(rec)
		rec.Edit = &models.EditAudit{
			EditedBy:     manager.Email,
			EditedByName: manager.Name,
			EditedAt:     now,
			Reason:       reason,
		}
		rec.UpdatedAt = now

		if err := s.timeLogRepo.Update(ctx, tx, rec); err != nil {
			if errors.Is(err, repositories.ErrStaleRecord) {
				return fmt.Errorf("%w: %v", ErrConflict, err)
			}
			return fmt.Errorf("failed to save time log: %w", err)
		}
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("time_log_id", result.ID).
		Int64("employee_id", employee.ID).
		Str("edited_by", manager.Email).
		Msg("Time log edited by manager")
	return result.In(s.settings.location()), nil
}

// checkEditDates keeps assigned punches on the record's work date or, for overnight
// shifts, the day after it.
func (s *manualEditService) checkEditDates(workDate string, edit models.PunchEdit) error {
	day, err := time.ParseInLocation(models.DateLayout, workDate, s.settings.location())
	if err != nil {
		return fmt.Errorf("failed to parse work date %q: %w", workDate, err)
	}
	nextDay := day.AddDate(0, 0, 1).Format(models.DateLayout)
	for _, slot := range models.AllSlots {
		change := edit.Changes[slot]
		if change.Kind != models.SlotAssigned {
			continue
		}
		got := s.settings.WorkDate(change.Value)
		if got != workDate && got != nextDay {
			return fmt.Errorf("%w: %s on %s is outside work date %s", ErrValidation, slot, got, workDate)
		}
	}
	return nil
}

func (s *manualEditService) Recalculate(ctx context.Context, employeeID int64, dateRange models.DateRange, manager models.Identity) (int, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ManualEditService.Recalculate")
	defer span.End()

	if err := dateRange.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	employee, err := s.authorizer.AuthorizeManagerFor(ctx, manager, employeeID)
	if err != nil {
		return 0, err
	}
	workload := s.settings.workload(employee.WorkloadHours)
	now := s.clock.Now().Truncate(time.Millisecond)

	updated := 0
	err = database.RunInTx(ctx, s.db.DB, nil, func(ctx context.Context, tx database.DBTX) error {
		records, err := s.timeLogRepo.ListByEmployee(ctx, tx, employeeID, dateRange)
		if err != nil {
			return fmt.Errorf("failed to list time logs: %w", err)
		}
		for i := range records {
			rec := &records[i]
			b := Recompute(rec, workload)
			if b.Extra == rec.ExtraHours && b.Missing == rec.MissingHours && b.Balance == rec.BalanceHours {
				continue
			}
			b.Apply(rec)
			rec.UpdatedAt = now
			if err := s.timeLogRepo.Update(ctx, tx, rec); err != nil {
				if errors.Is(err, repositories.ErrStaleRecord) {
					return fmt.Errorf("%w: %v", ErrConflict, err)
				}
				return fmt.Errorf("failed to save time log: %w", err)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Int64("employee_id", employeeID).Int("updated", updated).Msg("Balances recalculated")
	return updated, nil
}

func (s *manualEditService) ParseEdit(req models.ManualEditRequest, workDate string) (models.PunchEdit, error) {
	var edit models.PunchEdit
	for _, slot := range models.AllSlots {
		raw := req.Field(slot)
		if raw == nil {
			continue
		}
		value := strings.TrimSpace(*raw)
		if value == "" {
			edit.Clear(slot)
			continue
		}
		t, err := s.parseEditTime(value, workDate)
		if err != nil {
			return models.PunchEdit{}, fmt.Errorf("%w: invalid %s %q", ErrValidation, slot, value)
		}
		edit.Assign(slot, t)
	}
	return edit, nil
}

func (s *manualEditService) parseEditTime(value, workDate string) (time.Time, error) {
	loc := s.settings.location()
	if len(value) == len("15:04") && workDate != "" {
		return time.ParseInLocation(models.DateLayout+"T15:04", workDate+"T"+value, loc)
	}
	for _, layout := range editTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.Truncate(time.Millisecond), nil
}
