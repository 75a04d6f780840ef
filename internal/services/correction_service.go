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

// CorrectionService runs the employee correction request workflow.
// It never modifies punch records; approved fixes go through ManualEditService.
type CorrectionService interface {
	Submit(ctx context.Context, employee models.Identity, input models.ChangeRequestInput) (*models.CorrectionRequest, error)
	ListForManager(ctx context.Context, manager models.Identity) (*models.ManagerRequests, error)
	ListForEmployee(ctx context.Context, employee models.Identity) ([]models.CorrectionRequest, error)
	Process(ctx context.Context, requestID, decision string, manager models.Identity, comment string) (*models.CorrectionRequest, error)
}

type correctionService struct {
	db             *database.DB
	correctionRepo repositories.CorrectionRepository
	clock          Clock
	ids            IDGen
	settings       Settings
}

// NewCorrectionService creates a new instance of CorrectionService.
func NewCorrectionService(db *database.DB, cr repositories.CorrectionRepository, clock Clock, ids IDGen, settings Settings) CorrectionService {
	return &correctionService{db: db, correctionRepo: cr, clock: clock, ids: ids, settings: settings}
}

func (s *correctionService) Submit(ctx context.Context, employee models.Identity, input models.ChangeRequestInput) (*models.CorrectionRequest, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "CorrectionService.Submit")
	defer span.End()

	date := strings.TrimSpace(input.Date)
	if date == "" {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", ErrValidation, date)
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}

	suggestion := input.Suggestion
	if err := validateSuggestion(suggestion); err != nil {
		return nil, err
	}
	if suggestion.IsEmpty() {
		suggestion = ParseSuggestion(reason)
	}

	now := s.clock.Now().Truncate(time.Millisecond)
	id, err := s.ids.New(now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate request id: %w", err)
	}

	request := &models.CorrectionRequest{
		ID:            id,
		EmployeeID:    employee.EmployeeID,
		EmployeeName:  employee.Name,
		EmployeeEmail: employee.Email,
		CompanyID:     employee.CompanyID,
		TargetDate:    date,
		Reason:        reason,
		Suggestion:    suggestion,
		Status:        models.StatusPending,
		CreatedAt:     now,
	}
	if err := s.correctionRepo.Create(ctx, s.db, request); err != nil {
		return nil, fmt.Errorf("failed to create correction request: %w", err)
	}

	log.Info().Str("request_id", id).Int64("employee_id", employee.EmployeeID).Str("date", date).Msg("Correction request submitted")
	return s.local(request), nil
}

func (s *correctionService) ListForManager(ctx context.Context, manager models.Identity) (*models.ManagerRequests, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "CorrectionService.ListForManager")
	defer span.End()

	if !manager.Role.CanManage() {
		return nil, ErrUnauthorized
	}
	requests, err := s.correctionRepo.ListByCompany(ctx, manager.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list correction requests: %w", err)
	}

	result := &models.ManagerRequests{
		Pending:   []models.CorrectionRequest{},
		Processed: []models.CorrectionRequest{},
	}
	for i := range requests {
		req := s.local(&requests[i])
		if req.Status == models.StatusPending {
			result.Pending = append(result.Pending, *req)
		} else {
			result.Processed = append(result.Processed, *req)
		}
	}
	return result, nil
}

func (s *correctionService) ListForEmployee(ctx context.Context, employee models.Identity) ([]models.CorrectionRequest, error) {
	requests, err := s.correctionRepo.ListByEmployee(ctx, employee.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list correction requests: %w", err)
	}
	for i := range requests {
		s.local(&requests[i])
	}
	return requests, nil
}

func (s *correctionService) Process(ctx context.Context, requestID, decision string, manager models.Identity, comment string) (*models.CorrectionRequest, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "CorrectionService.Process")
	defer span.End()
	span.SetAttributes(attribute.String("request.id", requestID))

	status, ok := models.ParseDecision(decision)
	if !ok {
		return nil, fmt.Errorf("%w: decision must be approve or reject", ErrValidation)
	}
	comment = strings.TrimSpace(comment)
	if !utils.HasMinRunes(comment, MinReasonLength) {
		return nil, fmt.Errorf("%w: comment must have at least %d characters", ErrValidation, MinReasonLength)
	}

	request, err := s.correctionRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: correction request %s", ErrNotFound, requestID)
		}
		return nil, fmt.Errorf("failed to load correction request: %w", err)
	}
	if !canActOnCompany(manager, request.CompanyID) {
		return nil, ErrUnauthorized
	}
	if request.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: request %s is %s", ErrInvalidTransition, requestID, request.Status)
	}

	now := s.clock.Now().Truncate(time.Millisecond)
	if err := s.correctionRepo.Transition(ctx, s.db, requestID, status, manager.Email, comment, now); err != nil {
		if errors.Is(err, repositories.ErrStaleRecord) {
			return nil, fmt.Errorf("%w: request %s", ErrInvalidTransition, requestID)
		}
		return nil, fmt.Errorf("failed to update correction request: %w", err)
	}

	log.Info().Str("request_id", requestID).Str("status", string(status)).Str("processed_by", manager.Email).Msg("Correction request processed")

	updated, err := s.correctionRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload correction request: %w", err)
	}
	return s.local(updated), nil
}

func (s *correctionService) local(req *models.CorrectionRequest) *models.CorrectionRequest {
	loc := s.settings.location()
	req.CreatedAt = req.CreatedAt.In(loc)
	if req.ProcessedAt != nil {
		t := req.ProcessedAt.In(loc)
		req.ProcessedAt = &t
	}
	return req
}

// canActOnCompany reports whether the identity manages employees of companyID.
// Admins act on every company, managers only on their own.
func canActOnCompany(actor models.Identity, companyID string) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleManager:
		return actor.CompanyID == companyID
	}
	return false
}
