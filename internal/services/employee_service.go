package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"timeclock_backend/internal/database"
	"timeclock_backend/internal/models"
	"timeclock_backend/internal/repositories"
	"timeclock_backend/pkg/utils"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// EmployeeService manages employees and answers who may act on whom.
type EmployeeService interface {
	Create(ctx context.Context, actor models.Identity, req models.CreateEmployeeRequest) (*models.Employee, error)
	List(ctx context.Context, actor models.Identity, active *bool) ([]models.Employee, error)
	Get(ctx context.Context, actor models.Identity, id int64) (*models.Employee, error)
	Deactivate(ctx context.Context, actor models.Identity, id int64) (*models.Employee, error)
	Update(ctx context.Context, actor models.Identity, id int64, req models.UpdateEmployeeRequest) (*models.Employee, error)
	// SetPassword changes the actor's own password (current password required)
	// or resets the password of an employee the actor manages.
	SetPassword(ctx context.Context, actor models.Identity, id int64, req models.SetPasswordRequest) error

	// LoadIdentity returns the identity of an active employee.
	LoadIdentity(ctx context.Context, employeeID int64) (*models.Identity, error)
	// ResolveViewable finds an employee by email that actor may read: themselves,
	// or anyone in a company they manage. An empty email means the actor.
	ResolveViewable(ctx context.Context, actor models.Identity, email string) (*models.Employee, error)
	// ResolveManaged finds an employee by email that actor may edit.
	ResolveManaged(ctx context.Context, actor models.Identity, email string) (*models.Employee, error)
	AuthorizeManagerFor(ctx context.Context, manager models.Identity, employeeID int64) (*models.Employee, error)
}

type employeeService struct {
	db           *database.DB
	employeeRepo repositories.EmployeeRepository
	clock        Clock
	settings     Settings
}

// NewEmployeeService creates a new instance of EmployeeService.
func NewEmployeeService(db *database.DB, er repositories.EmployeeRepository, clock Clock, settings Settings) EmployeeService {
	return &employeeService{db: db, employeeRepo: er, clock: clock, settings: settings}
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *employeeService) Create(ctx context.Context, actor models.Identity, req models.CreateEmployeeRequest) (*models.Employee, error) {
	if !actor.Role.CanManage() {
		return nil, ErrUnauthorized
	}

	email := utils.NormalizeEmail(req.Email)
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email %q", ErrValidation, req.Email)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !utils.IsValidPasswordLength(req.Password, MinPasswordLength) {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrValidation, MinPasswordLength)
	}

	role := req.Role
	if role == "" {
		role = models.RoleEmployee
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if role == models.RoleAdmin && actor.Role != models.RoleAdmin {
		return nil, ErrUnauthorized
	}

	companyID := strings.TrimSpace(req.CompanyID)
	if companyID == "" {
		companyID = actor.CompanyID
	}
	if !canActOnCompany(actor, companyID) {
		return nil, ErrUnauthorized
	}

	if req.WorkloadHours < 0 || req.WorkloadHours > 24 {
		return nil, fmt.Errorf("%w: workload_hours must be within 0 and 24", ErrValidation)
	}
	workload := s.settings.workload(req.WorkloadHours)

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().Truncate(time.Millisecond)
	employee := &models.Employee{
		Email:         email,
		Name:          name,
		PasswordHash:  hash,
		Role:          role,
		CompanyID:     companyID,
		ManagerID:     req.ManagerID,
		WorkloadHours: workload,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if employee.ManagerID == nil && actor.Role == models.RoleManager {
		managerID := actor.EmployeeID
		employee.ManagerID = &managerID
	}

	created, err := s.employeeRepo.Create(ctx, s.db, employee)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrEmailExists, email)
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	log.Info().Int64("employee_id", created.ID).Str("email", created.Email).Str("created_by", actor.Email).Msg("Employee created")
	return s.local(created), nil
}

func (s *employeeService) List(ctx context.Context, actor models.Identity, active *bool) ([]models.Employee, error) {
	if !actor.Role.CanManage() {
		return nil, ErrUnauthorized
	}
	companyID := actor.CompanyID
	if actor.Role == models.RoleAdmin {
		companyID = ""
	}
	employees, err := s.employeeRepo.List(ctx, companyID, active)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	for i := range employees {
		s.local(&employees[i])
	}
	return employees, nil
}

func (s *employeeService) Get(ctx context.Context, actor models.Identity, id int64) (*models.Employee, error) {
	employee, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if employee.ID != actor.EmployeeID && !canActOnCompany(actor, employee.CompanyID) {
		return nil, ErrUnauthorized
	}
	return s.local(employee), nil
}

func (s *employeeService) Deactivate(ctx context.Context, actor models.Identity, id int64) (*models.Employee, error) {
	employee, err := s.AuthorizeManagerFor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if employee.ID == actor.EmployeeID {
		return nil, fmt.Errorf("%w: cannot deactivate yourself", ErrValidation)
	}

	now := s.clock.Now().Truncate(time.Millisecond)
	if err := s.employeeRepo.SetActive(ctx, s.db, id, false, now); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to deactivate employee: %w", err)
	}
	employee.Active = false
	employee.UpdatedAt = now

	log.Info().Int64("employee_id", id).Str("deactivated_by", actor.Email).Msg("Employee deactivated")
	return s.local(employee), nil
}

func (s *employeeService) Update(ctx context.Context, actor models.Identity, id int64, req models.UpdateEmployeeRequest) (*models.Employee, error) {
	employee, err := s.AuthorizeManagerFor(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		employee.Name = name
	}
	if req.WorkloadHours != nil {
		if *req.WorkloadHours < 0 || *req.WorkloadHours > 24 {
			return nil, fmt.Errorf("%w: workload_hours must be within 0 and 24", ErrValidation)
		}
		employee.WorkloadHours = s.settings.workload(*req.WorkloadHours)
	}
	if req.Active != nil {
		if !*req.Active && employee.ID == actor.EmployeeID {
			return nil, fmt.Errorf("%w: cannot deactivate yourself", ErrValidation)
		}
		employee.Active = *req.Active
	}
	employee.UpdatedAt = s.clock.Now().Truncate(time.Millisecond)

	if err := s.employeeRepo.Update(ctx, s.db, employee); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}

	log.Info().Int64("employee_id", id).Float64("workload_hours", employee.WorkloadHours).Bool("active", employee.Active).Str("updated_by", actor.Email).Msg("Employee updated")
	return s.local(employee), nil
}

func (s *employeeService) SetPassword(ctx context.Context, actor models.Identity, id int64, req models.SetPasswordRequest) error {
	if !utils.IsValidPasswordLength(req.NewPassword, MinPasswordLength) {
		return fmt.Errorf("%w: password must have at least %d characters", ErrValidation, MinPasswordLength)
	}

	if id == actor.EmployeeID {
		employee, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.CurrentPassword)) != nil {
			return ErrInvalidCredentials
		}
	} else if _, err := s.AuthorizeManagerFor(ctx, actor, id); err != nil {
		return err
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	now := s.clock.Now().Truncate(time.Millisecond)
	if err := s.employeeRepo.SetPassword(ctx, s.db, id, hash, now); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: employee %d", ErrNotFound, id)
		}
		return fmt.Errorf("failed to set password: %w", err)
	}

	log.Info().Int64("employee_id", id).Str("changed_by", actor.Email).Msg("Password changed")
	return nil
}

func (s *employeeService) LoadIdentity(ctx context.Context, employeeID int64) (*models.Identity, error) {
	employee, err := activeEmployee(ctx, s.employeeRepo, employeeID)
	if err != nil {
		return nil, err
	}
	identity := employee.Identity()
	identity.WorkloadHours = s.settings.workload(identity.WorkloadHours)
	return &identity, nil
}

func (s *employeeService) ResolveViewable(ctx context.Context, actor models.Identity, email string) (*models.Employee, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || email == actor.Email {
		return s.load(ctx, actor.EmployeeID)
	}
	return s.ResolveManaged(ctx, actor, email)
}

func (s *employeeService) ResolveManaged(ctx context.Context, actor models.Identity, email string) (*models.Employee, error) {
	if !actor.Role.CanManage() {
		return nil, ErrUnauthorized
	}
	employee, err := s.employeeRepo.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %s", ErrNotFound, email)
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if !canActOnCompany(actor, employee.CompanyID) {
		return nil, ErrUnauthorized
	}
	return employee, nil
}

func (s *employeeService) AuthorizeManagerFor(ctx context.Context, manager models.Identity, employeeID int64) (*models.Employee, error) {
	if !manager.Role.CanManage() {
		return nil, ErrUnauthorized
	}
	employee, err := s.load(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !canActOnCompany(manager, employee.CompanyID) {
		return nil, ErrUnauthorized
	}
	return employee, nil
}

func (s *employeeService) load(ctx context.Context, id int64) (*models.Employee, error) {
	employee, err := s.employeeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: employee %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load employee %d: %w", id, err)
	}
	return employee, nil
}

func (s *employeeService) local(e *models.Employee) *models.Employee {
	loc := s.settings.location()
	e.CreatedAt = e.CreatedAt.In(loc)
	e.UpdatedAt = e.UpdatedAt.In(loc)
	return e
}
