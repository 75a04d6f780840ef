package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"timeclock_backend/internal/models"
	"timeclock_backend/internal/repositories"
	"timeclock_backend/pkg/utils"
)

// AuthService handles login.
type AuthService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

type authService struct {
	employeeRepo repositories.EmployeeRepository
	tokens       *utils.TokenManager
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(er repositories.EmployeeRepository, tokens *utils.TokenManager) AuthService {
	return &authService{employeeRepo: er, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	email := utils.NormalizeEmail(req.Email)
	employee, err := s.employeeRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if !employee.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(employee.ID, employee.Email, string(employee.Role), employee.CompanyID)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("employee_id", employee.ID).Msg("Employee logged in")
	return &models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Employee:    employee.Identity(),
	}, nil
}
