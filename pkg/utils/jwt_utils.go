package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "timeclock-backend"

// Claims defines the JWT claims structure.
// Identity is re-read from the database on every request; the claims only name who the
// bearer is.
type Claims struct {
	EmployeeID int64  `json:"employee_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	CompanyID  string `json:"company_id"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies access tokens with a shared HMAC secret.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a TokenManager. The secret must not be empty.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// GenerateAccessToken creates a new JWT access token for an employee.
func (m *TokenManager) GenerateAccessToken(employeeID int64, email, role, companyID string) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)
	claims := &Claims{
		EmployeeID: employeeID,
		Email:      email,
		Role:       role,
		CompanyID:  companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   Int64ToStr(employeeID),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken parses and validates a JWT token string.
func (m *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.EmployeeID <= 0 {
		return nil, errors.New("token has no employee")
	}
	return claims, nil
}
