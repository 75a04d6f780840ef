package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"timeclock_backend/internal/models"
	"timeclock_backend/internal/services"
	"timeclock_backend/pkg/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextIdentity = "identity"
	ContextUserID   = "userID"
	ContextEmail    = "userEmail"
	ContextRole     = "userRole"
)

// IdentityLoader re-reads the caller from storage.
type IdentityLoader interface {
	LoadIdentity(ctx context.Context, employeeID int64) (*models.Identity, error)
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
// The token only names the employee; role and company come from the database on every request.
func AuthMiddleware(tokens *utils.TokenManager, identities IdentityLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", ""))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format. Use Bearer <token>", ""))
			return
		}

		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			utils.LogDebug("Rejected token", map[string]interface{}{"error": err.Error()})
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", ""))
			return
		}

		identity, err := identities.LoadIdentity(c.Request.Context(), claims.EmployeeID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				utils.LogWarn(err, "AuthMiddleware: identity lookup failed")
				utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Account is inactive or no longer exists", ""))
				return
			}
			if !errors.Is(err, context.Canceled) {
				utils.LogError(err, "AuthMiddleware: Error loading identity")
			}
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to authenticate request.", "Internal error"))
			return
		}

		c.Set(ContextIdentity, *identity)
		c.Set(ContextUserID, identity.EmployeeID)
		c.Set(ContextEmail, identity.Email)
		c.Set(ContextRole, string(identity.Role))

		c.Next()
	}
}

// RoleAuthMiddleware creates a Gin middleware for role-based authorization.
// It checks the role of the identity loaded by AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", ""))
			return
		}

		for _, r := range allowedRoles {
			if identity.Role == r {
				c.Next()
				return
			}
		}

		names := make([]string, len(allowedRoles))
		for i, r := range allowedRoles {
			names[i] = string(r)
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"You do not have permission to access this resource. Required roles: "+strings.Join(names, ", "), ""))
	}
}

// IdentityFrom returns the identity stored by AuthMiddleware.
func IdentityFrom(c *gin.Context) (models.Identity, bool) {
	raw, exists := c.Get(ContextIdentity)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := raw.(models.Identity)
	return identity, ok
}
