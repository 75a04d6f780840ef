package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timeclock_backend/internal/models"
	"timeclock_backend/internal/services"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login handles email + password login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Login")
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Login: Error from authService.Login", "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetCurrentUser returns the identity of the caller.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, identity)
}
