package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"timeclock_backend/internal/middleware"
	"timeclock_backend/internal/models"
	"timeclock_backend/internal/services"
	"timeclock_backend/pkg/utils"
)

// respondServiceError maps service errors onto the API error envelope.
// internalMessage is shown only for unexpected failures.
func respondServiceError(c *gin.Context, err error, op, internalMessage string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.LogWarn(err, op)
		utils.RespondValidationFailed(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Resource not found.", err.Error()))
	case errors.Is(err, services.ErrAlreadyComplete):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeAlreadyComplete, "All punches for today are already recorded.", ""))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidTransition, "Request has already been processed.", ""))
	case errors.Is(err, services.ErrConflict):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Record was changed by another request, try again.", ""))
	case errors.Is(err, services.ErrEmailExists):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Email already exists.", ""))
	case errors.Is(err, services.ErrUnauthorized):
		utils.LogWarn(err, op)
		// Never echo details: they could name another company's data.
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have permission to access this resource.", ""))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.LogWarn(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid email or password.", ""))
	default:
		utils.LogError(err, op)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, internalMessage, "Internal error"))
	}
}

func respondBindError(c *gin.Context, err error, op string) {
	utils.LogError(err, op+": Failed to bind JSON")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}

// currentIdentity returns the caller, writing a 401 when it is missing.
func currentIdentity(c *gin.Context) (models.Identity, bool) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing identity in context"))
	}
	return identity, ok
}
