package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timeclock_backend/internal/models"
	"timeclock_backend/internal/services"
)

// CorrectionHandler serves correction requests.
type CorrectionHandler struct {
	correctionService services.CorrectionService
}

// NewCorrectionHandler creates a new CorrectionHandler.
func NewCorrectionHandler(cs services.CorrectionService) *CorrectionHandler {
	return &CorrectionHandler{correctionService: cs}
}

// RequestChange submits a correction request for the caller.
func (h *CorrectionHandler) RequestChange(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var input models.ChangeRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err, "RequestChange")
		return
	}

	request, err := h.correctionService.Submit(c.Request.Context(), identity, input)
	if err != nil {
		respondServiceError(c, err, "RequestChange: Error from correctionService.Submit", "Failed to submit correction request.")
		return
	}
	c.JSON(http.StatusCreated, request)
}

// MyRequests lists the caller's own requests.
func (h *CorrectionHandler) MyRequests(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	requests, err := h.correctionService.ListForEmployee(c.Request.Context(), identity)
	if err != nil {
		respondServiceError(c, err, "MyRequests: Error from correctionService.ListForEmployee", "Failed to fetch requests.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests, "total": len(requests)})
}

// ManagerRequests lists the requests of the manager's company, split by state.
func (h *CorrectionHandler) ManagerRequests(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	inbox, err := h.correctionService.ListForManager(c.Request.Context(), identity)
	if err != nil {
		respondServiceError(c, err, "ManagerRequests: Error from correctionService.ListForManager", "Failed to fetch requests.")
		return
	}
	c.JSON(http.StatusOK, inbox)
}

// UpdateRequestStatus approves or rejects a pending request.
func (h *CorrectionHandler) UpdateRequestStatus(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var input models.ProcessRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err, "UpdateRequestStatus")
		return
	}

	request, err := h.correctionService.Process(c.Request.Context(), c.Param("id"), input.Decision, identity, input.Comment)
	if err != nil {
		respondServiceError(c, err, "UpdateRequestStatus: Error from correctionService.Process", "Failed to update request.")
		return
	}
	c.JSON(http.StatusOK, request)
}
