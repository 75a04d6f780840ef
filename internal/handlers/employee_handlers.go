package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"timeclock_backend/internal/models"
	"timeclock_backend/internal/services"
	"timeclock_backend/pkg/utils"
)

// EmployeeHandler holds the employee service.
type EmployeeHandler struct {
	employeeService services.EmployeeService
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(es services.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employeeService: es}
}

// CreateEmployee registers a new employee.
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateEmployee")
		return
	}

	employee, err := h.employeeService.Create(c.Request.Context(), identity, req)
	if err != nil {
		respondServiceError(c, err, "CreateEmployee: Error from employeeService.Create", "Failed to create employee.")
		return
	}
	c.JSON(http.StatusCreated, employee)
}

// GetEmployees lists employees, optionally filtered by the active flag.
func (h *EmployeeHandler) GetEmployees(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var active *bool
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "active must be true or false")
			return
		}
		active = &v
	}

	employees, err := h.employeeService.List(c.Request.Context(), identity, active)
	if err != nil {
		respondServiceError(c, err, "GetEmployees: Error from employeeService.List", "Failed to fetch employees.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": employees, "total": len(employees)})
}

// GetEmployeeByID returns one employee.
func (h *EmployeeHandler) GetEmployeeByID(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid employee ID format.", err.Error()))
		return
	}

	employee, err := h.employeeService.Get(c.Request.Context(), identity, id)
	if err != nil {
		respondServiceError(c, err, "GetEmployeeByID: Error from employeeService.Get", "Failed to fetch employee.")
		return
	}
	c.JSON(http.StatusOK, employee)
}

// DeactivateEmployee marks an employee inactive.
func (h *EmployeeHandler) DeactivateEmployee(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid employee ID format.", err.Error()))
		return
	}

	employee, err := h.employeeService.Deactivate(c.Request.Context(), identity, id)
	if err != nil {
		respondServiceError(c, err, "DeactivateEmployee: Error from employeeService.Deactivate", "Failed to deactivate employee.")
		return
	}
	c.JSON(http.StatusOK, employee)
}

// UpdateEmployee changes name, workload or active flag.
func (h *EmployeeHandler) UpdateEmployee(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid employee ID format.", err.Error()))
		return
	}

	var req models.UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateEmployee")
		return
	}

	employee, err := h.employeeService.Update(c.Request.Context(), identity, id, req)
	if err != nil {
		respondServiceError(c, err, "UpdateEmployee: Error from employeeService.Update", "Failed to update employee.")
		return
	}
	c.JSON(http.StatusOK, employee)
}

// ResetPassword sets the password of an employee the caller manages.
func (h *EmployeeHandler) ResetPassword(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid employee ID format.", err.Error()))
		return
	}
	h.setPassword(c, identity, id)
}

// ChangeOwnPassword changes the caller's password.
func (h *EmployeeHandler) ChangeOwnPassword(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	h.setPassword(c, identity, identity.EmployeeID)
}

func (h *EmployeeHandler) setPassword(c *gin.Context, identity models.Identity, id int64) {
	var req models.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "SetPassword")
		return
	}

	if err := h.employeeService.SetPassword(c.Request.Context(), identity, id, req); err != nil {
		respondServiceError(c, err, "SetPassword: Error from employeeService.SetPassword", "Failed to set password.")
		return
	}
	c.Status(http.StatusNoContent)
}
