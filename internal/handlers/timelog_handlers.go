package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"timeclock_backend/internal/models"
	"timeclock_backend/internal/reports"
	"timeclock_backend/internal/services"
	"timeclock_backend/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TimeLogHandler serves punches, records and exports.
type TimeLogHandler struct {
	punchService    services.PunchService
	editService     services.ManualEditService
	reportService   services.ReportService
	employeeService services.EmployeeService
	clock           services.Clock
	sheets          *reports.TimesheetWriter
}

// NewTimeLogHandler creates a new TimeLogHandler.
func NewTimeLogHandler(
	ps services.PunchService,
	es services.ManualEditService,
	rs services.ReportService,
	emps services.EmployeeService,
	clock services.Clock,
	sheets *reports.TimesheetWriter,
) *TimeLogHandler {
	return &TimeLogHandler{
		punchService:    ps,
		editService:     es,
		reportService:   rs,
		employeeService: emps,
		clock:           clock,
		sheets:          sheets,
	}
}

// Punch records the caller's next punch of the day.
func (h *TimeLogHandler) Punch(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	record, slot, err := h.punchService.RegisterPunch(c.Request.Context(), identity.EmployeeID, h.clock.Now())
	if err != nil {
		respondServiceError(c, err, "Punch: Error from punchService.RegisterPunch", "Failed to register punch.")
		return
	}
	c.JSON(http.StatusOK, models.PunchResponse{Record: record, Slot: slot})
}

// Today returns the caller's record for the current day.
func (h *TimeLogHandler) Today(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	record, err := h.reportService.Today(c.Request.Context(), identity.EmployeeID, h.clock.Now())
	if err != nil {
		respondServiceError(c, err, "Today: Error from reportService.Today", "Failed to fetch today's record.")
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListTimeLogs lists the records of the caller or of an employee they manage.
func (h *TimeLogHandler) ListTimeLogs(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	employee, err := h.employeeService.ResolveViewable(c.Request.Context(), identity, c.Query("employee_email"))
	if err != nil {
		respondServiceError(c, err, "ListTimeLogs: Error resolving employee", "Failed to fetch time logs.")
		return
	}

	dateRange := models.DateRange{Start: c.Query("start"), End: c.Query("end")}
	records, err := h.reportService.ListByEmployee(c.Request.Context(), employee.ID, dateRange)
	if err != nil {
		respondServiceError(c, err, "ListTimeLogs: Error from reportService.ListByEmployee", "Failed to fetch time logs.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "total": len(records)})
}

// Export returns a timesheet as JSON or as an xlsx download.
func (h *TimeLogHandler) Export(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "json"))
	if format != "json" && format != "xlsx" {
		utils.RespondValidationFailed(c, "format must be json or xlsx")
		return
	}

	employee, err := h.employeeService.ResolveViewable(c.Request.Context(), identity, c.Query("employee_email"))
	if err != nil {
		respondServiceError(c, err, "Export: Error resolving employee", "Failed to export time logs.")
		return
	}

	dateRange := models.DateRange{Start: c.Query("start"), End: c.Query("end")}
	sheet, err := h.reportService.Timesheet(c.Request.Context(), employee, dateRange)
	if err != nil {
		respondServiceError(c, err, "Export: Error from reportService.Timesheet", "Failed to export time logs.")
		return
	}

	if format == "json" {
		c.JSON(http.StatusOK, sheet)
		return
	}

	var buf bytes.Buffer
	if err := h.sheets.Write(&buf, sheet, h.clock.Now()); err != nil {
		respondServiceError(c, err, "Export: Error writing workbook", "Failed to export time logs.")
		return
	}
	filename := fmt.Sprintf("timesheet_%s_%s_%s.xlsx", strings.ReplaceAll(employee.Email, "@", "_at_"), dateRange.Start, dateRange.End)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ManualEdit applies a manager edit to a record by id.
func (h *TimeLogHandler) ManualEdit(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	recordID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid time log ID format.", err.Error()))
		return
	}

	var req models.ManualEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "ManualEdit")
		return
	}
	edit, err := h.editService.ParseEdit(req, "")
	if err != nil {
		respondServiceError(c, err, "ManualEdit: Invalid edit", "Failed to edit time log.")
		return
	}

	record, err := h.editService.ApplyManagerEdit(c.Request.Context(), recordID, edit, identity, req.Reason)
	if err != nil {
		respondServiceError(c, err, "ManualEdit: Error from editService.ApplyManagerEdit", "Failed to edit time log.")
		return
	}
	c.JSON(http.StatusOK, record)
}

// ManualEditByDate applies a manager edit to an employee's day, creating the record if needed.
func (h *TimeLogHandler) ManualEditByDate(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.ManualEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "ManualEditByDate")
		return
	}

	employee, err := h.employeeService.ResolveManaged(c.Request.Context(), identity, c.Param("email"))
	if err != nil {
		respondServiceError(c, err, "ManualEditByDate: Error resolving employee", "Failed to edit time log.")
		return
	}

	workDate := c.Param("date")
	edit, err := h.editService.ParseEdit(req, workDate)
	if err != nil {
		respondServiceError(c, err, "ManualEditByDate: Invalid edit", "Failed to edit time log.")
		return
	}

	record, err := h.editService.ApplyManagerEditForDate(c.Request.Context(), employee.ID, workDate, edit, identity, req.Reason)
	if err != nil {
		respondServiceError(c, err, "ManualEditByDate: Error from editService.ApplyManagerEditForDate", "Failed to edit time log.")
		return
	}
	c.JSON(http.StatusOK, record)
}

// Recalculate recomputes the balances of an employee over a range.
func (h *TimeLogHandler) Recalculate(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req models.RecalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Recalculate")
		return
	}
	if utils.IsEmpty(req.EmployeeEmail) {
		utils.RespondValidationFailed(c, "employee_email is required")
		return
	}

	employee, err := h.employeeService.ResolveManaged(c.Request.Context(), identity, req.EmployeeEmail)
	if err != nil {
		respondServiceError(c, err, "Recalculate: Error resolving employee", "Failed to recalculate balances.")
		return
	}

	updated, err := h.editService.Recalculate(c.Request.Context(), employee.ID, models.DateRange{Start: req.Start, End: req.End}, identity)
	if err != nil {
		respondServiceError(c, err, "Recalculate: Error from editService.Recalculate", "Failed to recalculate balances.")
		return
	}
	c.JSON(http.StatusOK, models.RecalculateResult{Updated: updated})
}
