package router

import (
	"github.com/gin-gonic/gin"

	"timeclock_backend/internal/handlers"
	"timeclock_backend/internal/middleware"
	"timeclock_backend/internal/models"
)

var managerRoles = []models.Role{models.RoleManager, models.RoleAdmin}

// SetupTimeLogRoutes sets up the punch, query and manual edit routes.
// Every role punches; edits and recalculation are manager only.
func SetupTimeLogRoutes(authenticatedGroup *gin.RouterGroup, timeLogHandler *handlers.TimeLogHandler) {
	timeLogRoutes := authenticatedGroup.Group("/time_logs")
	{
		timeLogRoutes.POST("/punch", timeLogHandler.Punch)
		timeLogRoutes.GET("/today", timeLogHandler.Today)
		timeLogRoutes.GET("", timeLogHandler.ListTimeLogs)
		timeLogRoutes.GET("/export", timeLogHandler.Export)
	}

	managerRoutes := authenticatedGroup.Group("/time_logs")
	managerRoutes.Use(middleware.RoleAuthMiddleware(managerRoles...))
	{
		managerRoutes.PUT("/:id/manual_edit", timeLogHandler.ManualEdit)
		managerRoutes.POST("/recalculate", timeLogHandler.Recalculate)
	}
}

// SetupEmployeeRequestRoutes sets up the routes an employee uses for their own requests.
func SetupEmployeeRequestRoutes(authenticatedGroup *gin.RouterGroup, correctionHandler *handlers.CorrectionHandler) {
	requestRoutes := authenticatedGroup.Group("/employee")
	{
		requestRoutes.POST("/request_change", correctionHandler.RequestChange)
		requestRoutes.GET("/requests", correctionHandler.MyRequests)
	}
}

// SetupManagerRequestRoutes sets up the review inbox.
func SetupManagerRequestRoutes(authenticatedGroup *gin.RouterGroup, correctionHandler *handlers.CorrectionHandler) {
	managerRoutes := authenticatedGroup.Group("/manager")
	managerRoutes.Use(middleware.RoleAuthMiddleware(managerRoles...))
	{
		managerRoutes.GET("/requests", correctionHandler.ManagerRequests)
		managerRoutes.PUT("/requests/:id/status", correctionHandler.UpdateRequestStatus)
	}
}

// SetupEmployeeRoutes sets up employee administration.
// Managers are limited to their own company by the service.
func SetupEmployeeRoutes(authenticatedGroup *gin.RouterGroup, employeeHandler *handlers.EmployeeHandler, timeLogHandler *handlers.TimeLogHandler) {
	employeeRoutes := authenticatedGroup.Group("/employees")
	employeeRoutes.Use(middleware.RoleAuthMiddleware(managerRoles...))
	{
		employeeRoutes.POST("", employeeHandler.CreateEmployee)
		employeeRoutes.GET("", employeeHandler.GetEmployees)
		employeeRoutes.GET("/:id", employeeHandler.GetEmployeeByID)
		employeeRoutes.PATCH("/:id", employeeHandler.UpdateEmployee)
		employeeRoutes.PATCH("/:id/deactivate", employeeHandler.DeactivateEmployee)
		employeeRoutes.POST("/:id/password", employeeHandler.ResetPassword)
		employeeRoutes.PUT("/:email/time_logs/:date/manual_edit", timeLogHandler.ManualEditByDate)
	}
}
