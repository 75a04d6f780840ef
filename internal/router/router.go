package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timeclock_backend/internal/database"
	"timeclock_backend/internal/handlers"
	"timeclock_backend/internal/middleware"
	"timeclock_backend/internal/reports"
	"timeclock_backend/internal/repositories"
	"timeclock_backend/internal/services"
	"timeclock_backend/pkg/utils"
)

// Options carries everything Setup needs besides the database.
type Options struct {
	Tokens   *utils.TokenManager
	Settings services.Settings
	Clock    services.Clock
	IDs      services.IDGen
	Sheets   *reports.TimesheetWriter
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *database.DB, opts Options) {
	if opts.Clock == nil {
		opts.Clock = services.SystemClock()
	}
	if opts.IDs == nil {
		opts.IDs = services.NewULIDGen()
	}
	if opts.Sheets == nil {
		opts.Sheets = reports.NewTimesheetWriter(opts.Settings.Location, reports.DefaultLanguage)
	}

	// Repositories
	employeeRepo := repositories.NewEmployeeRepository(db)
	timeLogRepo := repositories.NewTimeLogRepository(db)
	correctionRepo := repositories.NewCorrectionRepository(db)

	// Services
	employeeService := services.NewEmployeeService(db, employeeRepo, opts.Clock, opts.Settings)
	authService := services.NewAuthService(employeeRepo, opts.Tokens)
	punchService := services.NewPunchService(db, employeeRepo, timeLogRepo, opts.Settings)
	editService := services.NewManualEditService(db, timeLogRepo, employeeService, opts.Clock, opts.Settings)
	correctionService := services.NewCorrectionService(db, correctionRepo, opts.Clock, opts.IDs, opts.Settings)
	reportService := services.NewReportService(employeeRepo, timeLogRepo, db, opts.Settings)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	timeLogHandler := handlers.NewTimeLogHandler(punchService, editService, reportService, employeeService, opts.Clock, opts.Sheets)
	correctionHandler := handlers.NewCorrectionHandler(correctionService)
	employeeHandler := handlers.NewEmployeeHandler(employeeService)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware(opts.Tokens, employeeService))
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler, employeeHandler)
		SetupTimeLogRoutes(authenticated, timeLogHandler)
		SetupEmployeeRequestRoutes(authenticated, correctionHandler)
		SetupManagerRequestRoutes(authenticated, correctionHandler)
		SetupEmployeeRoutes(authenticated, employeeHandler, timeLogHandler)
	}
}

// SetupPublicAuthRoutes registers the routes that need no token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/login", authHandler.Login)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler, employeeHandler *handlers.EmployeeHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
	group.PUT("/password", employeeHandler.ChangeOwnPassword)
}
