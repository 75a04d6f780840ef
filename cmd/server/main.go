package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"timeclock_backend/internal/config"
	"timeclock_backend/internal/database"
	"timeclock_backend/internal/reports"
	"timeclock_backend/internal/router"
	"timeclock_backend/internal/services"
	"timeclock_backend/internal/telemetry"
	"timeclock_backend/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.InitLogger("info", true)
		utils.LogError(err, "Failed to load configuration")
		os.Exit(1)
	}

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "timeclock-backend", cfg.OTelEndpoint)
	if err != nil {
		utils.LogError(err, "Failed to set up tracing")
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		utils.LogError(err, "Invalid TIMEZONE")
		os.Exit(1)
	}

	// Initialize Database
	db, err := database.Open(ctx, cfg.DBDriver, cfg.DatabaseDSN())
	if err != nil {
		utils.LogError(err, "Failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		utils.LogError(err, "Failed to apply migrations")
		os.Exit(1)
	}
	utils.LogInfo("Database initialized", map[string]interface{}{"driver": cfg.DBDriver})

	tokens, err := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		utils.LogError(err, "Failed to create token manager")
		os.Exit(1)
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(utils.GinLogger(), gin.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, db, router.Options{
		Tokens:   tokens,
		Settings: services.Settings{Location: loc, DefaultWorkload: cfg.DefaultWorkloadHours},
		Clock:    services.SystemClock(),
		IDs:      services.NewULIDGen(),
		Sheets:   reports.NewTimesheetWriter(loc, cfg.Language()),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "timezone": cfg.Timezone})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.LogError(err, "Failed to start server")
			stop()
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		utils.LogError(err, "Tracer shutdown failed")
	}
}
