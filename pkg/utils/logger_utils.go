package utils

import (
	"io"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger initializes the global zerolog logger.
// pretty switches to the human-readable ConsoleWriter used during development.
func InitLogger(level string, pretty bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var output io.Writer = os.Stdout
	if pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()

	log.Info().Str("level", lvl.String()).Msg("Logger initialized")
}

// GinLogger is a middleware for Gin that logs requests using zerolog.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		tStart := time.Now()

		c.Next()

		var event *zerolog.Event
		latency := time.Since(tStart)
		statusCode := c.Writer.Status()

		if statusCode >= 500 {
			event = log.Error()
		} else if statusCode >= 400 {
			event = log.Warn()
		} else {
			event = log.Info()
		}

		if email, ok := c.Get("userEmail"); ok {
			event = event.Interface("user_email", email)
		}

		event.Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status_code", statusCode).
			Str("client_ip", c.ClientIP()).
			Str("latency", latency.String()).
			Str("user_agent", c.Request.UserAgent()).
			Msg("Request processed")
	}
}

// LogError is a helper to log an error with zerolog.
func LogError(err error, message string) {
	if err != nil {
		log.Error().Err(err).Msg(message)
	}
}

// LogWarn logs an expected failure (validation, conflicts) below error level.
func LogWarn(err error, message string) {
	if err != nil {
		log.Warn().Err(err).Msg(message)
	}
}

// LogInfo is a helper to log an informational message.
func LogInfo(message string, fields ...map[string]interface{}) {
	event := log.Info()
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(message)
}

// LogDebug is a helper to log a debug message.
func LogDebug(message string, fields ...map[string]interface{}) {
	event := log.Debug()
	for _, f := range fields {
		event = event.Fields(f)
	}
	event.Msg(message)
}
