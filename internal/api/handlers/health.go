package handlers

import (
	"context"
	"net/http"
	"time"

	"crawler-middleware/internal/logging"
	"crawler-middleware/pkg/models"

	"github.com/labstack/echo/v4"
)

// Version is reported by the root and health endpoints
const Version = "1.0.0"

var startTime = time.Now()

// Pinger is satisfied by anything that can report store availability
type Pinger interface {
	Ready(ctx context.Context) error
}

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	logging.LogWithRequestID(requestID(c)).Debug("Health check requested")

	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	})
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
	})
}

// ReadinessHandler reports ready only while the store answers a ping
func ReadinessHandler(p Pinger, timeout time.Duration) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestID(c))

		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		status, code, store := "ready", http.StatusOK, "ok"
		if err := p.Ready(ctx); err != nil {
			logger.WithError(err).Warn("Readiness check failed")
			status, code, store = "unavailable", http.StatusServiceUnavailable, "unreachable"
		}

		return c.JSON(code, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks: map[string]string{
				"api":   "ok",
				"store": store,
			},
		})
	}
}
