package handlers

import (
	"net/http"

	"crawler-middleware/internal/logging"
	"crawler-middleware/pkg/models"

	"github.com/labstack/echo/v4"
)

// StatsHandler returns row counts for every table
func StatsHandler(svc CrawlerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestID(c))

		stats, err := svc.Stats(c.Request().Context())
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

// RootHandler answers GET / with the service banner
func RootHandler(version string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, models.RootResponse{
			Message: "Crawler Middleware API is running",
			Service: "crawler-middleware",
			Version: version,
			Status:  "running",
		})
	}
}
