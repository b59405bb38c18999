package middleware

import (
	"strings"
	"time"

	"crawler-middleware/internal/logging"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// TimeoutConfig bounds handler execution. Health probes are skipped so they
// keep answering while the store is slow.
func TimeoutConfig(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/health")
		},
		Timeout:      timeout,
		ErrorMessage: `{"error":"timeout","message":"Request timed out"}`,
		OnTimeoutRouteErrorHandler: func(err error, c echo.Context) {
			logging.GetGlobalLogger().WithError(err).Warn("Handler finished after timeout", map[string]interface{}{
				"path": c.Path(),
			})
		},
	})
}
