package middleware

import (
	"net/http"
	"time"

	"crawler-middleware/pkg/models"
	"crawler-middleware/pkg/utils"

	"github.com/labstack/echo/v4"
)

// DefaultBodyLimit caps request bodies at 1MB
const DefaultBodyLimit int64 = 1024 * 1024

// RequestValidation tags every request with an ID and rejects bodies larger
// than bodyLimit bytes. An incoming X-Request-ID header is kept.
func RequestValidation(bodyLimit int64) echo.MiddlewareFunc {
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyLimit
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = utils.GenerateRequestID()
			}
			c.Set("request_id", requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			if c.Request().ContentLength > bodyLimit {
				return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
					Error:     "request_too_large",
					Message:   "Request body too large",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}

			// chunked bodies carry no length up front
			c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, bodyLimit)

			return next(c)
		}
	}
}
