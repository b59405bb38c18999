package handlers

import (
	"net/http"

	"crawler-middleware/internal/logging"
	"crawler-middleware/pkg/models"

	"github.com/labstack/echo/v4"
)

// CheckHandler reports whether a URL has already been crawled
func CheckHandler(svc CrawlerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestID(c))

		var req models.URLCheckRequest
		if err := bindAndValidate(c, &req); err != nil {
			return respondError(c, logger, err)
		}

		resp, err := svc.Check(c.Request().Context(), req)
		if err != nil {
			return respondError(c, logger, err)
		}

		logger.Debug("URL checked", map[string]interface{}{
			"url":        resp.URL,
			"is_crawled": resp.IsCrawled,
		})
		return c.JSON(http.StatusOK, resp)
	}
}
