package handlers

import (
	"net/http"

	"crawler-middleware/internal/logging"
	"crawler-middleware/pkg/models"

	"github.com/labstack/echo/v4"
)

// DepositJobHandler creates or updates a job posting keyed on its URL
func DepositJobHandler(svc CrawlerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestID(c))

		var req models.JobPostingRequest
		if err := bindAndValidate(c, &req); err != nil {
			return respondError(c, logger, err)
		}

		resp, err := svc.UpsertJobPosting(c.Request().Context(), req)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// DeleteJobHandler removes a job posting and its benefits
func DeleteJobHandler(svc CrawlerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestID(c))

		id, err := uuidParam(c, "id")
		if err != nil {
			return respondError(c, logger, err)
		}

		resp, err := svc.DeleteJobPosting(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
