package handlers

import (
	"net/http"

	"crawler-middleware/internal/logging"
	"crawler-middleware/pkg/models"

	"github.com/labstack/echo/v4"
)

// DepositCompanyHandler creates or updates a company keyed on its name
func DepositCompanyHandler(svc CrawlerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestID(c))

		var req models.CompanyRequest
		if err := bindAndValidate(c, &req); err != nil {
			return respondError(c, logger, err)
		}

		resp, err := svc.UpsertCompany(c.Request().Context(), req)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// DeleteCompanyHandler removes a company and its job postings
func DeleteCompanyHandler(svc CrawlerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestID(c))

		id, err := uuidParam(c, "id")
		if err != nil {
			return respondError(c, logger, err)
		}

		resp, err := svc.DeleteCompany(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
