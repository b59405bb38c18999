package handlers

import (
	"net/http"

	"crawler-middleware/internal/logging"
	"crawler-middleware/pkg/models"

	"github.com/labstack/echo/v4"
)

func DepositBenefitHandler(svc CrawlerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestID(c))

		var req models.BenefitRequest
		if err := bindAndValidate(c, &req); err != nil {
			return respondError(c, logger, err)
		}

		resp, err := svc.DepositBenefit(c.Request().Context(), req)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func DeleteBenefitHandler(svc CrawlerService) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.LogWithRequestID(requestID(c))

		id, err := intParam(c, "id", "Benefit")
		if err != nil {
			return respondError(c, logger, err)
		}

		resp, err := svc.DeleteBenefit(c.Request().Context(), id)
		if err != nil {
			return respondError(c, logger, err)
		}
		return c.JSON(http.StatusOK, resp)
	}
}
