package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"crawler-middleware/internal/api/validation"
	"crawler-middleware/internal/logging"
	"crawler-middleware/pkg/models"
	"crawler-middleware/pkg/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var validate = validation.New()

// CrawlerService is the set of operations the HTTP handlers expose
type CrawlerService interface {
	Check(ctx context.Context, req models.URLCheckRequest) (*models.URLCheckResponse, error)
	UpsertCompany(ctx context.Context, req models.CompanyRequest) (*models.CompanyResponse, error)
	DeleteCompany(ctx context.Context, id uuid.UUID) (*models.DeleteResponse, error)
	UpsertJobPosting(ctx context.Context, req models.JobPostingRequest) (*models.JobPostingResponse, error)
	DeleteJobPosting(ctx context.Context, id uuid.UUID) (*models.DeleteResponse, error)
	DepositBenefit(ctx context.Context, req models.BenefitRequest) (*models.BenefitResponse, error)
	DeleteBenefit(ctx context.Context, id int64) (*models.DeleteResponse, error)
	Stats(ctx context.Context) (*models.StatsResponse, error)
	Ready(ctx context.Context) error
}

// requestID returns the ID assigned by the request middleware, or a fresh one
func requestID(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok && id != "" {
		return id
	}
	return utils.GenerateRequestID()
}

// bindAndValidate decodes the JSON body into req and runs struct validation
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return utils.NewBadRequestError("Invalid request format")
	}
	if err := validate.Struct(req); err != nil {
		return utils.NewValidationError(validation.Describe(err))
	}
	return nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, utils.NewBadRequestError("Invalid " + name + ": must be a UUID")
	}
	return id, nil
}

// intParam parses an integer path id. A well-formed number too large for
// int64 cannot name a row, so it is reported as resource not found.
func intParam(c echo.Context, name, resource string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, utils.NewNotFoundError(resource + " not found")
	}
	if err != nil {
		return 0, utils.NewBadRequestError("Invalid " + name + ": must be an integer")
	}
	return id, nil
}

// respondError writes err as an ErrorResponse. Errors that are not a
// *utils.CustomError are reported as internal errors.
func respondError(c echo.Context, logger logging.Logger, err error) error {
	ce, ok := utils.AsCustomError(err)
	if !ok {
		ce = utils.NewPersistenceError("processing request", err)
	}

	fields := map[string]interface{}{
		"error_kind":  string(ce.Kind),
		"status_code": ce.Code,
	}
	if ce.Code >= http.StatusInternalServerError {
		logger.WithError(err).Error("Request failed", fields)
	} else {
		logger.Debug(ce.Message, fields)
	}

	return c.JSON(ce.Code, models.ErrorResponse{
		Error:     string(ce.Kind),
		Message:   ce.Message,
		Detail:    ce.Detail,
		RequestID: requestID(c),
		Timestamp: time.Now(),
	})
}
