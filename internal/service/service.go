// Package service implements the deduplicating upsert and cascading delete
// operations the crawler calls.
//
// Every operation runs in exactly one storage transaction. The transaction is
// detached from the caller's cancellation and bounded by the configured
// timeout, so a client that disconnects mid-request never leaves a partial
// write behind.
//
// Upserts are read-then-write without locking. Two concurrent deposits of the
// same company name or job URL can both miss the lookup and both insert; the
// store's isolation level decides the outcome.
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"crawler-middleware/internal/logging"
	"crawler-middleware/internal/storage"
	"crawler-middleware/pkg/models"
	"crawler-middleware/pkg/utils"
)

// Response messages
const (
	MsgCompanyCreated = "Company created successfully"
	MsgCompanyUpdated = "Company updated successfully"
	MsgCompanyDeleted = "Company and related data deleted successfully"
	MsgJobCreated     = "Job posting created successfully"
	MsgJobUpdated     = "Job posting updated successfully"
	MsgJobDeleted     = "Job posting and related benefits deleted successfully"
	MsgBenefitCreated = "Benefit created successfully"
	MsgBenefitDeleted = "Benefit deleted successfully"

	MsgCompanyNotFound       = "Company not found"
	MsgCompanyRequiredForJob = "Company not found. Please create company first."
	MsgJobNotFound           = "Job posting not found"
	MsgJobRequiredForBenefit = "Job posting not found. Please create job first."
	MsgBenefitNotFound       = "Benefit not found"
)

const defaultTransactionTimeout = 30 * time.Second

// Service holds the explicit storage handle shared by all requests
type Service struct {
	store     storage.Store
	logger    logging.Logger
	now       func() time.Time
	txTimeout time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source used for crawl timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithTxTimeout bounds every transaction
func WithTxTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.txTimeout = timeout
		}
	}
}

// WithLogger sets the logger; the global logger is used otherwise
func WithLogger(logger logging.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service over store
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		now:       time.Now,
		txTimeout: defaultTransactionTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.GetGlobalLogger()
	}
	s.logger = s.logger.WithField("component", "service")
	return s
}

// idValue dereferences an optional id; a missing id matches no row
func idValue(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}

// timestamp returns the current instant at the store's precision
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// withTx runs fn in one transaction. NotFound and PreconditionFailed errors
// raised by fn pass through after rollback; anything else becomes a
// persistence error naming the operation.
func (s *Service) withTx(ctx context.Context, operation string, fn func(ctx context.Context, tx storage.Tx) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.txTimeout)
	defer cancel()

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		return fn(ctx, tx)
	})
	if err == nil {
		return nil
	}

	if utils.IsKind(err, utils.KindNotFound) || utils.IsKind(err, utils.KindPreconditionFailed) {
		return err
	}

	perr := utils.NewPersistenceError(operation, err)
	s.logger.WithFields(map[string]interface{}{
		"operation": operation,
		"error":     err.Error(),
		"stack":     string(perr.Stack()),
	}).Error("Transaction rolled back")
	return perr
}

// Check reports whether url has already been stored. The comparison is
// byte-exact; no normalization is applied.
func (s *Service) Check(ctx context.Context, req models.URLCheckRequest) (*models.URLCheckResponse, error) {
	url := utils.StringValue(req.URL)
	resp := &models.URLCheckResponse{URL: url}

	err := s.withTx(ctx, "checking url", func(ctx context.Context, tx storage.Tx) error {
		job, err := tx.FindJobPostingByURL(ctx, &url)
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		resp.IsCrawled = true
		resp.JobID = &job.JobID
		crawled := job.CrawledTime
		resp.CrawledTime = &crawled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UpsertCompany updates the company with the same name or inserts a new one.
// The name is never rewritten. A nil name never matches, so each such
// request inserts a fresh row.
func (s *Service) UpsertCompany(ctx context.Context, req models.CompanyRequest) (*models.CompanyResponse, error) {
	var resp *models.CompanyResponse

	err := s.withTx(ctx, "depositing company", func(ctx context.Context, tx storage.Tx) error {
		existing, err := tx.FindCompanyByName(ctx, req.CompanyName)
		switch {
		case err == nil:
			existing.Location = req.Location
			existing.Description = req.Description
			existing.URL = req.URL
			if err := tx.UpdateCompany(ctx, existing); err != nil {
				return err
			}
			resp = &models.CompanyResponse{CompanyID: existing.CompanyID, Success: true, Message: MsgCompanyUpdated}

		case errors.Is(err, storage.ErrNotFound):
			company := &storage.Company{
				CompanyID:   uuid.New(),
				CompanyName: req.CompanyName,
				Location:    req.Location,
				Description: req.Description,
				URL:         req.URL,
			}
			if err := tx.InsertCompany(ctx, company); err != nil {
				return err
			}
			resp = &models.CompanyResponse{CompanyID: company.CompanyID, Success: true, Message: MsgCompanyCreated}

		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"company_id":   resp.CompanyID.String(),
		"company_name": utils.StringValue(req.CompanyName),
		"result":       resp.Message,
	}).Debug("Company deposited")
	return resp, nil
}

// DeleteCompany removes the company and every job posting that references
// it. Benefits of those job postings are left in place.
func (s *Service) DeleteCompany(ctx context.Context, id uuid.UUID) (*models.DeleteResponse, error) {
	var removedJobs int64

	err := s.withTx(ctx, "deleting company", func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetCompany(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return utils.NewNotFoundError(MsgCompanyNotFound)
			}
			return err
		}

		n, err := tx.DeleteJobPostingsByCompany(ctx, id)
		if err != nil {
			return err
		}
		removedJobs = n

		return tx.DeleteCompany(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"company_id":   id.String(),
		"removed_jobs": removedJobs,
	}).Info("Company deleted")
	return &models.DeleteResponse{Success: true, Message: MsgCompanyDeleted}, nil
}

// UpsertJobPosting updates the job posting with the same URL or inserts a new
// one. The owning company must exist. Every mutable field, company_id
// included, is overwritten and crawled_time is reset to now.
func (s *Service) UpsertJobPosting(ctx context.Context, req models.JobPostingRequest) (*models.JobPostingResponse, error) {
	var resp *models.JobPostingResponse

	companyID := idValue(req.CompanyID)

	err := s.withTx(ctx, "depositing job", func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetCompany(ctx, companyID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return utils.NewPreconditionFailedError(MsgCompanyRequiredForJob)
			}
			return err
		}

		now := s.timestamp()

		existing, err := tx.FindJobPostingByURL(ctx, req.URL)
		switch {
		case err == nil:
			applyJobFields(existing, req)
			existing.CompanyID = &companyID
			existing.CrawledTime = now
			if err := tx.UpdateJobPosting(ctx, existing); err != nil {
				return err
			}
			resp = &models.JobPostingResponse{
				JobID:       existing.JobID,
				Success:     true,
				Message:     MsgJobUpdated,
				CrawledTime: now,
			}

		case errors.Is(err, storage.ErrNotFound):
			job := &storage.JobPosting{
				JobID:       uuid.New(),
				CompanyID:   &companyID,
				URL:         req.URL,
				CrawledTime: now,
			}
			applyJobFields(job, req)
			if err := tx.InsertJobPosting(ctx, job); err != nil {
				return err
			}
			resp = &models.JobPostingResponse{
				JobID:       job.JobID,
				Success:     true,
				Message:     MsgJobCreated,
				CrawledTime: now,
			}

		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"job_id":     resp.JobID.String(),
		"company_id": companyID.String(),
		"result":     resp.Message,
	}).Debug("Job posting deposited")
	return resp, nil
}

// applyJobFields copies the mutable descriptive fields of req onto job
func applyJobFields(job *storage.JobPosting, req models.JobPostingRequest) {
	job.JobTitle = req.JobTitle
	job.Description = req.Description
	job.Salary = req.Salary
	job.PayPeriod = req.PayPeriod
	job.WorkType = req.WorkType
	job.ExperienceLevel = req.ExperienceLevel
	job.Location = req.Location
	job.Applies = req.Applies
	job.Currency = req.Currency
	job.Platform = req.Platform

	job.ListedTime = nil
	if req.ListedTime != nil {
		listed := req.ListedTime.UTC()
		job.ListedTime = &listed
	}
}

// DeleteJobPosting removes the job posting and all of its benefits
func (s *Service) DeleteJobPosting(ctx context.Context, id uuid.UUID) (*models.DeleteResponse, error) {
	var removedBenefits int64

	err := s.withTx(ctx, "deleting job", func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetJobPosting(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return utils.NewNotFoundError(MsgJobNotFound)
			}
			return err
		}

		n, err := tx.DeleteBenefitsByJob(ctx, id)
		if err != nil {
			return err
		}
		removedBenefits = n

		return tx.DeleteJobPosting(ctx, id)
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"job_id":           id.String(),
		"removed_benefits": removedBenefits,
	}).Info("Job posting deleted")
	return &models.DeleteResponse{Success: true, Message: MsgJobDeleted}, nil
}

// DepositBenefit always inserts a new benefit for an existing job posting
func (s *Service) DepositBenefit(ctx context.Context, req models.BenefitRequest) (*models.BenefitResponse, error) {
	benefit := &storage.Benefit{
		JobID:    idValue(req.JobID),
		Type:     req.Type,
		Inferred: req.Inferred,
	}

	err := s.withTx(ctx, "depositing benefit", func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetJobPosting(ctx, benefit.JobID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return utils.NewPreconditionFailedError(MsgJobRequiredForBenefit)
			}
			return err
		}
		return tx.InsertBenefit(ctx, benefit)
	})
	if err != nil {
		return nil, err
	}

	return &models.BenefitResponse{BenefitID: benefit.ID, Success: true, Message: MsgBenefitCreated}, nil
}

// DeleteBenefit removes a single benefit. Ids outside the SERIAL range
// cannot exist and are reported as not found.
func (s *Service) DeleteBenefit(ctx context.Context, id int64) (*models.DeleteResponse, error) {
	if id < math.MinInt32 || id > math.MaxInt32 {
		return nil, utils.NewNotFoundError(MsgBenefitNotFound)
	}

	err := s.withTx(ctx, "deleting benefit", func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.GetBenefit(ctx, id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return utils.NewNotFoundError(MsgBenefitNotFound)
			}
			return err
		}
		return tx.DeleteBenefit(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &models.DeleteResponse{Success: true, Message: MsgBenefitDeleted}, nil
}

// Stats counts every row of each table
func (s *Service) Stats(ctx context.Context) (*models.StatsResponse, error) {
	var stats models.StatsResponse

	err := s.withTx(ctx, "collecting stats", func(ctx context.Context, tx storage.Tx) error {
		var err error
		if stats.TotalJobPostings, err = tx.CountJobPostings(ctx); err != nil {
			return err
		}
		if stats.TotalCompanies, err = tx.CountCompanies(ctx); err != nil {
			return err
		}
		if stats.TotalBenefits, err = tx.CountBenefits(ctx); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Ready reports whether the store answers
func (s *Service) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
