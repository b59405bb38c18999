// Package storage persists companies, job postings and benefits.
//
// All reads and writes go through a Tx obtained from Store.WithTx. Lookups keyed
// on a nil name or URL never match, mirroring SQL "= NULL" semantics.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crawler-middleware/internal/config"
)

// ErrNotFound is returned when no row matches a lookup.
var ErrNotFound = errors.New("record not found")

// Company is a row of the company table
type Company struct {
	CompanyID   uuid.UUID
	CompanyName *string
	Location    *string
	Description *string
	URL         *string
}

// JobPosting is a row of the job_posting table
type JobPosting struct {
	JobID           uuid.UUID
	CompanyID       *uuid.UUID
	JobTitle        *string
	Description     *string
	Salary          *int
	PayPeriod       *string
	WorkType        *string
	ExperienceLevel *string
	Location        *string
	Applies         *int
	ListedTime      *time.Time
	Currency        *string
	Platform        *string
	URL             *string
	CrawledTime     time.Time
}

// Benefit is a row of the benefit table
type Benefit struct {
	ID       int64
	JobID    uuid.UUID
	Type     *string
	Inferred *string
}

// Tx is the transactional scope every primitive runs in
type Tx interface {
	GetCompany(ctx context.Context, id uuid.UUID) (*Company, error)
	FindCompanyByName(ctx context.Context, name *string) (*Company, error)
	InsertCompany(ctx context.Context, c *Company) error
	UpdateCompany(ctx context.Context, c *Company) error
	DeleteCompany(ctx context.Context, id uuid.UUID) error
	CountCompanies(ctx context.Context) (int64, error)

	GetJobPosting(ctx context.Context, id uuid.UUID) (*JobPosting, error)
	FindJobPostingByURL(ctx context.Context, url *string) (*JobPosting, error)
	InsertJobPosting(ctx context.Context, j *JobPosting) error
	UpdateJobPosting(ctx context.Context, j *JobPosting) error
	DeleteJobPosting(ctx context.Context, id uuid.UUID) error
	DeleteJobPostingsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error)
	CountJobPostings(ctx context.Context) (int64, error)

	GetBenefit(ctx context.Context, id int64) (*Benefit, error)
	// InsertBenefit assigns b.ID from the store's sequence
	InsertBenefit(ctx context.Context, b *Benefit) error
	DeleteBenefit(ctx context.Context, id int64) error
	DeleteBenefitsByJob(ctx context.Context, jobID uuid.UUID) (int64, error)
	CountBenefits(ctx context.Context) (int64, error)
}

// Store owns the connection to the datastore
type Store interface {
	// WithTx runs fn inside one transaction. The transaction is committed
	// when fn returns nil and rolled back otherwise, including on panic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// EnsureSchema creates the tables if they are absent
	EnsureSchema(ctx context.Context) error

	Ping(ctx context.Context) error
	Close()

	// Driver names the implementation, e.g. "postgres"
	Driver() string
}

// Open creates the store selected by cfg.Database.Driver
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Database.Driver {
	case "postgres", "":
		return NewPostgresStore(ctx, PostgresConfig{
			URL:            cfg.Database.URL,
			MaxConns:       cfg.Database.MaxConns,
			MinConns:       cfg.Database.MinConns,
			ConnectTimeout: cfg.Database.ConnectTimeout,
		})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}
