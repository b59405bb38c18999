package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig configures the pgx connection pool
type PostgresConfig struct {
	URL            string
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration
}

// PostgresStore is a Store backed by a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and verifies the connection
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.ConnectTimeout > 0 {
		poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	// BeginFunc rolls back when fn returns an error or panics
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgTx{tx: tx})
	})
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", int64(schemaLockKey)); err != nil {
			return fmt.Errorf("failed to acquire schema lock: %w", err)
		}
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *PostgresStore) Driver() string {
	return "postgres"
}

// pgTx implements Tx on top of a pgx transaction
type pgTx struct {
	tx pgx.Tx
}

const companyColumns = `company_id, company_name, location, description, url`

const jobPostingColumns = `job_id, company_id, job_title, description, salary, pay_period, work_type,
	experience_level, location, applies, listed_time, currency, platform, url, crawled_time`

const benefitColumns = `id, job_id, type, inferred`

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(&c.CompanyID, &c.CompanyName, &c.Location, &c.Description, &c.URL)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func scanJobPosting(row pgx.Row) (*JobPosting, error) {
	var j JobPosting
	err := row.Scan(
		&j.JobID, &j.CompanyID, &j.JobTitle, &j.Description, &j.Salary, &j.PayPeriod, &j.WorkType,
		&j.ExperienceLevel, &j.Location, &j.Applies, &j.ListedTime, &j.Currency, &j.Platform, &j.URL,
		&j.CrawledTime,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &j, nil
}

func scanBenefit(row pgx.Row) (*Benefit, error) {
	var b Benefit
	if err := row.Scan(&b.ID, &b.JobID, &b.Type, &b.Inferred); err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// notFound maps pgx.ErrNoRows to ErrNotFound and leaves other errors untouched
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func affected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := t.tx.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}

// Companies

func (t *pgTx) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+companyColumns+` FROM company WHERE company_id = $1`, id)
	return scanCompany(row)
}

func (t *pgTx) FindCompanyByName(ctx context.Context, name *string) (*Company, error) {
	if name == nil {
		return nil, ErrNotFound
	}
	row := t.tx.QueryRow(ctx, `SELECT `+companyColumns+` FROM company WHERE company_name = $1 LIMIT 1`, *name)
	return scanCompany(row)
}

func (t *pgTx) InsertCompany(ctx context.Context, c *Company) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO company (`+companyColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		c.CompanyID, c.CompanyName, c.Location, c.Description, c.URL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert company: %w", err)
	}
	return nil
}

func (t *pgTx) UpdateCompany(ctx context.Context, c *Company) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE company SET location = $2, description = $3, url = $4 WHERE company_id = $1`,
		c.CompanyID, c.Location, c.Description, c.URL,
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	return affected(tag)
}

func (t *pgTx) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM company WHERE company_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return affected(tag)
}

func (t *pgTx) CountCompanies(ctx context.Context) (int64, error) {
	return t.count(ctx, "company")
}

// Job postings

func (t *pgTx) GetJobPosting(ctx context.Context, id uuid.UUID) (*JobPosting, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+jobPostingColumns+` FROM job_posting WHERE job_id = $1`, id)
	return scanJobPosting(row)
}

func (t *pgTx) FindJobPostingByURL(ctx context.Context, url *string) (*JobPosting, error) {
	if url == nil {
		return nil, ErrNotFound
	}
	row := t.tx.QueryRow(ctx, `SELECT `+jobPostingColumns+` FROM job_posting WHERE url = $1 LIMIT 1`, *url)
	return scanJobPosting(row)
}

func (t *pgTx) InsertJobPosting(ctx context.Context, j *JobPosting) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO job_posting (`+jobPostingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		j.JobID, j.CompanyID, j.JobTitle, j.Description, j.Salary, j.PayPeriod, j.WorkType,
		j.ExperienceLevel, j.Location, j.Applies, j.ListedTime, j.Currency, j.Platform, j.URL,
		j.CrawledTime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job posting: %w", err)
	}
	return nil
}

// UpdateJobPosting rewrites every mutable column. url is the upsert key and is left as stored.
func (t *pgTx) UpdateJobPosting(ctx context.Context, j *JobPosting) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE job_posting SET
			company_id = $2, job_title = $3, description = $4, salary = $5, pay_period = $6,
			work_type = $7, experience_level = $8, location = $9, applies = $10, listed_time = $11,
			currency = $12, platform = $13, crawled_time = $14
		WHERE job_id = $1`,
		j.JobID, j.CompanyID, j.JobTitle, j.Description, j.Salary, j.PayPeriod,
		j.WorkType, j.ExperienceLevel, j.Location, j.Applies, j.ListedTime,
		j.Currency, j.Platform, j.CrawledTime,
	)
	if err != nil {
		return fmt.Errorf("failed to update job posting: %w", err)
	}
	return affected(tag)
}

func (t *pgTx) DeleteJobPosting(ctx context.Context, id uuid.UUID) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM job_posting WHERE job_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job posting: %w", err)
	}
	return affected(tag)
}

func (t *pgTx) DeleteJobPostingsByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM job_posting WHERE company_id = $1`, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete job postings of company: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) CountJobPostings(ctx context.Context) (int64, error) {
	return t.count(ctx, "job_posting")
}

// Benefits

func (t *pgTx) GetBenefit(ctx context.Context, id int64) (*Benefit, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+benefitColumns+` FROM benefit WHERE id = $1`, id)
	return scanBenefit(row)
}

func (t *pgTx) InsertBenefit(ctx context.Context, b *Benefit) error {
	err := t.tx.QueryRow(ctx,
		`INSERT INTO benefit (job_id, type, inferred) VALUES ($1, $2, $3) RETURNING id`,
		b.JobID, b.Type, b.Inferred,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to insert benefit: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteBenefit(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM benefit WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete benefit: %w", err)
	}
	return affected(tag)
}

func (t *pgTx) DeleteBenefitsByJob(ctx context.Context, jobID uuid.UUID) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM benefit WHERE job_id = $1`, jobID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete benefits of job posting: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) CountBenefits(ctx context.Context) (int64, error) {
	return t.count(ctx, "benefit")
}
