package service

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawler-middleware/internal/logging"
	"crawler-middleware/internal/logging/adapters"
	"crawler-middleware/internal/storage"
	"crawler-middleware/pkg/models"
	"crawler-middleware/pkg/utils"
)

func strPtr(s string) *string { return &s }

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }
func intPtr(i int) *int       { return &i }

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func quietLogger() logging.Logger {
	logger := logging.NewMultiLogger()
	_ = logger.AddAdapter(adapters.NewWriterAdapter("discard", adapters.StdoutConfig{Format: "json"}, io.Discard))
	return logger
}

func newTestService(t *testing.T) (*Service, *storage.MemoryStore, *fixedClock) {
	t.Helper()
	store := storage.NewMemoryStore()
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := New(store, WithClock(clock.Now), WithLogger(quietLogger()))
	return svc, store, clock
}

func createCompany(t *testing.T, svc *Service, name string) uuid.UUID {
	t.Helper()
	resp, err := svc.UpsertCompany(context.Background(), models.CompanyRequest{CompanyName: strPtr(name)})
	require.NoError(t, err)
	return resp.CompanyID
}

func createJob(t *testing.T, svc *Service, companyID uuid.UUID, url string) uuid.UUID {
	t.Helper()
	resp, err := svc.UpsertJobPosting(context.Background(), models.JobPostingRequest{
		CompanyID: uuidPtr(companyID),
		JobTitle:  strPtr("Engineer"),
		URL:       strPtr(url),
	})
	require.NoError(t, err)
	return resp.JobID
}

func countRows(t *testing.T, store storage.Store) (jobs, companies, benefits int64) {
	t.Helper()
	err := store.WithTx(context.Background(), func(tx storage.Tx) error {
		var err error
		if jobs, err = tx.CountJobPostings(context.Background()); err != nil {
			return err
		}
		if companies, err = tx.CountCompanies(context.Background()); err != nil {
			return err
		}
		benefits, err = tx.CountBenefits(context.Background())
		return err
	})
	require.NoError(t, err)
	return jobs, companies, benefits
}

func TestUpsertCompany_SameNameUpdates(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.UpsertCompany(ctx, models.CompanyRequest{
		CompanyName: strPtr("Acme"),
		Location:    strPtr("Berlin"),
	})
	require.NoError(t, err)
	assert.Equal(t, MsgCompanyCreated, first.Message)
	assert.True(t, first.Success)

	second, err := svc.UpsertCompany(ctx, models.CompanyRequest{
		CompanyName: strPtr("Acme"),
		Location:    strPtr("Paris"),
	})
	require.NoError(t, err)
	assert.Equal(t, MsgCompanyUpdated, second.Message)
	assert.Equal(t, first.CompanyID, second.CompanyID)

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		c, err := tx.GetCompany(ctx, first.CompanyID)
		require.NoError(t, err)
		require.NotNil(t, c.Location)
		assert.Equal(t, "Paris", *c.Location)
		assert.Equal(t, "Acme", *c.CompanyName)
		return nil
	})
	require.NoError(t, err)

	_, companies, _ := countRows(t, store)
	assert.Equal(t, int64(1), companies)
}

func TestUpsertCompany_UpdateOverwritesWithNulls(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.UpsertCompany(ctx, models.CompanyRequest{
		CompanyName: strPtr("Acme"),
		Location:    strPtr("Berlin"),
		Description: strPtr("Rockets"),
	})
	require.NoError(t, err)

	_, err = svc.UpsertCompany(ctx, models.CompanyRequest{CompanyName: strPtr("Acme")})
	require.NoError(t, err)

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		c, err := tx.GetCompany(ctx, first.CompanyID)
		require.NoError(t, err)
		assert.Nil(t, c.Location)
		assert.Nil(t, c.Description)
		return nil
	})
	require.NoError(t, err)
}

func TestUpsertCompany_NilNameNeverMatches(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.UpsertCompany(ctx, models.CompanyRequest{Location: strPtr("Berlin")})
	require.NoError(t, err)
	second, err := svc.UpsertCompany(ctx, models.CompanyRequest{Location: strPtr("Berlin")})
	require.NoError(t, err)

	assert.NotEqual(t, first.CompanyID, second.CompanyID)
	assert.Equal(t, MsgCompanyCreated, second.Message)

	_, companies, _ := countRows(t, store)
	assert.Equal(t, int64(2), companies)
}

func TestDeleteCompany_CascadesJobsButKeepsBenefits(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	companyID := createCompany(t, svc, "Acme")
	jobA := createJob(t, svc, companyID, "https://jobs.example.com/a")
	createJob(t, svc, companyID, "https://jobs.example.com/b")

	benefit, err := svc.DepositBenefit(ctx, models.BenefitRequest{JobID: uuidPtr(jobA), Type: strPtr("401k")})
	require.NoError(t, err)

	resp, err := svc.DeleteCompany(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, MsgCompanyDeleted, resp.Message)

	jobs, companies, benefits := countRows(t, store)
	assert.Equal(t, int64(0), jobs)
	assert.Equal(t, int64(0), companies)
	assert.Equal(t, int64(1), benefits)

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		orphan, err := tx.GetBenefit(ctx, benefit.BenefitID)
		require.NoError(t, err)
		assert.Equal(t, jobA, orphan.JobID)
		return nil
	})
	require.NoError(t, err)
}

func TestDeleteCompany_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.DeleteCompany(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
	assert.EqualError(t, err, MsgCompanyNotFound)
}

func TestDeleteJobPosting_RemovesBenefits(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	companyID := createCompany(t, svc, "Acme")
	jobA := createJob(t, svc, companyID, "https://jobs.example.com/a")
	jobB := createJob(t, svc, companyID, "https://jobs.example.com/b")

	for _, kind := range []string{"dental", "vision"} {
		_, err := svc.DepositBenefit(ctx, models.BenefitRequest{JobID: uuidPtr(jobA), Type: strPtr(kind)})
		require.NoError(t, err)
	}
	other, err := svc.DepositBenefit(ctx, models.BenefitRequest{JobID: uuidPtr(jobB), Type: strPtr("remote")})
	require.NoError(t, err)

	resp, err := svc.DeleteJobPosting(ctx, jobA)
	require.NoError(t, err)
	assert.Equal(t, MsgJobDeleted, resp.Message)

	jobs, _, benefits := countRows(t, store)
	assert.Equal(t, int64(1), jobs)
	assert.Equal(t, int64(1), benefits)

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.GetBenefit(ctx, other.BenefitID)
		return err
	})
	require.NoError(t, err)
}

func TestDeleteJobPosting_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.DeleteJobPosting(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
	assert.EqualError(t, err, MsgJobNotFound)
}

func TestUpsertJobPosting_MissingCompanyWritesNothing(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.UpsertJobPosting(context.Background(), models.JobPostingRequest{
		CompanyID: uuidPtr(uuid.New()),
		URL:       strPtr("https://jobs.example.com/a"),
	})
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindPreconditionFailed))
	assert.EqualError(t, err, MsgCompanyRequiredForJob)

	ce, ok := utils.AsCustomError(err)
	require.True(t, ok)
	assert.Equal(t, 404, ce.Code)

	jobs, _, _ := countRows(t, store)
	assert.Equal(t, int64(0), jobs)
}

func TestUpsertJobPosting_SameURLUpdates(t *testing.T) {
	svc, store, clock := newTestService(t)
	ctx := context.Background()

	companyA := createCompany(t, svc, "Acme")
	companyB := createCompany(t, svc, "Globex")

	first, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{
		CompanyID: uuidPtr(companyA),
		JobTitle:  strPtr("Engineer"),
		Salary:    intPtr(100000),
		PayPeriod: strPtr("biweekly"),
		URL:       strPtr("https://jobs.example.com/a"),
	})
	require.NoError(t, err)
	assert.Equal(t, MsgJobCreated, first.Message)

	clock.Advance(time.Minute)

	second, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{
		CompanyID: uuidPtr(companyB),
		JobTitle:  strPtr("Senior Engineer"),
		URL:       strPtr("https://jobs.example.com/a"),
	})
	require.NoError(t, err)
	assert.Equal(t, MsgJobUpdated, second.Message)
	assert.Equal(t, first.JobID, second.JobID)
	assert.True(t, second.CrawledTime.After(first.CrawledTime))

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		job, err := tx.GetJobPosting(ctx, first.JobID)
		require.NoError(t, err)
		assert.Equal(t, "Senior Engineer", *job.JobTitle)
		assert.Nil(t, job.Salary)
		assert.Nil(t, job.PayPeriod)
		require.NotNil(t, job.CompanyID)
		assert.Equal(t, companyB, *job.CompanyID)
		assert.Equal(t, second.CrawledTime, job.CrawledTime)
		return nil
	})
	require.NoError(t, err)

	jobs, _, _ := countRows(t, store)
	assert.Equal(t, int64(1), jobs)
}

func TestUpsertJobPosting_NilURLNeverMatches(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	companyID := createCompany(t, svc, "Acme")

	first, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{CompanyID: uuidPtr(companyID)})
	require.NoError(t, err)
	second, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{CompanyID: uuidPtr(companyID)})
	require.NoError(t, err)

	assert.NotEqual(t, first.JobID, second.JobID)
	jobs, _, _ := countRows(t, store)
	assert.Equal(t, int64(2), jobs)
}

func TestUpsertJobPosting_ListedTimeStoredInUTC(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	companyID := createCompany(t, svc, "Acme")

	listed := time.Date(2024, 2, 1, 9, 0, 0, 0, time.FixedZone("CET", 3600))
	resp, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{
		CompanyID:  uuidPtr(companyID),
		URL:        strPtr("https://jobs.example.com/a"),
		ListedTime: &listed,
	})
	require.NoError(t, err)

	err = store.WithTx(ctx, func(tx storage.Tx) error {
		job, err := tx.GetJobPosting(ctx, resp.JobID)
		require.NoError(t, err)
		require.NotNil(t, job.ListedTime)
		assert.Equal(t, time.UTC, job.ListedTime.Location())
		assert.True(t, listed.Equal(*job.ListedTime))
		return nil
	})
	require.NoError(t, err)
}

func TestCheck(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	url := "https://jobs.example.com/a"

	unseen, err := svc.Check(ctx, models.URLCheckRequest{URL: strPtr(url)})
	require.NoError(t, err)
	assert.False(t, unseen.IsCrawled)
	assert.Nil(t, unseen.JobID)
	assert.Nil(t, unseen.CrawledTime)
	assert.Equal(t, url, unseen.URL)

	companyID := createCompany(t, svc, "Acme")
	job, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{CompanyID: uuidPtr(companyID), URL: strPtr(url)})
	require.NoError(t, err)

	seen, err := svc.Check(ctx, models.URLCheckRequest{URL: strPtr(url)})
	require.NoError(t, err)
	assert.True(t, seen.IsCrawled)
	require.NotNil(t, seen.JobID)
	assert.Equal(t, job.JobID, *seen.JobID)
	require.NotNil(t, seen.CrawledTime)
	assert.Equal(t, job.CrawledTime, *seen.CrawledTime)

	// no normalization
	variant, err := svc.Check(ctx, models.URLCheckRequest{URL: strPtr(url + "/")})
	require.NoError(t, err)
	assert.False(t, variant.IsCrawled)
}

func TestStats(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	acme := createCompany(t, svc, "Acme")
	createCompany(t, svc, "Globex")
	jobA := createJob(t, svc, acme, "https://jobs.example.com/a")
	jobB := createJob(t, svc, acme, "https://jobs.example.com/b")
	createJob(t, svc, acme, "https://jobs.example.com/c")
	_, err := svc.DepositBenefit(ctx, models.BenefitRequest{JobID: uuidPtr(jobA), Type: strPtr("dental")})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatsResponse{TotalJobPostings: 3, TotalCompanies: 2, TotalBenefits: 1}, *stats)

	_, err = svc.DeleteJobPosting(ctx, jobB)
	require.NoError(t, err)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatsResponse{TotalJobPostings: 2, TotalCompanies: 2, TotalBenefits: 1}, *stats)

	_, err = svc.DeleteJobPosting(ctx, jobA)
	require.NoError(t, err)

	stats, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatsResponse{TotalJobPostings: 1, TotalCompanies: 2, TotalBenefits: 0}, *stats)
}

func TestDepositBenefit_MissingJobInsertsNothing(t *testing.T) {
	svc, store, _ := newTestService(t)

	_, err := svc.DepositBenefit(context.Background(), models.BenefitRequest{JobID: uuidPtr(uuid.New()), Type: strPtr("dental")})
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindPreconditionFailed))
	assert.EqualError(t, err, MsgJobRequiredForBenefit)

	_, _, benefits := countRows(t, store)
	assert.Equal(t, int64(0), benefits)
}

func TestDepositBenefit_AlwaysInserts(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	jobID := createJob(t, svc, createCompany(t, svc, "Acme"), "https://jobs.example.com/a")

	req := models.BenefitRequest{JobID: uuidPtr(jobID), Type: strPtr("dental"), Inferred: strPtr("true")}
	first, err := svc.DepositBenefit(ctx, req)
	require.NoError(t, err)
	second, err := svc.DepositBenefit(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, MsgBenefitCreated, first.Message)
	assert.NotEqual(t, first.BenefitID, second.BenefitID)
}

func TestDeleteBenefit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	jobID := createJob(t, svc, createCompany(t, svc, "Acme"), "https://jobs.example.com/a")

	benefit, err := svc.DepositBenefit(ctx, models.BenefitRequest{JobID: uuidPtr(jobID)})
	require.NoError(t, err)

	resp, err := svc.DeleteBenefit(ctx, benefit.BenefitID)
	require.NoError(t, err)
	assert.Equal(t, MsgBenefitDeleted, resp.Message)

	_, err = svc.DeleteBenefit(ctx, benefit.BenefitID)
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))
	assert.EqualError(t, err, MsgBenefitNotFound)
}

func TestDeleteBenefit_IDOutsideSerialRangeIsNotFound(t *testing.T) {
	// the store would reject these ids as arguments; they must never reach it
	svc := New(failingStore{Store: storage.NewMemoryStore(), err: errors.New("value greater than maximum value for int4")},
		WithLogger(quietLogger()))

	for _, id := range []int64{3000000000, math.MaxInt32 + 1, math.MinInt32 - 1} {
		_, err := svc.DeleteBenefit(context.Background(), id)
		require.Error(t, err)
		assert.True(t, utils.IsKind(err, utils.KindNotFound), "id %d", id)
		assert.EqualError(t, err, MsgBenefitNotFound)
	}
}

func TestUpsertJobPosting_NilCompanyIDIsMissingCompany(t *testing.T) {
	svc, store, _ := newTestService(t)
	createCompany(t, svc, "Acme")

	for _, companyID := range []*uuid.UUID{uuidPtr(uuid.Nil), nil} {
		_, err := svc.UpsertJobPosting(context.Background(), models.JobPostingRequest{
			CompanyID: companyID,
			URL:       strPtr("https://jobs.example.com/a"),
		})
		require.Error(t, err)
		assert.True(t, utils.IsKind(err, utils.KindPreconditionFailed))
	}

	_, err := svc.DepositBenefit(context.Background(), models.BenefitRequest{JobID: uuidPtr(uuid.Nil)})
	require.Error(t, err)
	assert.True(t, utils.IsKind(err, utils.KindPreconditionFailed))
	assert.EqualError(t, err, MsgJobRequiredForBenefit)

	jobs, _, benefits := countRows(t, store)
	assert.Equal(t, int64(0), jobs)
	assert.Equal(t, int64(0), benefits)
}

func TestCheck_EmptyURLIsAnExactMatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	job, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{
		CompanyID: uuidPtr(createCompany(t, svc, "Acme")),
		URL:       strPtr(""),
	})
	require.NoError(t, err)

	check, err := svc.Check(ctx, models.URLCheckRequest{URL: strPtr("")})
	require.NoError(t, err)
	assert.True(t, check.IsCrawled)
	require.NotNil(t, check.JobID)
	assert.Equal(t, job.JobID, *check.JobID)
	assert.Equal(t, "", check.URL)
}

// failingStore fails every transaction with a fixed error
type failingStore struct {
	storage.Store
	err error
}

func (s failingStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.err
}

func TestPersistenceErrorsAreWrapped(t *testing.T) {
	svc := New(failingStore{Store: storage.NewMemoryStore(), err: errors.New("connection refused")},
		WithLogger(quietLogger()))

	_, err := svc.UpsertCompany(context.Background(), models.CompanyRequest{CompanyName: strPtr("Acme")})
	require.Error(t, err)

	ce, ok := utils.AsCustomError(err)
	require.True(t, ok)
	assert.Equal(t, utils.KindPersistence, ce.Kind)
	assert.Equal(t, 500, ce.Code)
	assert.Equal(t, "Error depositing company: connection refused", ce.Message)
	assert.NotEmpty(t, ce.Stack())
}

func TestTransactionIgnoresCallerCancellation(t *testing.T) {
	svc, store, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := svc.UpsertCompany(ctx, models.CompanyRequest{CompanyName: strPtr("Acme")})
	require.NoError(t, err)
	assert.Equal(t, MsgCompanyCreated, resp.Message)

	_, companies, _ := countRows(t, store)
	assert.Equal(t, int64(1), companies)
}
