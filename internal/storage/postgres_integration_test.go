//go:build integration
// +build integration

package storage_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"crawler-middleware/internal/logging"
	"crawler-middleware/internal/logging/adapters"
	"crawler-middleware/internal/service"
	"crawler-middleware/internal/storage"
	"crawler-middleware/pkg/models"
	"crawler-middleware/pkg/utils"
)

func strPtr(s string) *string { return &s }

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

// setupStore starts PostgreSQL in a container and returns a store with the schema applied
func setupStore(t *testing.T) *storage.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("crawler"),
		postgres.WithUsername("crawler"),
		postgres.WithPassword("crawler"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := storage.NewPostgresStore(ctx, storage.PostgresConfig{URL: connStr, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.EnsureSchema(ctx))
	// idempotent
	require.NoError(t, store.EnsureSchema(ctx))

	return store
}

func newService(store storage.Store) *service.Service {
	logger := logging.NewMultiLogger()
	_ = logger.AddAdapter(adapters.NewWriterAdapter("discard", adapters.StdoutConfig{}, io.Discard))
	return service.New(store, service.WithLogger(logger))
}

func TestPostgres_UpsertAndCascade(t *testing.T) {
	store := setupStore(t)
	svc := newService(store)
	ctx := context.Background()

	company, err := svc.UpsertCompany(ctx, models.CompanyRequest{CompanyName: strPtr("Acme"), Location: strPtr("Berlin")})
	require.NoError(t, err)
	again, err := svc.UpsertCompany(ctx, models.CompanyRequest{CompanyName: strPtr("Acme"), Location: strPtr("Paris")})
	require.NoError(t, err)
	assert.Equal(t, company.CompanyID, again.CompanyID)
	assert.Equal(t, service.MsgCompanyUpdated, again.Message)

	url := "https://jobs.example.com/42"
	first, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{CompanyID: uuidPtr(company.CompanyID), URL: strPtr(url)})
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	second, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{CompanyID: uuidPtr(company.CompanyID), URL: strPtr(url), JobTitle: strPtr("Engineer")})
	require.NoError(t, err)
	assert.Equal(t, first.JobID, second.JobID)
	assert.True(t, second.CrawledTime.After(first.CrawledTime))

	check, err := svc.Check(ctx, models.URLCheckRequest{URL: strPtr(url)})
	require.NoError(t, err)
	assert.True(t, check.IsCrawled)
	assert.Equal(t, second.JobID, *check.JobID)
	assert.True(t, second.CrawledTime.Equal(*check.CrawledTime))

	benefit, err := svc.DepositBenefit(ctx, models.BenefitRequest{JobID: uuidPtr(second.JobID), Type: strPtr("dental")})
	require.NoError(t, err)
	assert.Positive(t, benefit.BenefitID)

	_, err = svc.DeleteCompany(ctx, company.CompanyID)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatsResponse{TotalJobPostings: 0, TotalCompanies: 0, TotalBenefits: 1}, *stats)
}

func TestPostgres_PreconditionsWriteNothing(t *testing.T) {
	store := setupStore(t)
	svc := newService(store)
	ctx := context.Background()

	_, err := svc.UpsertJobPosting(ctx, models.JobPostingRequest{CompanyID: uuidPtr(uuid.New()), URL: strPtr("https://x")})
	assert.True(t, utils.IsKind(err, utils.KindPreconditionFailed))

	_, err = svc.DepositBenefit(ctx, models.BenefitRequest{JobID: uuidPtr(uuid.New())})
	assert.True(t, utils.IsKind(err, utils.KindPreconditionFailed))

	_, err = svc.DeleteBenefit(ctx, 999)
	assert.True(t, utils.IsKind(err, utils.KindNotFound))

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatsResponse{}, *stats)
}

func TestPostgres_NilKeysNeverMatch(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.InsertCompany(ctx, &storage.Company{CompanyID: uuid.New()}))
		_, err := tx.FindCompanyByName(ctx, nil)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		_, err = tx.FindJobPostingByURL(ctx, nil)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		return nil
	}))
}

func TestPostgres_RollbackOnError(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx storage.Tx) error {
		require.NoError(t, tx.InsertCompany(ctx, &storage.Company{CompanyID: uuid.New(), CompanyName: strPtr("Acme")}))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	require.NoError(t, store.WithTx(ctx, func(tx storage.Tx) error {
		n, err := tx.CountCompanies(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	}))
}
