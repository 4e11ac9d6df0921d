package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
	"github.com/joaofarinelli/we-crm-sub002/pkg/testutil"
)

var (
	suiteOnce sync.Once
	suite     *testutil.IntegrationSuite
	suiteErr  error
)

// integrationSuite starts the shared Postgres container on first use so
// `go test -short` never touches Docker.
func integrationSuite(t *testing.T) *testutil.IntegrationSuite {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	suiteOnce.Do(func() {
		suite, suiteErr = testutil.NewIntegrationSuite(context.Background())
	})
	if suiteErr != nil {
		t.Fatalf("failed to create integration suite: %v", suiteErr)
	}
	return suite
}

func TestLeadLifecycleIntegration(t *testing.T) {
	s := integrationSuite(t)
	company := s.SetupCompany(t, context.Background())
	ctx := tenant.WithCompanyID(context.Background(), company.ID)

	repo := repository.NewLeadRepository(s.DB)

	lead := &domain.Lead{Name: "Ana Souza"}
	require.NoError(t, repo.Create(ctx, lead))
	require.NotEmpty(t, lead.ID)
	assert.Equal(t, company.ID, lead.CompanyID)
	assert.Equal(t, domain.LeadStatusNew, lead.Status)
	assert.False(t, lead.CreatedAt.IsZero())

	got, err := repo.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", got.Name)

	got.Status = domain.LeadStatusQualified
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.Get(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusQualified, updated.Status)

	require.NoError(t, repo.Delete(ctx, lead.ID))
	_, err = repo.Get(ctx, lead.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestLeadCompanyIsolationIntegration(t *testing.T) {
	s := integrationSuite(t)
	ctx := context.Background()
	companyA := s.SetupCompany(t, ctx)
	companyB := s.SetupCompany(t, ctx)
	ctxA := tenant.WithCompanyID(ctx, companyA.ID)
	ctxB := tenant.WithCompanyID(ctx, companyB.ID)

	repo := repository.NewLeadRepository(s.DB)

	lead := &domain.Lead{Name: "Company A Lead"}
	require.NoError(t, repo.Create(ctxA, lead))

	// The other company sees neither the list entry nor the row itself.
	leadsB, err := repo.List(ctxB)
	require.NoError(t, err)
	assert.Empty(t, leadsB)

	_, err = repo.Get(ctxB, lead.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	leadsA, err := repo.List(ctxA)
	require.NoError(t, err)
	require.Len(t, leadsA, 1)
	assert.Equal(t, lead.ID, leadsA[0].ID)
}

func TestLeadCountByColumnIntegration(t *testing.T) {
	s := integrationSuite(t)
	company := s.SetupCompany(t, context.Background())
	ctx := tenant.WithCompanyID(context.Background(), company.ID)

	column := s.Fixtures.Column(company.ID)
	_, err := s.RawDB.ExecContext(ctx, `
		INSERT INTO pipeline_columns (id, company_id, name, position)
		VALUES ($1, $2, $3, $4)
	`, column.ID, company.ID, column.Name, column.Position)
	require.NoError(t, err)

	repo := repository.NewLeadRepository(s.DB)

	inColumn := &domain.Lead{Name: "In Column", ColumnID: &column.ID}
	require.NoError(t, repo.Create(ctx, inColumn))
	unassigned := &domain.Lead{Name: "Unassigned"}
	require.NoError(t, repo.Create(ctx, unassigned))

	counts, err := repo.CountByColumn(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[column.ID])
	assert.Equal(t, 1, counts[""])
}
