package repository

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
	"github.com/joaofarinelli/we-crm-sub002/pkg/testutil"
)

const (
	testCompanyID = "11111111-1111-1111-1111-111111111111"
	testLeadID    = "22222222-2222-2222-2222-222222222222"
)

func companyCtx() context.Context {
	return tenant.WithCompanyID(context.Background(), testCompanyID)
}

func leadColumns() []string {
	return []string{
		"id", "company_id", "name", "email", "phone", "source", "status",
		"column_id", "assigned_to", "partner_id", "product_id", "value",
		"notes", "last_contact_at", "created_by", "created_at", "updated_at", "deleted_at",
	}
}

func leadRowValues(id string, name string) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, testCompanyID, name, nil, nil, nil, domain.LeadStatusNew,
		nil, nil, nil, nil, nil, nil, nil, nil, now, now, nil,
	}
}

func TestLeadRepositoryCreate(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()
	repo := NewLeadRepository(mock.DB)

	mock.ExpectCompanyScope(testCompanyID)
	mock.ExpectQuery(`INSERT INTO leads`).
		WillReturnRows(testutil.MockRows("created_at", "updated_at").AddRow(time.Now(), time.Now()))
	mock.ExpectCommit()

	lead := &domain.Lead{Name: "Acme Corp"}
	err := repo.Create(companyCtx(), lead)
	require.NoError(t, err)

	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, testCompanyID, lead.CompanyID)
	assert.Equal(t, domain.LeadStatusNew, lead.Status)
	assert.False(t, lead.CreatedAt.IsZero())
	mock.ExpectationsWereMet(t)
}

func TestLeadRepositoryCreateRequiresCompany(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()
	repo := NewLeadRepository(mock.DB)

	err := repo.Create(context.Background(), &domain.Lead{Name: "No Tenant"})
	require.Error(t, err)
	mock.ExpectationsWereMet(t)
}

func TestLeadRepositoryGet(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()
	repo := NewLeadRepository(mock.DB)

	rows := sqlmock.NewRows(leadColumns()).AddRow(leadRowValues(testLeadID, "Acme Corp")...)
	mock.ExpectCompanyScope(testCompanyID)
	mock.ExpectQuery(`SELECT id, company_id, name`).
		WithArgs(testLeadID, testCompanyID).
		WillReturnRows(rows)
	mock.ExpectCommit()

	lead, err := repo.Get(companyCtx(), testLeadID)
	require.NoError(t, err)
	assert.Equal(t, testLeadID, lead.ID)
	assert.Equal(t, "Acme Corp", lead.Name)
	mock.ExpectationsWereMet(t)
}

func TestLeadRepositoryGetNotFound(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()
	repo := NewLeadRepository(mock.DB)

	mock.ExpectCompanyScope(testCompanyID)
	mock.ExpectQuery(`SELECT id, company_id, name`).
		WithArgs(testLeadID, testCompanyID).
		WillReturnRows(sqlmock.NewRows(leadColumns()))
	mock.ExpectRollback()

	_, err := repo.Get(companyCtx(), testLeadID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	mock.ExpectationsWereMet(t)
}

func TestLeadRepositoryList(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()
	repo := NewLeadRepository(mock.DB)

	rows := sqlmock.NewRows(leadColumns()).
		AddRow(leadRowValues("lead-1", "First")...).
		AddRow(leadRowValues("lead-2", "Second")...)
	mock.ExpectCompanyScope(testCompanyID)
	mock.ExpectQuery(`FROM leads`).
		WithArgs(testCompanyID).
		WillReturnRows(rows)
	mock.ExpectCommit()

	leads, err := repo.List(companyCtx())
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "First", leads[0].Name)
	mock.ExpectationsWereMet(t)
}

func TestLeadRepositoryUpdateNotFound(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()
	repo := NewLeadRepository(mock.DB)

	mock.ExpectCompanyScope(testCompanyID)
	mock.ExpectExec(`UPDATE leads SET name`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(companyCtx(), &domain.Lead{ID: testLeadID, Name: "Ghost"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	mock.ExpectationsWereMet(t)
}

func TestLeadRepositoryDeleteIsSoft(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()
	repo := NewLeadRepository(mock.DB)

	mock.ExpectCompanyScope(testCompanyID)
	mock.ExpectExec(`UPDATE leads SET deleted_at = NOW()`).
		WithArgs(testLeadID, testCompanyID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(companyCtx(), testLeadID))
	mock.ExpectationsWereMet(t)
}

func TestLeadRepositoryCountByColumn(t *testing.T) {
	mock := testutil.NewMockDB(t)
	defer mock.Close()
	repo := NewLeadRepository(mock.DB)

	columnID := "33333333-3333-3333-3333-333333333333"
	rows := sqlmock.NewRows([]string{"column_id", "count"}).
		AddRow(columnID, 4).
		AddRow(nil, 2)
	mock.ExpectCompanyScope(testCompanyID)
	mock.ExpectQuery(`GROUP BY column_id`).
		WithArgs(testCompanyID).
		WillReturnRows(rows)
	mock.ExpectCommit()

	counts, err := repo.CountByColumn(companyCtx())
	require.NoError(t, err)
	assert.Equal(t, 4, counts[columnID])
	assert.Equal(t, 2, counts[""])
	mock.ExpectationsWereMet(t)
}
