package company

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaofarinelli/we-crm-sub002/pkg/testutil"
)

const (
	testUserID    = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	testCompanyID = "11111111-1111-1111-1111-111111111111"
)

func newTestResolver(t *testing.T) (*Resolver, *testutil.MockDB) {
	mock := testutil.NewMockDB(t)
	return NewResolver(NewRepository(mock.DB), zerolog.Nop()), mock
}

func TestResolverResolve(t *testing.T) {
	resolver, mock := newTestResolver(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM company_users cu`).
		WithArgs(testUserID).
		WillReturnRows(testutil.MockRows("user_id", "company_id", "role_name").
			AddRow(testUserID, testCompanyID, "admin"))

	membership, err := resolver.Resolve(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, testCompanyID, membership.CompanyID)
	assert.Equal(t, "admin", membership.RoleName)
	mock.ExpectationsWereMet(t)
}

func TestResolverCachesResult(t *testing.T) {
	resolver, mock := newTestResolver(t)
	defer mock.Close()

	// Exactly one query for two resolves
	mock.ExpectQuery(`FROM company_users cu`).
		WithArgs(testUserID).
		WillReturnRows(testutil.MockRows("user_id", "company_id", "role_name").
			AddRow(testUserID, testCompanyID, "closer"))

	first, err := resolver.Resolve(context.Background(), testUserID)
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), testUserID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	mock.ExpectationsWereMet(t)
}

func TestResolverNoMembershipMeansOnboarding(t *testing.T) {
	resolver, mock := newTestResolver(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM company_users cu`).
		WithArgs(testUserID).
		WillReturnRows(testutil.MockRows("user_id", "company_id", "role_name"))

	membership, err := resolver.Resolve(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Nil(t, membership)

	// The miss is cached too: no second query
	membership, err = resolver.Resolve(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Nil(t, membership)
	mock.ExpectationsWereMet(t)
}

func TestResolverLookupErrorCollapsesToOnboarding(t *testing.T) {
	resolver, mock := newTestResolver(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM company_users cu`).
		WithArgs(testUserID).
		WillReturnError(assert.AnError)

	membership, err := resolver.Resolve(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Nil(t, membership)

	// Errors are not cached: the next resolve retries the lookup
	mock.ExpectQuery(`FROM company_users cu`).
		WithArgs(testUserID).
		WillReturnRows(testutil.MockRows("user_id", "company_id", "role_name").
			AddRow(testUserID, testCompanyID, "sdr"))

	membership, err = resolver.Resolve(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, "sdr", membership.RoleName)
	mock.ExpectationsWereMet(t)
}

func TestResolverInvalidate(t *testing.T) {
	resolver, mock := newTestResolver(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM company_users cu`).
		WithArgs(testUserID).
		WillReturnRows(testutil.MockRows("user_id", "company_id", "role_name").
			AddRow(testUserID, testCompanyID, "sdr"))

	_, err := resolver.Resolve(context.Background(), testUserID)
	require.NoError(t, err)

	resolver.Invalidate(testUserID)

	// A fresh lookup after invalidation sees the role change
	mock.ExpectQuery(`FROM company_users cu`).
		WithArgs(testUserID).
		WillReturnRows(testutil.MockRows("user_id", "company_id", "role_name").
			AddRow(testUserID, testCompanyID, "manager"))

	membership, err := resolver.Resolve(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, "manager", membership.RoleName)
	mock.ExpectationsWereMet(t)
}
