package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaofarinelli/we-crm-sub002/internal/permissions"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
	"github.com/joaofarinelli/we-crm-sub002/pkg/testutil"
)

const teamTestCompanyID = "11111111-1111-1111-1111-111111111111"

func newTestTeamService(t *testing.T) (*TeamService, *testutil.MockDB) {
	mock := testutil.NewMockDB(t)
	permsRepo := permissions.NewRepository(mock.DB)
	evaluator := permissions.NewEvaluator(permsRepo, zerolog.Nop())
	svc := NewTeamService(nil, nil, permsRepo, evaluator, nil, nil, nil, logger.New("test", "test"))
	return svc, mock
}

func expectNoGridOverride(mock *testutil.MockDB, companyID, roleName string) {
	mock.ExpectCompanyScope(companyID)
	mock.ExpectQuery(`FROM company_role_grids`).
		WithArgs(companyID, roleName).
		WillReturnRows(testutil.MockRows("grid"))
	mock.ExpectCommit()
}

func TestTeamServiceCanAccess(t *testing.T) {
	svc, mock := newTestTeamService(t)
	ctx := tenant.WithCompanyContext(context.Background(), teamTestCompanyID, "sdr")

	expectNoGridOverride(mock, teamTestCompanyID, "sdr")
	allowed, err := svc.CanAccess(ctx, "leads")
	require.NoError(t, err)
	assert.True(t, allowed)

	expectNoGridOverride(mock, teamTestCompanyID, "sdr")
	allowed, err = svc.CanAccess(ctx, "reports")
	require.NoError(t, err)
	assert.False(t, allowed)

	mock.ExpectationsWereMet(t)
}

func TestTeamServiceCanAccessRequiresCompany(t *testing.T) {
	svc, _ := newTestTeamService(t)

	_, err := svc.CanAccess(context.Background(), "leads")
	require.ErrorIs(t, err, tenant.ErrNoCompanyInContext)
}
