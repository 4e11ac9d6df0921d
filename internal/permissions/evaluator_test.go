package permissions

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaofarinelli/we-crm-sub002/pkg/testutil"
)

const testCompanyID = "11111111-1111-1111-1111-111111111111"

const overrideQuery = `
			SELECT grid
			FROM company_role_grids
			WHERE company_id = $1 AND role_name = $2
		`

func newTestEvaluator(t *testing.T) (*Evaluator, *testutil.MockDB) {
	mock := testutil.NewMockDB(t)
	repo := NewRepository(mock.DB)
	return NewEvaluator(repo, zerolog.Nop()), mock
}

func expectNoOverride(mock *testutil.MockDB, companyID, roleName string) {
	mock.ExpectCompanyScope(companyID)
	mock.ExpectQuery(overrideQuery).
		WithArgs(companyID, roleName).
		WillReturnRows(testutil.MockRows("grid"))
	mock.ExpectCommit()
}

func expectOverride(t *testing.T, mock *testutil.MockDB, companyID, roleName string, override Grid) {
	payload, err := json.Marshal(override)
	require.NoError(t, err)

	mock.ExpectCompanyScope(companyID)
	mock.ExpectQuery(overrideQuery).
		WithArgs(companyID, roleName).
		WillReturnRows(testutil.MockRows("grid").AddRow(payload))
	mock.ExpectCommit()
}

func TestEffectiveGridWithoutOverride(t *testing.T) {
	evaluator, mock := newTestEvaluator(t)
	defer mock.Close()

	expectNoOverride(mock, testCompanyID, RoleSDR)

	grid := evaluator.EffectiveGrid(context.Background(), testCompanyID, RoleSDR)
	assert.Equal(t, DefaultGrid(RoleSDR), grid)
	mock.ExpectationsWereMet(t)
}

func TestEffectiveGridAppliesOverride(t *testing.T) {
	evaluator, mock := newTestEvaluator(t)
	defer mock.Close()

	// An SDR cannot delete leads by default; the company grants it
	expectNoOverride(mock, testCompanyID, RoleSDR)
	before := evaluator.HasPermission(context.Background(), testCompanyID, RoleSDR, ModuleLeads, ActionDelete)
	require.False(t, before)

	expectOverride(t, mock, testCompanyID, RoleSDR, Grid{
		ModuleLeads: Row{ActionDelete: true},
	})
	after := evaluator.HasPermission(context.Background(), testCompanyID, RoleSDR, ModuleLeads, ActionDelete)
	assert.True(t, after)

	mock.ExpectationsWereMet(t)
}

func TestEffectiveGridOverrideLeavesOtherCellsAlone(t *testing.T) {
	evaluator, mock := newTestEvaluator(t)
	defer mock.Close()

	expectOverride(t, mock, testCompanyID, RoleSDR, Grid{
		ModuleLeads: Row{ActionDelete: true},
	})

	grid := evaluator.EffectiveGrid(context.Background(), testCompanyID, RoleSDR)
	assert.True(t, grid.Allows(ModuleLeads, ActionDelete))
	assert.True(t, grid.Allows(ModuleLeads, ActionView))
	assert.False(t, grid.Allows(ModuleReports, ActionView))
	mock.ExpectationsWereMet(t)
}

func TestEffectiveGridLookupFailureDegradesToDefault(t *testing.T) {
	evaluator, mock := newTestEvaluator(t)
	defer mock.Close()

	mock.ExpectCompanyScope(testCompanyID)
	mock.ExpectQuery(overrideQuery).
		WithArgs(testCompanyID, RoleManager).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	grid := evaluator.EffectiveGrid(context.Background(), testCompanyID, RoleManager)
	assert.Equal(t, DefaultGrid(RoleManager), grid)
	mock.ExpectationsWereMet(t)
}

func TestCanAccessMappedResource(t *testing.T) {
	evaluator, mock := newTestEvaluator(t)
	defer mock.Close()

	expectNoOverride(mock, testCompanyID, RoleSDR)
	assert.True(t, evaluator.CanAccess(context.Background(), testCompanyID, RoleSDR, "leads"))

	expectNoOverride(mock, testCompanyID, RoleSDR)
	assert.False(t, evaluator.CanAccess(context.Background(), testCompanyID, RoleSDR, "reports"))

	mock.ExpectationsWereMet(t)
}

func TestCanAccessUnmappedResourceAllowed(t *testing.T) {
	evaluator, mock := newTestEvaluator(t)
	defer mock.Close()

	// No grid lookup happens for an unmapped resource
	assert.True(t, evaluator.CanAccess(context.Background(), testCompanyID, RoleSDR, "webhooks"))
	mock.ExpectationsWereMet(t)
}

func TestFlattenForRole(t *testing.T) {
	evaluator, mock := newTestEvaluator(t)
	defer mock.Close()

	expectNoOverride(mock, testCompanyID, RoleSDR)

	perms := evaluator.FlattenForRole(context.Background(), testCompanyID, RoleSDR)
	assert.Contains(t, perms, "leads.view")
	assert.Contains(t, perms, "leads.create")
	assert.NotContains(t, perms, "leads.delete")
	assert.NotContains(t, perms, "settings.view")
	mock.ExpectationsWereMet(t)
}
