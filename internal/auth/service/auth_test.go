package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/joaofarinelli/we-crm-sub002/internal/auth/jwt"
	"github.com/joaofarinelli/we-crm-sub002/internal/auth/repository"
	"github.com/joaofarinelli/we-crm-sub002/internal/company"
	"github.com/joaofarinelli/we-crm-sub002/internal/permissions"
	"github.com/joaofarinelli/we-crm-sub002/pkg/config"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/testutil"
)

const (
	testUserID    = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	testCompanyID = "11111111-1111-1111-1111-111111111111"
	testEmail     = "closer@example.com"
	testPassword  = "secret-password"
)

func newTestAuthService(t *testing.T) (*AuthService, *jwt.Manager, *testutil.MockDB) {
	mock := testutil.NewMockDB(t)

	jwtManager := jwt.NewManager(&config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        "crm-test",
	})

	resolver := company.NewResolver(company.NewRepository(mock.DB), zerolog.Nop())
	evaluator := permissions.NewEvaluator(permissions.NewRepository(mock.DB), zerolog.Nop())

	svc := NewAuthService(
		repository.NewAccountRepository(mock.DB),
		repository.NewSessionRepository(mock.DB),
		resolver,
		evaluator,
		jwtManager,
		logger.New("test", "test"),
	)
	return svc, jwtManager, mock
}

func hashPassword(t *testing.T, password string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func accountColumns() []string {
	return []string{"id", "email", "password_hash", "name", "is_active", "created_at", "updated_at", "last_login_at"}
}

func expectAccountByEmail(t *testing.T, mock *testutil.MockDB, isActive bool) {
	now := time.Now()
	mock.ExpectQuery(`FROM accounts`).
		WithArgs(testEmail).
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow(testUserID, testEmail, hashPassword(t, testPassword), "Jordan Closer", isActive, now, now, nil))
}

func expectMembership(mock *testutil.MockDB, roleName string) {
	mock.ExpectQuery(`FROM company_users cu`).
		WithArgs(testUserID).
		WillReturnRows(testutil.MockRows("user_id", "company_id", "role_name").
			AddRow(testUserID, testCompanyID, roleName))
}

func expectNoMembership(mock *testutil.MockDB) {
	mock.ExpectQuery(`FROM company_users cu`).
		WithArgs(testUserID).
		WillReturnRows(testutil.MockRows("user_id", "company_id", "role_name"))
}

func expectNoGridOverride(mock *testutil.MockDB, roleName string) {
	mock.ExpectCompanyScope(testCompanyID)
	mock.ExpectQuery(`FROM company_role_grids`).
		WithArgs(testCompanyID, roleName).
		WillReturnRows(testutil.MockRows("grid"))
	mock.ExpectCommit()
}

func expectSessionInsert(mock *testutil.MockDB) {
	mock.ExpectQuery(`INSERT INTO sessions`).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
}

func TestLoginSuccess(t *testing.T) {
	svc, jwtManager, mock := newTestAuthService(t)
	defer mock.Close()

	expectAccountByEmail(t, mock, true)
	expectMembership(mock, "closer")
	expectNoGridOverride(mock, "closer")
	expectSessionInsert(mock)
	mock.ExpectExec(`UPDATE accounts SET last_login_at`).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    testEmail,
		Password: testPassword,
	}, "test-agent", "127.0.0.1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, testCompanyID, resp.User.CompanyID)
	assert.Equal(t, "closer", resp.User.Role)
	assert.Contains(t, resp.User.Permissions, "leads.view")
	assert.NotContains(t, resp.User.Permissions, "settings.view")

	// Membership and permissions are baked into the access token
	claims, err := jwtManager.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testUserID, claims.UserID)
	assert.Equal(t, testCompanyID, claims.CompanyID)
	assert.Equal(t, "closer", claims.Role)
	assert.Contains(t, claims.Permissions, "appointments.delete")

	mock.ExpectationsWereMet(t)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, mock := newTestAuthService(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM accounts`).
		WithArgs(testEmail).
		WillReturnRows(sqlmock.NewRows(accountColumns()))

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    testEmail,
		Password: testPassword,
	}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
	mock.ExpectationsWereMet(t)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, mock := newTestAuthService(t)
	defer mock.Close()

	expectAccountByEmail(t, mock, true)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    testEmail,
		Password: "not-the-password",
	}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials")
	mock.ExpectationsWereMet(t)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _, mock := newTestAuthService(t)
	defer mock.Close()

	expectAccountByEmail(t, mock, false)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    testEmail,
		Password: testPassword,
	}, "", "")
	require.Error(t, err)
	// Disabled accounts are indistinguishable from bad credentials
	assert.Contains(t, err.Error(), "credentials")
	mock.ExpectationsWereMet(t)
}

func TestLoginWithoutMembershipIsOnboarding(t *testing.T) {
	svc, jwtManager, mock := newTestAuthService(t)
	defer mock.Close()

	expectAccountByEmail(t, mock, true)
	expectNoMembership(mock)
	expectSessionInsert(mock)
	mock.ExpectExec(`UPDATE accounts SET last_login_at`).
		WithArgs(testUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    testEmail,
		Password: testPassword,
	}, "", "")
	require.NoError(t, err)

	assert.Empty(t, resp.User.CompanyID)
	assert.Empty(t, resp.User.Role)
	assert.Empty(t, resp.User.Permissions)

	claims, err := jwtManager.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, claims.CompanyID)

	mock.ExpectationsWereMet(t)
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, jwtManager, mock := newTestAuthService(t)
	defer mock.Close()

	pair, err := jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:        testUserID,
		Email:     testEmail,
		Name:      "Jordan Closer",
		Role:      "closer",
		CompanyID: testCompanyID,
	}, "session-1")
	require.NoError(t, err)

	now := time.Now()
	mock.ExpectQuery(`FROM sessions`).
		WithArgs(repository.HashToken(pair.RefreshToken)).
		WillReturnRows(testutil.MockRows("id", "user_id", "token_hash", "user_agent", "ip_address", "expires_at", "created_at", "revoked_at").
			AddRow("session-1", testUserID, repository.HashToken(pair.RefreshToken), "test-agent", "127.0.0.1", now.Add(time.Hour), now, nil))

	mock.ExpectQuery(`FROM accounts`).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(accountColumns()).
			AddRow(testUserID, testEmail, "irrelevant", "Jordan Closer", true, now, now, nil))

	expectMembership(mock, "closer")
	expectNoGridOverride(mock, "closer")

	// Rotation is transactional: revoke old, insert replacement
	mock.Mock.ExpectBegin()
	mock.ExpectExec(`UPDATE sessions SET revoked_at`).
		WithArgs("session-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO sessions`).
		WillReturnRows(testutil.MockRows("created_at").AddRow(time.Now()))
	mock.ExpectCommit()

	tokens, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEqual(t, pair.RefreshToken, tokens.RefreshToken)

	mock.ExpectationsWereMet(t)
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc, _, mock := newTestAuthService(t)
	defer mock.Close()

	_, err := svc.Refresh(context.Background(), "not-a-jwt")
	require.Error(t, err)
	mock.ExpectationsWereMet(t)
}

func TestLogoutUnknownTokenSucceeds(t *testing.T) {
	svc, _, mock := newTestAuthService(t)
	defer mock.Close()

	mock.ExpectQuery(`FROM sessions`).
		WillReturnRows(testutil.MockRows("id", "user_id", "token_hash", "user_agent", "ip_address", "expires_at", "created_at", "revoked_at"))

	assert.NoError(t, svc.Logout(context.Background(), "whatever"))
	mock.ExpectationsWereMet(t)
}
