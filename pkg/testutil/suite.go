package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/joaofarinelli/we-crm-sub002/pkg/database"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests against real
// PostgreSQL with row-level security enabled, the same isolation model
// production runs.
type IntegrationSuite struct {
	Container *PostgresContainer
	RawDB     *sqlx.DB
	DB        *database.DB
	Fixtures  *FixtureFactory
	Logger    *logger.Logger
}

// NewIntegrationSuite creates a new integration test suite. Call this
// in TestMain to set up shared test infrastructure.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//
//	    suite, err := testutil.NewIntegrationSuite(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer suite.Cleanup(ctx)
//
//	    os.Exit(m.Run())
//	}
//
//	func TestSomething(t *testing.T) {
//	    company := suite.SetupCompany(t, context.Background())
//	    ctx := tenant.WithCompanyID(context.Background(), company.ID)
//	    // ... exercise repositories with the company context
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, db, err := getOrCreateContainer(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.New("test", "test")
	wrappedDB, err := database.NewWithDSN(container.DSN, log)
	if err != nil {
		return nil, err
	}

	for _, stmt := range Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("schema setup failed: %w", err)
		}
	}
	for _, stmt := range RLSPolicies() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("rls setup failed: %w", err)
		}
	}

	return &IntegrationSuite{
		Container: container,
		RawDB:     db,
		DB:        wrappedDB,
		Fixtures:  NewFixtureFactory(),
		Logger:    log,
	}, nil
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})

	return globalContainer, globalDB, containerErr
}

// SetupCompany creates a company with the four system roles for one
// test. Each test gets its own company; RLS keeps their rows apart.
func (s *IntegrationSuite) SetupCompany(t *testing.T, ctx context.Context) CompanyFixture {
	t.Helper()

	company := s.Fixtures.Company()
	if _, err := s.RawDB.ExecContext(ctx,
		`INSERT INTO companies (id, name, is_active) VALUES ($1, $2, $3)`,
		company.ID, company.Name, company.IsActive,
	); err != nil {
		t.Fatalf("failed to create company: %v", err)
	}

	for _, role := range []struct{ name, display string }{
		{"admin", "Administrator"},
		{"manager", "Manager"},
		{"closer", "Closer"},
		{"sdr", "SDR"},
	} {
		if _, err := s.RawDB.ExecContext(ctx, `
			INSERT INTO roles (name, display_name, is_system)
			SELECT $1, $2, true
			WHERE NOT EXISTS (SELECT 1 FROM roles WHERE name = $1 AND is_system = true)
		`, role.name, role.display); err != nil {
			t.Fatalf("failed to create role %s: %v", role.name, err)
		}
	}

	t.Cleanup(func() {
		if _, err := s.RawDB.ExecContext(context.Background(),
			`DELETE FROM companies WHERE id = $1`, company.ID,
		); err != nil {
			t.Logf("warning: failed to drop company %s: %v", company.ID, err)
		}
	})

	return company
}

// SetupAccount creates an account and attaches it to a company with
// the given role name.
func (s *IntegrationSuite) SetupAccount(t *testing.T, ctx context.Context, companyID, roleName string, opts ...func(*AccountFixture)) AccountFixture {
	t.Helper()

	account := s.Fixtures.Account(opts...)
	if _, err := s.RawDB.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, name, is_active)
		VALUES ($1, $2, $3, $4, $5)
	`, account.ID, account.Email, account.PasswordHash, account.Name, account.IsActive); err != nil {
		t.Fatalf("failed to create account: %v", err)
	}

	if _, err := s.RawDB.ExecContext(ctx, `
		INSERT INTO company_users (company_id, user_id, role_id, is_active)
		SELECT $1, $2, r.id, true FROM roles r WHERE r.name = $3 AND r.is_system = true
	`, companyID, account.ID, roleName); err != nil {
		t.Fatalf("failed to create membership: %v", err)
	}

	t.Cleanup(func() {
		if _, err := s.RawDB.ExecContext(context.Background(),
			`DELETE FROM accounts WHERE id = $1`, account.ID,
		); err != nil {
			t.Logf("warning: failed to drop account %s: %v", account.ID, err)
		}
	})

	return account
}

// Cleanup tears down the suite's database handle. The shared container
// itself is reused until the test binary exits.
func (s *IntegrationSuite) Cleanup(ctx context.Context) {
	if s.DB != nil {
		_ = s.DB.Close()
	}
}
