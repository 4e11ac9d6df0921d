package company

import (
	"context"
	"database/sql"
	"time"

	"github.com/joaofarinelli/we-crm-sub002/pkg/database"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// Company is a tenant
type Company struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Repository handles company and membership persistence
type Repository struct {
	db *database.DB
}

// NewRepository creates a new company repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// GetByID gets a company by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*Company, error) {
	var company Company
	query := `
		SELECT id, name, is_active, created_at, updated_at
		FROM companies
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &company, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("company")
	}
	if err != nil {
		return nil, err
	}

	return &company, nil
}

// GetMembership returns the active membership of a user, if any.
// A user belongs to at most one active company; when several rows
// exist the most recently created one wins.
func (r *Repository) GetMembership(ctx context.Context, userID string) (*tenant.Membership, error) {
	var membership tenant.Membership
	query := `
		SELECT cu.user_id, cu.company_id, r.name AS role_name
		FROM company_users cu
		JOIN roles r ON r.id = cu.role_id
		JOIN companies c ON c.id = cu.company_id
		WHERE cu.user_id = $1 AND cu.is_active = true AND c.is_active = true
		ORDER BY cu.created_at DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &membership, query, userID)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, err
	}

	return &membership, nil
}
