package permissions

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/joaofarinelli/we-crm-sub002/pkg/database"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// Repository loads per-company grid overrides
type Repository struct {
	db *database.DB
}

// NewRepository creates a new permissions repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

type gridRow struct {
	Grid []byte `db:"grid"`
}

// GetOverride returns the stored grid override for a role in a company,
// or nil when the company never customized that role.
func (r *Repository) GetOverride(ctx context.Context, companyID, roleName string) (Grid, error) {
	var out Grid
	err := r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		var row gridRow
		query := `
			SELECT grid
			FROM company_role_grids
			WHERE company_id = $1 AND role_name = $2
		`
		err := r.db.GetContext(ctx, &row, query, companyID, roleName)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		return json.Unmarshal(row.Grid, &out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SaveOverride upserts the grid override for a role in a company
func (r *Repository) SaveOverride(ctx context.Context, roleName string, grid Grid) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(grid)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO company_role_grids (company_id, role_name, grid, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (company_id, role_name)
			DO UPDATE SET grid = EXCLUDED.grid, updated_at = NOW()
		`
		_, err := r.db.ExecContext(ctx, query, companyID, roleName, payload)
		return err
	})
}

// DeleteOverride removes a role override, restoring the default grid
func (r *Repository) DeleteOverride(ctx context.Context, roleName string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `DELETE FROM company_role_grids WHERE company_id = $1 AND role_name = $2`
		_, err := r.db.ExecContext(ctx, query, companyID, roleName)
		return err
	})
}
