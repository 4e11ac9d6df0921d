package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/pkg/database"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// PipelineRepository handles pipeline column persistence
type PipelineRepository struct {
	db *database.DB
}

// NewPipelineRepository creates a new pipeline repository
func NewPipelineRepository(db *database.DB) *PipelineRepository {
	return &PipelineRepository{db: db}
}

// COMPANY-ISOLATED
func (r *PipelineRepository) Create(ctx context.Context, column *domain.PipelineColumn) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if column.ID == "" {
		column.ID = uuid.New().String()
	}
	column.CompanyID = companyID

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO pipeline_columns (id, company_id, name, color, position)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowContext(ctx, query,
			column.ID, column.CompanyID, column.Name, column.Color, column.Position,
		).Scan(&column.CreatedAt, &column.UpdatedAt)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// COMPANY-ISOLATED
func (r *PipelineRepository) Get(ctx context.Context, id string) (*domain.PipelineColumn, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var column domain.PipelineColumn
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, color, position, created_at, updated_at
			FROM pipeline_columns
			WHERE id = $1 AND company_id = $2
		`
		return r.db.GetContext(ctx, &column, query, id, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("pipeline_column")
	}
	if err != nil {
		return nil, err
	}
	return &column, nil
}

// List returns the board columns in position order
// COMPANY-ISOLATED
func (r *PipelineRepository) List(ctx context.Context) ([]*domain.PipelineColumn, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var columns []*domain.PipelineColumn
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, color, position, created_at, updated_at
			FROM pipeline_columns
			WHERE company_id = $1
			ORDER BY position
		`
		return r.db.SelectContext(ctx, &columns, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return columns, nil
}

// COMPANY-ISOLATED
func (r *PipelineRepository) Update(ctx context.Context, column *domain.PipelineColumn) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE pipeline_columns SET name = $3, color = $4, position = $5, updated_at = NOW()
			WHERE id = $1 AND company_id = $2
		`
		result, err := r.db.ExecContext(ctx, query,
			column.ID, companyID, column.Name, column.Color, column.Position,
		)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("pipeline_column")
		}
		return nil
	})
}

// Reorder assigns new positions to the given column ids in a single
// transaction, so the board never observes a half-applied ordering.
// COMPANY-ISOLATED
func (r *PipelineRepository) Reorder(ctx context.Context, orderedIDs []string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE pipeline_columns SET position = $3, updated_at = NOW()
			WHERE id = $1 AND company_id = $2
		`
		for position, id := range orderedIDs {
			result, err := r.db.ExecContext(ctx, query, id, companyID, position)
			if err != nil {
				return err
			}
			affected, _ := result.RowsAffected()
			if affected == 0 {
				return errors.NotFound("pipeline_column")
			}
		}
		return nil
	})
}

// Delete hard-deletes a column; leads pointing at it fall back to an
// unassigned column via the FK's ON DELETE SET NULL.
// COMPANY-ISOLATED
func (r *PipelineRepository) Delete(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `DELETE FROM pipeline_columns WHERE id = $1 AND company_id = $2`
		result, err := r.db.ExecContext(ctx, query, id, companyID)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("pipeline_column")
		}
		return nil
	})
}
