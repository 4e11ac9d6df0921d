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

// LeadRepository handles lead persistence
type LeadRepository struct {
	db *database.DB
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *database.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

// COMPANY-ISOLATED: RLS scopes every statement to the current company;
// the explicit company_id predicates are defense in depth.
func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	lead.CompanyID = companyID
	if lead.Status == "" {
		lead.Status = domain.LeadStatusNew
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO leads (id, company_id, name, email, phone, source, status, column_id,
			       assigned_to, partner_id, product_id, value, notes, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowContext(ctx, query,
			lead.ID, lead.CompanyID, lead.Name, lead.Email, lead.Phone, lead.Source,
			lead.Status, lead.ColumnID, lead.AssignedTo, lead.PartnerID, lead.ProductID,
			lead.Value, lead.Notes, lead.CreatedBy,
		).Scan(&lead.CreatedAt, &lead.UpdatedAt)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// COMPANY-ISOLATED
func (r *LeadRepository) Get(ctx context.Context, id string) (*domain.Lead, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var lead domain.Lead
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, email, phone, source, status, column_id, assigned_to,
			       partner_id, product_id, value, notes, last_contact_at, created_by,
			       created_at, updated_at, deleted_at
			FROM leads
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		return r.db.GetContext(ctx, &lead, query, id, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("lead")
	}
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// COMPANY-ISOLATED
func (r *LeadRepository) List(ctx context.Context) ([]*domain.Lead, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var leads []*domain.Lead
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, email, phone, source, status, column_id, assigned_to,
			       partner_id, product_id, value, notes, last_contact_at, created_by,
			       created_at, updated_at, deleted_at
			FROM leads
			WHERE company_id = $1 AND deleted_at IS NULL
			ORDER BY created_at DESC
		`
		return r.db.SelectContext(ctx, &leads, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return leads, nil
}

// ListByColumn returns the leads of one pipeline column
// COMPANY-ISOLATED
func (r *LeadRepository) ListByColumn(ctx context.Context, columnID string) ([]*domain.Lead, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var leads []*domain.Lead
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, email, phone, source, status, column_id, assigned_to,
			       partner_id, product_id, value, notes, last_contact_at, created_by,
			       created_at, updated_at, deleted_at
			FROM leads
			WHERE company_id = $1 AND column_id = $2 AND deleted_at IS NULL
			ORDER BY created_at DESC
		`
		return r.db.SelectContext(ctx, &leads, query, companyID, columnID)
	})

	if err != nil {
		return nil, err
	}
	return leads, nil
}

// COMPANY-ISOLATED
func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE leads SET name = $3, email = $4, phone = $5, source = $6, status = $7,
			       column_id = $8, assigned_to = $9, partner_id = $10, product_id = $11,
			       value = $12, notes = $13, last_contact_at = $14, updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		result, err := r.db.ExecContext(ctx, query,
			lead.ID, companyID, lead.Name, lead.Email, lead.Phone, lead.Source, lead.Status,
			lead.ColumnID, lead.AssignedTo, lead.PartnerID, lead.ProductID,
			lead.Value, lead.Notes, lead.LastContactAt,
		)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("lead")
		}
		return nil
	})
}

// Delete soft-deletes a lead
// COMPANY-ISOLATED
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE leads SET deleted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		result, err := r.db.ExecContext(ctx, query, id, companyID)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("lead")
		}
		return nil
	})
}

// CountByColumn returns lead counts grouped by pipeline column
// COMPANY-ISOLATED
func (r *LeadRepository) CountByColumn(ctx context.Context) (map[string]int, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	type countRow struct {
		ColumnID *string `db:"column_id"`
		Count    int     `db:"count"`
	}

	var rows []countRow
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT column_id, COUNT(*) AS count
			FROM leads
			WHERE company_id = $1 AND deleted_at IS NULL
			GROUP BY column_id
		`
		return r.db.SelectContext(ctx, &rows, query, companyID)
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		key := ""
		if row.ColumnID != nil {
			key = *row.ColumnID
		}
		counts[key] = row.Count
	}
	return counts, nil
}
