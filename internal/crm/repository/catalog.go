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

// PartnerRepository handles partner persistence
type PartnerRepository struct {
	db *database.DB
}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository(db *database.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// COMPANY-ISOLATED
func (r *PartnerRepository) Create(ctx context.Context, partner *domain.Partner) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if partner.ID == "" {
		partner.ID = uuid.New().String()
	}
	partner.CompanyID = companyID

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO partners (id, company_id, name, email, phone, commission_percent, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowContext(ctx, query,
			partner.ID, partner.CompanyID, partner.Name, partner.Email, partner.Phone,
			partner.Commission, partner.IsActive,
		).Scan(&partner.CreatedAt, &partner.UpdatedAt)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// COMPANY-ISOLATED
func (r *PartnerRepository) Get(ctx context.Context, id string) (*domain.Partner, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var partner domain.Partner
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, email, phone, commission_percent, is_active,
			       created_at, updated_at, deleted_at
			FROM partners
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		return r.db.GetContext(ctx, &partner, query, id, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("partner")
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// COMPANY-ISOLATED
func (r *PartnerRepository) List(ctx context.Context) ([]*domain.Partner, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var partners []*domain.Partner
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, email, phone, commission_percent, is_active,
			       created_at, updated_at, deleted_at
			FROM partners
			WHERE company_id = $1 AND deleted_at IS NULL
			ORDER BY name
		`
		return r.db.SelectContext(ctx, &partners, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return partners, nil
}

// COMPANY-ISOLATED
func (r *PartnerRepository) Update(ctx context.Context, partner *domain.Partner) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE partners SET name = $3, email = $4, phone = $5, commission_percent = $6,
			       is_active = $7, updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		result, err := r.db.ExecContext(ctx, query,
			partner.ID, companyID, partner.Name, partner.Email, partner.Phone,
			partner.Commission, partner.IsActive,
		)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("partner")
		}
		return nil
	})
}

// Delete soft-deletes a partner
// COMPANY-ISOLATED
func (r *PartnerRepository) Delete(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE partners SET deleted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		result, err := r.db.ExecContext(ctx, query, id, companyID)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("partner")
		}
		return nil
	})
}

// ScriptRepository handles sales script persistence
type ScriptRepository struct {
	db *database.DB
}

// NewScriptRepository creates a new script repository
func NewScriptRepository(db *database.DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

// COMPANY-ISOLATED
func (r *ScriptRepository) Create(ctx context.Context, script *domain.Script) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if script.ID == "" {
		script.ID = uuid.New().String()
	}
	script.CompanyID = companyID

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO scripts (id, company_id, title, content, category, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowContext(ctx, query,
			script.ID, script.CompanyID, script.Title, script.Content, script.Category,
			script.CreatedBy,
		).Scan(&script.CreatedAt, &script.UpdatedAt)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// COMPANY-ISOLATED
func (r *ScriptRepository) Get(ctx context.Context, id string) (*domain.Script, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var script domain.Script
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, title, content, category, created_by,
			       created_at, updated_at, deleted_at
			FROM scripts
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		return r.db.GetContext(ctx, &script, query, id, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("script")
	}
	if err != nil {
		return nil, err
	}
	return &script, nil
}

// COMPANY-ISOLATED
func (r *ScriptRepository) List(ctx context.Context) ([]*domain.Script, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var scripts []*domain.Script
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, title, content, category, created_by,
			       created_at, updated_at, deleted_at
			FROM scripts
			WHERE company_id = $1 AND deleted_at IS NULL
			ORDER BY title
		`
		return r.db.SelectContext(ctx, &scripts, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return scripts, nil
}

// COMPANY-ISOLATED
func (r *ScriptRepository) Update(ctx context.Context, script *domain.Script) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE scripts SET title = $3, content = $4, category = $5, updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		result, err := r.db.ExecContext(ctx, query,
			script.ID, companyID, script.Title, script.Content, script.Category,
		)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("script")
		}
		return nil
	})
}

// Delete soft-deletes a script
// COMPANY-ISOLATED
func (r *ScriptRepository) Delete(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE scripts SET deleted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		result, err := r.db.ExecContext(ctx, query, id, companyID)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("script")
		}
		return nil
	})
}

// ProductRepository handles product persistence
type ProductRepository struct {
	db *database.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// COMPANY-ISOLATED
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	product.CompanyID = companyID

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO products (id, company_id, name, description, price, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowContext(ctx, query,
			product.ID, product.CompanyID, product.Name, product.Description,
			product.Price, product.IsActive,
		).Scan(&product.CreatedAt, &product.UpdatedAt)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// COMPANY-ISOLATED
func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var product domain.Product
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, description, price, is_active,
			       created_at, updated_at, deleted_at
			FROM products
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		return r.db.GetContext(ctx, &product, query, id, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("product")
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// COMPANY-ISOLATED
func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var products []*domain.Product
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, description, price, is_active,
			       created_at, updated_at, deleted_at
			FROM products
			WHERE company_id = $1 AND deleted_at IS NULL
			ORDER BY name
		`
		return r.db.SelectContext(ctx, &products, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return products, nil
}

// COMPANY-ISOLATED
func (r *ProductRepository) Update(ctx context.Context, product *domain.Product) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE products SET name = $3, description = $4, price = $5, is_active = $6,
			       updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		result, err := r.db.ExecContext(ctx, query,
			product.ID, companyID, product.Name, product.Description, product.Price,
			product.IsActive,
		)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("product")
		}
		return nil
	})
}

// Delete soft-deletes a product
// COMPANY-ISOLATED
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE products SET deleted_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
		`
		result, err := r.db.ExecContext(ctx, query, id, companyID)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("product")
		}
		return nil
	})
}
