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

// ProfileRepository handles team member profile persistence
type ProfileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// COMPANY-ISOLATED
func (r *ProfileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	profile.CompanyID = companyID

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO profiles (id, company_id, user_id, name, email, phone, avatar, role_id, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowContext(ctx, query,
			profile.ID, profile.CompanyID, profile.UserID, profile.Name, profile.Email,
			profile.Phone, profile.Avatar, profile.RoleID, profile.IsActive,
		).Scan(&profile.CreatedAt, &profile.UpdatedAt)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// COMPANY-ISOLATED
func (r *ProfileRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var profile domain.Profile
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT p.id, p.company_id, p.user_id, p.name, p.email, p.phone, p.avatar,
			       p.role_id, r.name AS role_name, p.is_active, p.created_at, p.updated_at
			FROM profiles p
			JOIN roles r ON r.id = p.role_id
			WHERE p.id = $1 AND p.company_id = $2
		`
		return r.db.GetContext(ctx, &profile, query, id, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("profile")
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// COMPANY-ISOLATED
func (r *ProfileRepository) List(ctx context.Context) ([]*domain.Profile, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var profiles []*domain.Profile
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT p.id, p.company_id, p.user_id, p.name, p.email, p.phone, p.avatar,
			       p.role_id, r.name AS role_name, p.is_active, p.created_at, p.updated_at
			FROM profiles p
			JOIN roles r ON r.id = p.role_id
			WHERE p.company_id = $1
			ORDER BY p.name
		`
		return r.db.SelectContext(ctx, &profiles, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// COMPANY-ISOLATED
func (r *ProfileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE profiles SET name = $3, email = $4, phone = $5, avatar = $6, role_id = $7,
			       is_active = $8, updated_at = NOW()
			WHERE id = $1 AND company_id = $2
		`
		result, err := r.db.ExecContext(ctx, query,
			profile.ID, companyID, profile.Name, profile.Email, profile.Phone,
			profile.Avatar, profile.RoleID, profile.IsActive,
		)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("profile")
		}
		return nil
	})
}

// Deactivate marks a profile inactive; the account itself is untouched
// COMPANY-ISOLATED
func (r *ProfileRepository) Deactivate(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE profiles SET is_active = false, updated_at = NOW()
			WHERE id = $1 AND company_id = $2
		`
		result, err := r.db.ExecContext(ctx, query, id, companyID)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("profile")
		}
		return nil
	})
}

// RoleRepository handles role persistence. System roles are global;
// custom roles are company-scoped.
type RoleRepository struct {
	db *database.DB
}

// NewRoleRepository creates a new role repository
func NewRoleRepository(db *database.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// List returns system roles plus the company's custom roles
// COMPANY-ISOLATED
func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var roles []*domain.Role
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, display_name, is_system, created_at, updated_at
			FROM roles
			WHERE is_system = true OR company_id = $1
			ORDER BY is_system DESC, name
		`
		return r.db.SelectContext(ctx, &roles, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return roles, nil
}

// GetByName returns a role visible to the company by name
// COMPANY-ISOLATED
func (r *RoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var role domain.Role
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, name, display_name, is_system, created_at, updated_at
			FROM roles
			WHERE name = $1 AND (is_system = true OR company_id = $2)
		`
		return r.db.GetContext(ctx, &role, query, name, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("role")
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}
