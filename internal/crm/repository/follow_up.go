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

// FollowUpRepository handles follow-up persistence
type FollowUpRepository struct {
	db *database.DB
}

// NewFollowUpRepository creates a new follow-up repository
func NewFollowUpRepository(db *database.DB) *FollowUpRepository {
	return &FollowUpRepository{db: db}
}

// COMPANY-ISOLATED
func (r *FollowUpRepository) Create(ctx context.Context, followUp *domain.FollowUp) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if followUp.ID == "" {
		followUp.ID = uuid.New().String()
	}
	followUp.CompanyID = companyID

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO follow_ups (id, company_id, lead_id, notes, due_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowContext(ctx, query,
			followUp.ID, followUp.CompanyID, followUp.LeadID, followUp.Notes,
			followUp.DueAt, followUp.CreatedBy,
		).Scan(&followUp.CreatedAt, &followUp.UpdatedAt)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// COMPANY-ISOLATED
func (r *FollowUpRepository) Get(ctx context.Context, id string) (*domain.FollowUp, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var followUp domain.FollowUp
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, lead_id, notes, due_at, completed_at, created_by,
			       created_at, updated_at
			FROM follow_ups
			WHERE id = $1 AND company_id = $2
		`
		return r.db.GetContext(ctx, &followUp, query, id, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("follow_up")
	}
	if err != nil {
		return nil, err
	}
	return &followUp, nil
}

// ListByLead returns the follow-ups of one lead, soonest due first
// COMPANY-ISOLATED
func (r *FollowUpRepository) ListByLead(ctx context.Context, leadID string) ([]*domain.FollowUp, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var followUps []*domain.FollowUp
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, lead_id, notes, due_at, completed_at, created_by,
			       created_at, updated_at
			FROM follow_ups
			WHERE company_id = $1 AND lead_id = $2
			ORDER BY due_at
		`
		return r.db.SelectContext(ctx, &followUps, query, companyID, leadID)
	})

	if err != nil {
		return nil, err
	}
	return followUps, nil
}

// ListPending returns open follow-ups across the company, soonest due first
// COMPANY-ISOLATED
func (r *FollowUpRepository) ListPending(ctx context.Context) ([]*domain.FollowUp, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var followUps []*domain.FollowUp
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, lead_id, notes, due_at, completed_at, created_by,
			       created_at, updated_at
			FROM follow_ups
			WHERE company_id = $1 AND completed_at IS NULL
			ORDER BY due_at
		`
		return r.db.SelectContext(ctx, &followUps, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return followUps, nil
}

// COMPANY-ISOLATED
func (r *FollowUpRepository) Update(ctx context.Context, followUp *domain.FollowUp) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE follow_ups SET notes = $3, due_at = $4, completed_at = $5, updated_at = NOW()
			WHERE id = $1 AND company_id = $2
		`
		result, err := r.db.ExecContext(ctx, query,
			followUp.ID, companyID, followUp.Notes, followUp.DueAt, followUp.CompletedAt,
		)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("follow_up")
		}
		return nil
	})
}

// Delete hard-deletes a follow-up
// COMPANY-ISOLATED
func (r *FollowUpRepository) Delete(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `DELETE FROM follow_ups WHERE id = $1 AND company_id = $2`
		result, err := r.db.ExecContext(ctx, query, id, companyID)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("follow_up")
		}
		return nil
	})
}
