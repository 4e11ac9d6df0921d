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

// MeetingRepository handles meeting record persistence
type MeetingRepository struct {
	db *database.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *database.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// COMPANY-ISOLATED
func (r *MeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}
	meeting.CompanyID = companyID

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO meetings (id, company_id, appointment_id, lead_id, title, summary,
			       outcome, held_at, recorded_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowContext(ctx, query,
			meeting.ID, meeting.CompanyID, meeting.AppointmentID, meeting.LeadID,
			meeting.Title, meeting.Summary, meeting.Outcome, meeting.HeldAt, meeting.RecordedBy,
		).Scan(&meeting.CreatedAt, &meeting.UpdatedAt)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// COMPANY-ISOLATED
func (r *MeetingRepository) Get(ctx context.Context, id string) (*domain.Meeting, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var meeting domain.Meeting
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, appointment_id, lead_id, title, summary, outcome, held_at,
			       recorded_by, created_at, updated_at
			FROM meetings
			WHERE id = $1 AND company_id = $2
		`
		return r.db.GetContext(ctx, &meeting, query, id, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("meeting")
	}
	if err != nil {
		return nil, err
	}
	return &meeting, nil
}

// List returns meetings, most recent first
// COMPANY-ISOLATED
func (r *MeetingRepository) List(ctx context.Context) ([]*domain.Meeting, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var meetings []*domain.Meeting
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, appointment_id, lead_id, title, summary, outcome, held_at,
			       recorded_by, created_at, updated_at
			FROM meetings
			WHERE company_id = $1
			ORDER BY held_at DESC
		`
		return r.db.SelectContext(ctx, &meetings, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return meetings, nil
}

// COMPANY-ISOLATED
func (r *MeetingRepository) Update(ctx context.Context, meeting *domain.Meeting) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE meetings SET appointment_id = $3, lead_id = $4, title = $5, summary = $6,
			       outcome = $7, held_at = $8, updated_at = NOW()
			WHERE id = $1 AND company_id = $2
		`
		result, err := r.db.ExecContext(ctx, query,
			meeting.ID, companyID, meeting.AppointmentID, meeting.LeadID, meeting.Title,
			meeting.Summary, meeting.Outcome, meeting.HeldAt,
		)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("meeting")
		}
		return nil
	})
}

// Delete hard-deletes a meeting record
// COMPANY-ISOLATED
func (r *MeetingRepository) Delete(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `DELETE FROM meetings WHERE id = $1 AND company_id = $2`
		result, err := r.db.ExecContext(ctx, query, id, companyID)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("meeting")
		}
		return nil
	})
}
