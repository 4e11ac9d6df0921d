package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/pkg/database"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// AppointmentRepository handles appointment persistence
type AppointmentRepository struct {
	db *database.DB
}

// NewAppointmentRepository creates a new appointment repository
func NewAppointmentRepository(db *database.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// COMPANY-ISOLATED
func (r *AppointmentRepository) Create(ctx context.Context, appointment *domain.Appointment) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if appointment.ID == "" {
		appointment.ID = uuid.New().String()
	}
	appointment.CompanyID = companyID
	if appointment.Status == "" {
		appointment.Status = domain.AppointmentStatusScheduled
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO appointments (id, company_id, lead_id, title, description, status,
			       scheduled_at, duration_minutes, assigned_to, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at
		`
		err := r.db.QueryRowContext(ctx, query,
			appointment.ID, appointment.CompanyID, appointment.LeadID, appointment.Title,
			appointment.Description, appointment.Status, appointment.ScheduledAt,
			appointment.Duration, appointment.AssignedTo, appointment.CreatedBy,
		).Scan(&appointment.CreatedAt, &appointment.UpdatedAt)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		return err
	})
}

// COMPANY-ISOLATED
func (r *AppointmentRepository) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var appointment domain.Appointment
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, lead_id, title, description, status, scheduled_at,
			       duration_minutes, assigned_to, created_by, created_at, updated_at
			FROM appointments
			WHERE id = $1 AND company_id = $2
		`
		return r.db.GetContext(ctx, &appointment, query, id, companyID)
	})

	if err == sql.ErrNoRows {
		return nil, errors.NotFound("appointment")
	}
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

// COMPANY-ISOLATED
func (r *AppointmentRepository) List(ctx context.Context) ([]*domain.Appointment, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var appointments []*domain.Appointment
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, lead_id, title, description, status, scheduled_at,
			       duration_minutes, assigned_to, created_by, created_at, updated_at
			FROM appointments
			WHERE company_id = $1
			ORDER BY scheduled_at
		`
		return r.db.SelectContext(ctx, &appointments, query, companyID)
	})

	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// ListBetween returns appointments scheduled inside a time window
// COMPANY-ISOLATED
func (r *AppointmentRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.Appointment, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	var appointments []*domain.Appointment
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, lead_id, title, description, status, scheduled_at,
			       duration_minutes, assigned_to, created_by, created_at, updated_at
			FROM appointments
			WHERE company_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3
			ORDER BY scheduled_at
		`
		return r.db.SelectContext(ctx, &appointments, query, companyID, from, to)
	})

	if err != nil {
		return nil, err
	}
	return appointments, nil
}

// COMPANY-ISOLATED
func (r *AppointmentRepository) Update(ctx context.Context, appointment *domain.Appointment) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			UPDATE appointments SET lead_id = $3, title = $4, description = $5, status = $6,
			       scheduled_at = $7, duration_minutes = $8, assigned_to = $9, updated_at = NOW()
			WHERE id = $1 AND company_id = $2
		`
		result, err := r.db.ExecContext(ctx, query,
			appointment.ID, companyID, appointment.LeadID, appointment.Title,
			appointment.Description, appointment.Status, appointment.ScheduledAt,
			appointment.Duration, appointment.AssignedTo,
		)
		if mapped := database.MapPQError(err); mapped != nil {
			return mapped
		}
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("appointment")
		}
		return nil
	})
}

// Delete hard-deletes an appointment
// COMPANY-ISOLATED
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `DELETE FROM appointments WHERE id = $1 AND company_id = $2`
		result, err := r.db.ExecContext(ctx, query, id, companyID)
		if err != nil {
			return err
		}
		affected, _ := result.RowsAffected()
		if affected == 0 {
			return errors.NotFound("appointment")
		}
		return nil
	})
}

// CountByStatus returns appointment counts grouped by status
// COMPANY-ISOLATED
func (r *AppointmentRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}

	type countRow struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	var rows []countRow
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT status, COUNT(*) AS count
			FROM appointments
			WHERE company_id = $1
			GROUP BY status
		`
		return r.db.SelectContext(ctx, &rows, query, companyID)
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
