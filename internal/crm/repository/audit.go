package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/pkg/database"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// AuditRepository handles audit log persistence
type AuditRepository struct {
	db *database.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// COMPANY-ISOLATED
func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	entry.CompanyID = companyID

	var details []byte
	if entry.Details != nil {
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return err
		}
	}

	return r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			INSERT INTO audit_logs (id, company_id, actor_id, actor_name, action,
			       resource_type, resource_id, details)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at
		`
		return r.db.QueryRowContext(ctx, query,
			entry.ID, entry.CompanyID, entry.ActorID, entry.ActorName, entry.Action,
			entry.ResourceType, entry.ResourceID, details,
		).Scan(&entry.CreatedAt)
	})
}

// List returns audit entries, newest first, capped at limit
// COMPANY-ISOLATED
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	type auditRow struct {
		domain.AuditLog
		DetailsRaw []byte `db:"details"`
	}

	var rows []auditRow
	err = r.db.WithCompanyRLS(ctx, companyID, func(ctx context.Context) error {
		query := `
			SELECT id, company_id, actor_id, actor_name, action, resource_type, resource_id,
			       details, created_at
			FROM audit_logs
			WHERE company_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		`
		return r.db.SelectContext(ctx, &rows, query, companyID, limit)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.AuditLog, 0, len(rows))
	for i := range rows {
		entry := rows[i].AuditLog
		if len(rows[i].DetailsRaw) > 0 {
			// Unparseable details are dropped, not fatal
			_ = json.Unmarshal(rows[i].DetailsRaw, &entry.Details)
		}
		entries = append(entries, &entry)
	}
	return entries, nil
}
