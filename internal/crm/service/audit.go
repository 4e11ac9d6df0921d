package service

import (
	"context"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
)

// AuditService records and lists audit log entries. Recording is
// best-effort: a failed write is logged and swallowed so the audited
// mutation itself never fails.
type AuditService struct {
	repo   *repository.AuditRepository
	logger *logger.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(repo *repository.AuditRepository, log *logger.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: log,
	}
}

// Record writes an audit entry attributed to the request's user
func (s *AuditService) Record(ctx context.Context, action, resourceType, resourceID string, details map[string]interface{}) {
	userID := httputil.GetUserID(ctx)
	entry := &domain.AuditLog{
		ActorName:    httputil.GetUserEmail(ctx),
		Action:       action,
		ResourceType: resourceType,
		Details:      details,
	}
	if userID != "" {
		entry.ActorID = &userID
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("action", action).
			Str("resource_type", resourceType).
			Msg("failed to write audit log entry")
	}
}

// List returns recent audit entries for the company
func (s *AuditService) List(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	return s.repo.List(ctx, limit)
}
