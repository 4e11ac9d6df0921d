package service

import (
	"context"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/events"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
)

// PipelineService handles pipeline board logic
type PipelineService struct {
	repo      *repository.PipelineRepository
	leadRepo  *repository.LeadRepository
	publisher *events.ChangePublisher
	audit     *AuditService
	logger    *logger.Logger
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	repo *repository.PipelineRepository,
	leadRepo *repository.LeadRepository,
	publisher *events.ChangePublisher,
	audit *AuditService,
	log *logger.Logger,
) *PipelineService {
	return &PipelineService{
		repo:      repo,
		leadRepo:  leadRepo,
		publisher: publisher,
		audit:     audit,
		logger:    log,
	}
}

// Create appends a column to the board. Position defaults to the end.
func (s *PipelineService) Create(ctx context.Context, column *domain.PipelineColumn) error {
	if column.Position < 0 {
		return errors.Validation(map[string]string{"position": "position must not be negative"})
	}
	if column.Position == 0 {
		existing, err := s.repo.List(ctx)
		if err != nil {
			return err
		}
		column.Position = len(existing)
	}

	if err := s.repo.Create(ctx, column); err != nil {
		return err
	}

	s.publisher.PublishCreated(ctx, messaging.TablePipelineColumns, column.ID, column)
	s.audit.Record(ctx, "pipeline_column.created", "pipeline_column", column.ID, map[string]interface{}{"name": column.Name})

	return nil
}

// Get gets a column by ID
func (s *PipelineService) Get(ctx context.Context, id string) (*domain.PipelineColumn, error) {
	return s.repo.Get(ctx, id)
}

// List returns the board columns in position order
func (s *PipelineService) List(ctx context.Context) ([]*domain.PipelineColumn, error) {
	return s.repo.List(ctx)
}

// Update updates a column
func (s *PipelineService) Update(ctx context.Context, column *domain.PipelineColumn) error {
	if column.Position < 0 {
		return errors.Validation(map[string]string{"position": "position must not be negative"})
	}

	old, err := s.repo.Get(ctx, column.ID)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, column); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TablePipelineColumns, column.ID, column, old)
	return nil
}

// Reorder applies a full board ordering
func (s *PipelineService) Reorder(ctx context.Context, orderedIDs []string) ([]*domain.PipelineColumn, error) {
	if len(orderedIDs) == 0 {
		return nil, errors.BadRequest("no column ids given")
	}

	if err := s.repo.Reorder(ctx, orderedIDs); err != nil {
		return nil, err
	}

	columns, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	// A single event for the whole reorder; the board refetches the
	// full column list either way.
	s.publisher.PublishUpdated(ctx, messaging.TablePipelineColumns, orderedIDs[0], columns, nil)
	s.audit.Record(ctx, "pipeline_column.reordered", "pipeline_column", "", map[string]interface{}{"count": len(orderedIDs)})

	return columns, nil
}

// Delete removes a column. Leads in the column survive with no column
// assignment.
func (s *PipelineService) Delete(ctx context.Context, id string) error {
	old, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	leads, err := s.leadRepo.ListByColumn(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, messaging.TablePipelineColumns, id, old)
	if len(leads) > 0 {
		// The orphaned leads changed too (column_id went NULL)
		s.publisher.PublishUpdated(ctx, messaging.TableLeads, leads[0].ID, nil, nil)
	}
	s.audit.Record(ctx, "pipeline_column.deleted", "pipeline_column", id, map[string]interface{}{"orphaned_leads": len(leads)})

	return nil
}
