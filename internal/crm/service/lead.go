package service

import (
	"context"
	"time"

	"github.com/joaofarinelli/we-crm-sub002/internal/crm/domain"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/events"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/pkg/errors"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
)

// LeadService handles lead business logic
type LeadService struct {
	leadRepo     *repository.LeadRepository
	followUpRepo *repository.FollowUpRepository
	publisher    *events.ChangePublisher
	audit        *AuditService
	logger       *logger.Logger
}

// NewLeadService creates a new lead service
func NewLeadService(
	leadRepo *repository.LeadRepository,
	followUpRepo *repository.FollowUpRepository,
	publisher *events.ChangePublisher,
	audit *AuditService,
	log *logger.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:     leadRepo,
		followUpRepo: followUpRepo,
		publisher:    publisher,
		audit:        audit,
		logger:       log,
	}
}

func validLeadStatus(status string) bool {
	for _, s := range domain.ValidLeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Create creates a new lead
func (s *LeadService) Create(ctx context.Context, lead *domain.Lead) error {
	if lead.Status != "" && !validLeadStatus(lead.Status) {
		return errors.Validation(map[string]string{"status": "invalid lead status"})
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return err
	}

	s.publisher.PublishCreated(ctx, messaging.TableLeads, lead.ID, lead)
	s.audit.Record(ctx, "lead.created", "lead", lead.ID, map[string]interface{}{"name": lead.Name})

	s.logger.Info().
		Str("lead_id", lead.ID).
		Str("status", lead.Status).
		Msg("lead created")

	return nil
}

// Get gets a lead by ID
func (s *LeadService) Get(ctx context.Context, id string) (*domain.Lead, error) {
	return s.leadRepo.Get(ctx, id)
}

// List lists the company's leads
func (s *LeadService) List(ctx context.Context) ([]*domain.Lead, error) {
	return s.leadRepo.List(ctx)
}

// Update updates a lead
func (s *LeadService) Update(ctx context.Context, lead *domain.Lead) error {
	if !validLeadStatus(lead.Status) {
		return errors.Validation(map[string]string{"status": "invalid lead status"})
	}

	old, err := s.leadRepo.Get(ctx, lead.ID)
	if err != nil {
		return err
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableLeads, lead.ID, lead, old)
	s.audit.Record(ctx, "lead.updated", "lead", lead.ID, nil)

	return nil
}

// MoveToColumn moves a lead to another pipeline column. This is the
// kanban drag: a plain update publishing leads.updated so every open
// board refetches.
func (s *LeadService) MoveToColumn(ctx context.Context, leadID string, columnID *string) (*domain.Lead, error) {
	lead, err := s.leadRepo.Get(ctx, leadID)
	if err != nil {
		return nil, err
	}

	old := *lead
	lead.ColumnID = columnID
	now := time.Now()
	lead.LastContactAt = &now

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableLeads, lead.ID, lead, &old)

	s.logger.Info().
		Str("lead_id", lead.ID).
		Msg("lead moved")

	return lead, nil
}

// Delete soft-deletes a lead
func (s *LeadService) Delete(ctx context.Context, id string) error {
	old, err := s.leadRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.leadRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, messaging.TableLeads, id, old)
	s.audit.Record(ctx, "lead.deleted", "lead", id, nil)

	return nil
}

// Follow-ups

// CreateFollowUp schedules a follow-up on a lead
func (s *LeadService) CreateFollowUp(ctx context.Context, followUp *domain.FollowUp) error {
	// The lead must exist and be visible to the company
	if _, err := s.leadRepo.Get(ctx, followUp.LeadID); err != nil {
		return err
	}
	if followUp.DueAt.IsZero() {
		return errors.Validation(map[string]string{"due_at": "due date is required"})
	}

	if err := s.followUpRepo.Create(ctx, followUp); err != nil {
		return err
	}

	s.publisher.PublishCreated(ctx, messaging.TableFollowUps, followUp.ID, followUp)
	return nil
}

// GetFollowUp returns a follow-up by ID
func (s *LeadService) GetFollowUp(ctx context.Context, id string) (*domain.FollowUp, error) {
	return s.followUpRepo.Get(ctx, id)
}

// ListFollowUps lists the follow-ups of a lead
func (s *LeadService) ListFollowUps(ctx context.Context, leadID string) ([]*domain.FollowUp, error) {
	return s.followUpRepo.ListByLead(ctx, leadID)
}

// ListPendingFollowUps lists open follow-ups across the company
func (s *LeadService) ListPendingFollowUps(ctx context.Context) ([]*domain.FollowUp, error) {
	return s.followUpRepo.ListPending(ctx)
}

// UpdateFollowUp updates a follow-up
func (s *LeadService) UpdateFollowUp(ctx context.Context, followUp *domain.FollowUp) error {
	old, err := s.followUpRepo.Get(ctx, followUp.ID)
	if err != nil {
		return err
	}

	if err := s.followUpRepo.Update(ctx, followUp); err != nil {
		return err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableFollowUps, followUp.ID, followUp, old)
	return nil
}

// CompleteFollowUp marks a follow-up done
func (s *LeadService) CompleteFollowUp(ctx context.Context, id string) (*domain.FollowUp, error) {
	followUp, err := s.followUpRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if followUp.CompletedAt != nil {
		return followUp, nil
	}

	old := *followUp
	now := time.Now()
	followUp.CompletedAt = &now

	if err := s.followUpRepo.Update(ctx, followUp); err != nil {
		return nil, err
	}

	s.publisher.PublishUpdated(ctx, messaging.TableFollowUps, followUp.ID, followUp, &old)
	return followUp, nil
}

// DeleteFollowUp hard-deletes a follow-up
func (s *LeadService) DeleteFollowUp(ctx context.Context, id string) error {
	old, err := s.followUpRepo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.followUpRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.publisher.PublishDeleted(ctx, messaging.TableFollowUps, id, old)
	return nil
}
